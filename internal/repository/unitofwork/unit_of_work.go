package unitofwork

import (
	"context"
	"fmt"

	"advisor-command-centre-be/internal/repository/contract"
	"advisor-command-centre-be/internal/repository/implementation"

	"gorm.io/gorm"
)

// UnitOfWork hands out repositories bound to the same connection. After
// Begin every repository runs inside the transaction until Commit or
// Rollback.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	MessageRepository() contract.MessageRepository
	UserSettingsRepository() contract.UserSettingsRepository
	RecordingRepository() contract.RecordingRepository
	RecordingJobRepository() contract.RecordingJobRepository
}

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) UserSettingsRepository() contract.UserSettingsRepository {
	return implementation.NewUserSettingsRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RecordingRepository() contract.RecordingRepository {
	return implementation.NewRecordingRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RecordingJobRepository() contract.RecordingJobRepository {
	return implementation.NewRecordingJobRepository(u.getDB())
}
