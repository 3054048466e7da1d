package mapper

import (
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:           u.Id,
		Username:     u.Username,
		PasswordHash: u.Password,
		Role:         entity.UserRole(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	role := string(u.Role)
	if role == "" {
		role = string(entity.UserRoleAdvisor)
	}
	return &model.User{
		Id:        u.Id,
		Username:  u.Username,
		Password:  u.PasswordHash,
		Role:      role,
		CreatedAt: u.CreatedAt,
	}
}
