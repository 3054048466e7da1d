package model

import "gorm.io/gorm"

// All lists every table owned by this service, in creation order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Message{},
		&UserSettings{},
		&Recording{},
		&RecordingJob{},
	}
}

// AutoMigrate creates or updates the schema. The settings unique index is
// checked explicitly because the upsert depends on it.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	if !db.Migrator().HasIndex(&UserSettings{}, "idx_user_settings_user_id") {
		return db.Migrator().CreateIndex(&UserSettings{}, "idx_user_settings_user_id")
	}
	return nil
}
