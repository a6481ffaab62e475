package model

import (
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the table of the named model.
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Note":
		return db.AutoMigrate(&Note{})
	case "Workspace":
		return db.AutoMigrate(&Workspace{}, &WorkspaceMember{})
	}
	return nil
}
