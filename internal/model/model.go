package model

import (
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Document":
		return db.AutoMigrate(Document{})

	case "DocumentVersion":
		return db.AutoMigrate(DocumentVersion{})

	case "DocumentOperation":
		return db.AutoMigrate(DocumentOperation{})

	case "":
		return db.AutoMigrate(Document{}, DocumentVersion{}, DocumentOperation{})
	}
	return nil
}
