package repositories

import (
	"fmt"

	"github.com/anonto42/memomap/backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every relational table the service uses.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Memo{},
		&models.Comment{},
		&models.Friend{},
		&models.Follow{},
		&models.Subscription{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
