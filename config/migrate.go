package config

import (
	"campus_marketplace/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func schema() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Review{},
		&models.Report{},
		&models.Setting{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(schema()...); err != nil {
		log.Error().Err(err).Msg("Failed to migrate database schema")
		return err
	}
	log.Info().Msg("Database migrations completed")

	// Settings and categories are reference data the engines rely on.
	if err := SeedSettings(db); err != nil {
		return err
	}
	return SeedCategories(db)
}

func ResetAndMigrate(db *gorm.DB) error {
	if err := db.Migrator().DropTable(schema()...); err != nil {
		log.Error().Err(err).Msg("Failed to drop tables")
		return err
	}
	log.Info().Msg("All tables dropped")
	return Migrate(db)
}
