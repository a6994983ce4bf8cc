package config

import (
	"errors"

	"campus_marketplace/models"
	"campus_marketplace/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var defaultCategories = []models.Category{
	{Name: "Books", Slug: "books"},
	{Name: "Electronics", Slug: "electronics"},
	{Name: "Furniture", Slug: "furniture"},
	{Name: "Clothing", Slug: "clothing"},
	{Name: "Sports", Slug: "sports"},
	{Name: "Other", Slug: "other"},
}

// SeedSettings writes the default settings row unless one exists.
func SeedSettings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Setting{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	st := models.DefaultSetting()
	if err := db.Create(&st).Error; err != nil {
		log.Error().Err(err).Msg("Failed to seed settings")
		return err
	}
	log.Info().Msg("Settings seeded")
	return nil
}

func SeedCategories(db *gorm.DB) error {
	for _, c := range defaultCategories {
		category := c
		if err := db.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			log.Error().Err(err).Str("slug", category.Slug).Msg("Failed to seed category")
			return err
		}
	}
	return nil
}

// SeedUsers creates an admin and two students for local development.
func SeedUsers(db *gorm.DB) error {
	log.Info().Msg("🌱 Seeding users...")

	password, err := utils.HashPassword("password123")
	if err != nil {
		return err
	}

	users := []models.User{
		{Username: "admin", Email: "admin@example.com", Password: password, FullName: "Marketplace Admin", Role: models.RoleAdmin},
		{Username: "user1", Email: "user1@example.com", Password: password, FullName: "User One", Role: models.RoleUser},
		{Username: "user2", Email: "user2@example.com", Password: password, FullName: "User Two", Role: models.RoleUser},
	}

	for _, user := range users {
		var existing models.User
		err := db.Where("email = ?", user.Email).First(&existing).Error
		switch {
		case err == nil:
			log.Debug().Str("username", user.Username).Msg("User already exists")
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&user).Error; err != nil {
				log.Error().Err(err).Str("username", user.Username).Msg("Failed to seed user")
				return err
			}
			log.Info().Str("username", user.Username).Uint("id", user.ID).Msg("User seeded")
		default:
			return err
		}
	}

	log.Info().Msg("✅ Seeding complete.")
	return nil
}
