// Seeds (or resets the password of) an admin operator account.
//
//	ADMIN_USERNAME=boss ADMIN_PASSWORD=secret go run ./cmd/seedadmin
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/eventops/doorprize-backend/internal/config"
	"github.com/eventops/doorprize-backend/internal/models"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	username := flag.String("username", os.Getenv("ADMIN_USERNAME"), "admin username")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	if *username == "" || *password == "" {
		logger.Fatal().Msg("username and password are required (flags or ADMIN_USERNAME/ADMIN_PASSWORD)")
	}

	appCfg := config.Load()
	db := config.InitDB(appCfg)
	models.Migrate(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to hash password")
	}

	var user models.AdminUser
	err = db.Where("username = ?", *username).First(&user).Error
	switch {
	case err == nil:
		if err := db.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
			logger.Fatal().Err(err).Msg("failed to update admin password")
		}
		logger.Info().Str("username", *username).Msg("admin password updated")
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.AdminUser{
			ID:           uuid.New(),
			Username:     *username,
			PasswordHash: string(hash),
		}
		if err := db.Create(&user).Error; err != nil {
			logger.Fatal().Err(err).Msg("failed to create admin user")
		}
		logger.Info().Str("username", *username).Msg("admin user created")
	default:
		logger.Fatal().Err(err).Msg("failed to look up admin user")
	}
}
