package seed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	appModels "github.com/ozan/classpoint/internal/app/models"
	appRepos "github.com/ozan/classpoint/internal/app/repositories"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
)

// CreateDefaultData creates the default demo accounts if they don't exist.
// Errors are collected so one failed account does not block the others.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default accounts...")
	var finalErr error

	accounts := []struct {
		email     string
		password  string
		firstName string
		lastName  string
		role      appModels.RoleType
	}{
		{"teacher@classpoint.app", "Teacher123!", "Default", "Teacher", appModels.RoleTeacher},
		{"student@classpoint.app", "Student123!", "Default", "Student", appModels.RoleStudent},
	}

	for _, acc := range accounts {
		_, err := userRepo.GetUserByEmail(ctx, acc.email)
		if err == nil {
			lgr.Debug().Str("email", acc.email).Msg("Default account already exists, skipping")
			continue
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			lgr.Error().Err(err).Str("email", acc.email).Msg("Error checking default account")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(acc.password), bcrypt.DefaultCost)
		if err != nil {
			lgr.Error().Err(err).Str("email", acc.email).Msg("Error hashing default account password")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		user := &appModels.User{
			Email:         acc.email,
			Password:      string(hashedPassword),
			FirstName:     acc.firstName,
			LastName:      acc.lastName,
			RoleType:      acc.role,
			IsActive:      true,
			EmailVerified: true,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}

		userID, err := userRepo.CreateUser(ctx, user)
		if err != nil {
			lgr.Error().Err(err).Str("email", acc.email).Msg("Error creating default account")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Int64("userID", userID).Str("email", acc.email).Msg("Default account created")
	}

	lgr.Info().Msg("Default account check finished.")
	return finalErr
}
