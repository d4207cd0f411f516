// Package seed creates the default accounts a fresh installation needs.
package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/pkontaxis/thesisdesk/internal/app/models"
	appRepos "github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	pkgAuth "github.com/pkontaxis/thesisdesk/internal/pkg/auth"
)

const (
	defaultSecretaryEmail    = "secretary@thesisdesk.app"
	defaultSecretaryPassword = "Secretary123!"
)

// CreateDefaultData ensures the default secretary account exists. Every
// other account is created through registration, but the secretary role
// cannot be self-assigned, so a fresh database gets one seeded.
func CreateDefaultData(ctx context.Context, pool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(pool)

	_, err := userRepo.GetByEmail(ctx, defaultSecretaryEmail)
	if err == nil {
		lgr.Debug().Msg("Default secretary account already exists, skipping")
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		lgr.Error().Err(err).Msg("Error checking for default secretary account")
		return err
	}

	hash, err := pkgAuth.HashPassword(defaultSecretaryPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing default secretary password")
		return err
	}

	secretary := &appModels.User{
		Role:         appModels.RoleSecretary,
		FullName:     "Department Secretary",
		Email:        defaultSecretaryEmail,
		PasswordHash: hash,
	}

	id, err := userRepo.Create(ctx, secretary)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default secretary account")
		return err
	}

	lgr.Info().Int64("userId", id).Str("email", defaultSecretaryEmail).
		Msg("Default secretary account created; change the password after first login")
	return nil
}
