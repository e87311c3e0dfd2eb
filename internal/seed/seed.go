package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/campusfreestore/freestore-backend/pkg/logger"
	"github.com/campusfreestore/freestore-backend/pkg/security"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Run creates the baseline records the store cannot operate without: the
// default locations and, when configured, a bootstrap manager account. Every
// step is idempotent so Run is safe on each boot.
func Run(ctx context.Context, cfg config.SeedConfig, pwCfg config.PasswordConfig, logg *logger.Logger, client *db.Client) error {
	var errs error

	for _, name := range cfg.DefaultLocations {
		if name == "" {
			continue
		}
		if err := ensureLocation(ctx, client.DB(), name); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		logg.Debug(logg.WithField(ctx, "location", name), "seed: location ensured")
	}

	if cfg.ManagerEmail != "" && cfg.ManagerPassword != "" {
		if err := ensureManager(ctx, client.DB(), pwCfg, cfg.ManagerEmail, cfg.ManagerPassword); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			logg.Info(logg.WithField(ctx, "email", cfg.ManagerEmail), "seed: manager account ensured")
		}
	}

	return errs
}

func ensureLocation(ctx context.Context, conn *gorm.DB, name string) error {
	var existing models.Location
	err := conn.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return conn.WithContext(ctx).Create(&models.Location{Name: name, IsActive: true}).Error
}

func ensureManager(ctx context.Context, conn *gorm.DB, pwCfg config.PasswordConfig, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var existing models.User
	err := conn.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Create(&models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleManager,
		IsActive:     true,
	}).Error
}
