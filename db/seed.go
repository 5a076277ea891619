package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tunex/core/auth"
	"tunex/logger"
	"tunex/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StarterGenres 空库时写入的默认曲风
var StarterGenres = []string{"Pop", "Rock", "Hip-Hop", "Classical"}

// AdminAccount 初始管理员
type AdminAccount struct {
	Email    string
	Username string
	Password string
}

// Seed is idempotent: roles are inserted if absent, genres only when the
// genre table is empty, and one admin is created per bootstrap email.
func Seed(ctx context.Context, gdb *gorm.DB, admin AdminAccount) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedRoles(tx); err != nil {
			return err
		}
		if err := seedGenres(tx); err != nil {
			return err
		}
		return seedAdmin(tx, admin)
	})
}

func seedRoles(tx *gorm.DB) error {
	roles := []model.Role{
		{Name: model.RoleNameAdmin},
		{Name: model.RoleNameCreator},
		{Name: model.RoleNameUser},
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&roles).Error
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}

func seedGenres(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&model.Genre{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count genres: %w", err)
	}
	if count > 0 {
		return nil
	}

	genres := make([]model.Genre, 0, len(StarterGenres))
	for _, name := range StarterGenres {
		genres = append(genres, model.Genre{Name: name})
	}
	if err := tx.Create(&genres).Error; err != nil {
		return fmt.Errorf("seed genres: %w", err)
	}
	logger.Info("Seeded starter genres", logger.Int("count", len(genres)))
	return nil
}

func seedAdmin(tx *gorm.DB, admin AdminAccount) error {
	// stored the way Register and Login normalize addresses
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if admin.Email == "" {
		return nil
	}

	var existing model.User
	err := tx.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	var role model.Role
	if err := tx.Where("name = ?", model.RoleNameAdmin).First(&role).Error; err != nil {
		return fmt.Errorf("lookup admin role: %w", err)
	}

	user := model.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: hash,
		Roles:        []model.Role{role},
	}
	if err := tx.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created admin user", logger.String("email", admin.Email))
	return nil
}
