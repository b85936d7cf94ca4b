package store

import (
	"applybot/bot/errs"
	"applybot/bot/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormConfigStore keeps guild configuration in a gorm database. The bot points it at an
// in-memory sqlite database unless POSTGRES_DSN is set.
type GormConfigStore struct {
	db *gorm.DB
}

func NewGormConfigStore(db *gorm.DB) (*GormConfigStore, error) {
	if !db.Migrator().HasTable(&models.GuildConfig{}) {
		if err := db.Migrator().CreateTable(&models.GuildConfig{}); err != nil {
			return nil, fmt.Errorf("create guild config table: %w", err)
		}
	}

	for _, column := range []string{"admin_users", "admin_roles", "voter_roles", "mod_channel_id"} {
		if !db.Migrator().HasColumn(&models.GuildConfig{}, column) {
			if err := db.Migrator().AddColumn(&models.GuildConfig{}, column); err != nil {
				return nil, fmt.Errorf("add column %s: %w", column, err)
			}
		}
	}

	return &GormConfigStore{db: db}, nil
}

func (s *GormConfigStore) GetConfig(ctx context.Context, guildId string) (models.GuildConfig, error) {
	var guildConfig models.GuildConfig

	result := s.db.WithContext(ctx).Where(&models.GuildConfig{GuildId: guildId}).First(&guildConfig)

	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return models.GuildConfig{}, errs.ErrNotConfigured
	case result.Error != nil:
		return models.GuildConfig{}, result.Error
	default:
		return guildConfig, nil
	}
}

func (s *GormConfigStore) MergeConfig(ctx context.Context, guildId string, patch models.ConfigPatch) (models.GuildConfig, error) {
	var guildConfig models.GuildConfig

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Where(&models.GuildConfig{GuildId: guildId}).FirstOrCreate(&guildConfig); result.Error != nil {
			return result.Error
		}

		guildConfig.Merge(patch)

		return tx.Save(&guildConfig).Error
	})
	if err != nil {
		return models.GuildConfig{}, err
	}

	return guildConfig, nil
}
