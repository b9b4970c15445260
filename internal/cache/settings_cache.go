package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

// SettingsCache keeps the single site_settings row in memory. Every public
// page and every checkout session reads it, so it is loaded once at startup
// and refreshed whenever the admin console saves.
type SettingsCache struct {
	mu       sync.RWMutex
	settings repository.SiteSettings
	repo     storage.SettingsRepository
}

func NewSettingsCache(repo storage.SettingsRepository) *SettingsCache {
	return &SettingsCache{repo: repo}
}

func (c *SettingsCache) LoadInitialData(ctx context.Context) error {
	settings, err := c.repo.Get(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = *settings
	zap.S().Info("loaded site settings into cache")
	return nil
}

func (c *SettingsCache) Current() repository.SiteSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Refresh re-reads the row after an admin save.
func (c *SettingsCache) Refresh(ctx context.Context) error {
	return c.LoadInitialData(ctx)
}
