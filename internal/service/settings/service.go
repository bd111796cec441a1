// Package settings serves the operational knobs table through a short-lived
// cache so the ingest hot path does not hit the database per row.
package settings

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/pkg/logger"
)

const cacheKey = "app_settings"

type Service struct {
	repo     repository.SettingsRepository
	cache    *gocache.Cache
	defaults config.BusinessConfig
	logger   *logger.Logger
}

func NewService(repo repository.SettingsRepository, business config.BusinessConfig, log *logger.Logger) *Service {
	ttl := time.Duration(business.SettingsCacheTTLSec) * time.Second
	return &Service{
		repo:     repo,
		cache:    gocache.New(ttl, 2*ttl),
		defaults: business,
		logger:   log,
	}
}

// Get returns current settings, cached for the configured TTL. When the row
// is missing or the read fails, configured defaults keep ingest running.
func (s *Service) Get(ctx context.Context) *model.AppSettings {
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(*model.AppSettings)
	}

	stored, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to load settings, using defaults", "error", err.Error())
	}
	if stored == nil {
		stored = &model.AppSettings{
			ID:                model.AppSettingsDefaultID,
			CashbackPercent:   s.defaults.CashbackPercent,
			CashbackStartDate: s.defaults.CashbackStartDate,
		}
	}

	s.cache.Set(cacheKey, stored, gocache.DefaultExpiration)
	return stored
}

// Invalidate drops the cached row so the next Get rereads the table.
func (s *Service) Invalidate() {
	s.cache.Delete(cacheKey)
}
