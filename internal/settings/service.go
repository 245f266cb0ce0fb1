package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

const cacheName = "app_settings"

// Cache is the subset of the redis client the settings service needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(name string) string
}

// AppSettings is the public settings payload.
type AppSettings struct {
	AllowRegister   bool      `json:"allow_register"`
	MaintenanceMode bool      `json:"maintenance_mode"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateInput carries a partial settings update.
type UpdateInput struct {
	AllowRegister   *bool `json:"allow_register"`
	MaintenanceMode *bool `json:"maintenance_mode"`
}

// Service serves app settings through a read-through cache.
type Service struct {
	repo  *Repository
	cache Cache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService wires the settings service. cache may be nil to always read the database.
func NewService(repo *Repository, cache Cache, ttl time.Duration, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

// Get returns the current settings, preferring the cached copy.
func (s *Service) Get(ctx context.Context) (AppSettings, error) {
	if cached, ok := s.readCache(ctx); ok {
		return cached, nil
	}
	row, err := s.repo.Load(ctx)
	if err != nil {
		return AppSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load app settings")
	}
	out := fromModel(row)
	s.writeCache(ctx, out)
	return out, nil
}

// Update applies the provided fields and drops the cached copy.
func (s *Service) Update(ctx context.Context, input UpdateInput) (AppSettings, error) {
	row, err := s.repo.Load(ctx)
	if err != nil {
		return AppSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load app settings")
	}
	if input.AllowRegister != nil {
		row.AllowRegister = *input.AllowRegister
	}
	if input.MaintenanceMode != nil {
		row.MaintenanceMode = *input.MaintenanceMode
	}
	if err := s.repo.Upsert(ctx, &row); err != nil {
		return AppSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save app settings")
	}
	s.Invalidate(ctx)
	return fromModel(row), nil
}

// Invalidate drops the cached settings.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey(cacheName)); err != nil {
		s.logg.Warn(ctx, "settings cache invalidate failed: "+err.Error())
	}
}

// AllowRegister reports whether self-registration is open.
func (s *Service) AllowRegister(ctx context.Context) (bool, error) {
	current, err := s.Get(ctx)
	return current.AllowRegister, err
}

// MaintenanceMode reports whether customer traffic is paused.
func (s *Service) MaintenanceMode(ctx context.Context) (bool, error) {
	current, err := s.Get(ctx)
	return current.MaintenanceMode, err
}

func (s *Service) readCache(ctx context.Context) (AppSettings, bool) {
	if s.cache == nil {
		return AppSettings{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(cacheName))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logg.Warn(ctx, "settings cache read failed: "+err.Error())
		}
		return AppSettings{}, false
	}
	var out AppSettings
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return AppSettings{}, false
	}
	return out, true
}

func (s *Service) writeCache(ctx context.Context, value AppSettings) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey(cacheName), string(payload), s.ttl); err != nil {
		s.logg.Warn(ctx, "settings cache write failed: "+err.Error())
	}
}

func fromModel(row models.AppSetting) AppSettings {
	return AppSettings{
		AllowRegister:   row.AllowRegister,
		MaintenanceMode: row.MaintenanceMode,
		UpdatedAt:       row.UpdatedAt,
	}
}
