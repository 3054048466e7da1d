package memory

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const SettingsInvalidateChannel = "settings_invalidate"

type settingsInvalidation struct {
	Origin    string    `json:"origin"`
	UserID    string    `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsCache keeps recently read settings rows in process memory.
// Entries hold copies so callers cannot mutate cached state.
//
// Every write records the row's UpdatedAt as a floor for that user; rows
// read from the database older than the floor are never cached. With
// Redis configured, writes are announced to the other instances, which
// drop their copy and raise their floor.
type SettingsCache struct {
	cache  *cache.Cache
	floors *cache.Cache
	mu     sync.Mutex

	disabled atomic.Bool

	rdb        *redis.Client
	instanceID string
	logger     logger.ILogger
}

func NewSettingsCache(ttl time.Duration) *SettingsCache {
	return &SettingsCache{
		cache:      cache.New(ttl, 2*ttl),
		floors:     cache.New(ttl, 2*ttl),
		instanceID: uuid.NewString(),
		logger:     logger.NewNopLogger(),
	}
}

// NewSharedSettingsCache is NewSettingsCache plus cross-instance
// invalidation over rdb. Run must be started for remote writes to apply.
func NewSharedSettingsCache(ttl time.Duration, rdb *redis.Client, log logger.ILogger) *SettingsCache {
	c := NewSettingsCache(ttl)
	c.rdb = rdb
	if log != nil {
		c.logger = log
	}
	return c
}

// Save stores the row just written by this instance and announces it.
func (r *SettingsCache) Save(ctx context.Context, settings *entity.UserSettings) {
	if settings == nil {
		return
	}
	copied := *settings
	key := settings.UserId.String()

	r.mu.Lock()
	r.raiseFloor(key, settings.UpdatedAt)
	if !r.disabled.Load() {
		r.cache.Set(key, &copied, cache.DefaultExpiration)
	}
	r.mu.Unlock()

	r.broadcast(ctx, settings.UserId, settings.UpdatedAt)
}

// Add caches a row read from the database unless an entry already exists
// or a newer write has been seen. It reports whether the row was stored.
func (r *SettingsCache) Add(settings *entity.UserSettings) bool {
	if settings == nil {
		return false
	}
	copied := *settings
	key := settings.UserId.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled.Load() {
		return false
	}
	if floor, ok := r.floors.Get(key); ok && settings.UpdatedAt.Before(floor.(time.Time)) {
		return false
	}
	return r.cache.Add(key, &copied, cache.DefaultExpiration) == nil
}

func (r *SettingsCache) Get(userId uuid.UUID) (*entity.UserSettings, bool) {
	if x, found := r.cache.Get(userId.String()); found {
		copied := *x.(*entity.UserSettings)
		return &copied, true
	}
	return nil, false
}

func (r *SettingsCache) Delete(userId uuid.UUID) {
	r.cache.Delete(userId.String())
}

// Invalidate drops the entry for userId and refuses rows older than
// updatedAt from then on.
func (r *SettingsCache) Invalidate(userId uuid.UUID, updatedAt time.Time) {
	key := userId.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raiseFloor(key, updatedAt)
	r.cache.Delete(key)
}

func (r *SettingsCache) raiseFloor(key string, updatedAt time.Time) {
	if floor, ok := r.floors.Get(key); ok && updatedAt.Before(floor.(time.Time)) {
		return
	}
	r.floors.Set(key, updatedAt, cache.DefaultExpiration)
}

func (r *SettingsCache) broadcast(ctx context.Context, userId uuid.UUID, updatedAt time.Time) {
	if r.rdb == nil {
		return
	}
	payload, err := json.Marshal(settingsInvalidation{
		Origin:    r.instanceID,
		UserID:    userId.String(),
		UpdatedAt: updatedAt,
	})
	if err != nil {
		r.logger.Error("SettingsCache", "Failed to encode invalidation", map[string]interface{}{"error": err})
		return
	}
	if err := r.rdb.Publish(ctx, SettingsInvalidateChannel, payload).Err(); err != nil {
		r.logger.Warn("SettingsCache", "Redis publish failed", map[string]interface{}{"error": err, "user_id": userId})
	}
}

// Run applies invalidations from other instances until ctx is done. Without
// Redis it just waits for ctx. ready, when non-nil, is closed once the
// subscription is live.
func (r *SettingsCache) Run(ctx context.Context, ready chan<- struct{}) error {
	if r.rdb == nil {
		if ready != nil {
			close(ready)
		}
		<-ctx.Done()
		return nil
	}

	pubsub := r.rdb.Subscribe(ctx, SettingsInvalidateChannel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		// Cached rows could go stale across instances, so stop caching.
		r.logger.Error("SettingsCache", "Redis subscribe failed, cache disabled", map[string]interface{}{"error": err})
		r.disabled.Store(true)
		r.cache.Flush()
		if ready != nil {
			close(ready)
		}
		<-ctx.Done()
		return nil
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var payload settingsInvalidation
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				r.logger.Warn("SettingsCache", "Invalidation parse error", map[string]interface{}{"error": err})
				continue
			}
			if payload.Origin == r.instanceID {
				continue
			}
			userId, err := uuid.Parse(payload.UserID)
			if err != nil {
				continue
			}
			r.Invalidate(userId, payload.UpdatedAt)
		}
	}
}
