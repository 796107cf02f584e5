package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"sunupay/internal/model"
	"sunupay/internal/repository"
)

// gatewayCacheTTL bounds how stale a cached gateway can get when an
// invalidation is lost (redis restart, crashed writer).
const gatewayCacheTTL = 5 * time.Minute

// GatewayCache keeps hot-path gateway resolution off mysql. Implemented by
// cache.Client; a nil cache disables caching entirely.
type GatewayCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func gatewayCacheKey(appID uuid.UUID, name string) string {
	return "sunupay:gateway:" + appID.String() + ":" + strings.ToLower(name)
}

// cachedGatewayEntry is the cache wire form. The model hides credentials from
// API responses with json:"-" tags, so the model itself cannot be marshalled
// here without losing the config the adapters need.
type cachedGatewayEntry struct {
	ID            uuid.UUID           `json:"id"`
	ApplicationID uuid.UUID           `json:"application_id"`
	Name          string              `json:"name"`
	APIKey        string              `json:"api_key"`
	APISecret     string              `json:"api_secret"`
	Config        json.RawMessage     `json:"config"`
	Status        model.GatewayStatus `json:"status"`
}

func (e *cachedGatewayEntry) toModel() *model.Gateway {
	return &model.Gateway{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		Name:          e.Name,
		APIKey:        e.APIKey,
		APISecret:     e.APISecret,
		Config:        e.Config,
		Status:        e.Status,
	}
}

func cacheEntryOf(g *model.Gateway) *cachedGatewayEntry {
	return &cachedGatewayEntry{
		ID:            g.ID,
		ApplicationID: g.ApplicationID,
		Name:          g.Name,
		APIKey:        g.APIKey,
		APISecret:     g.APISecret,
		Config:        g.Config,
		Status:        g.Status,
	}
}

// findGatewayCached resolves a tenant's gateway through the cache first and
// falls back to the repository on a miss. Every cache failure degrades to a
// miss, so a dead redis only costs the mysql round-trip.
func findGatewayCached(ctx context.Context, c GatewayCache, repo repository.GatewayRepository, appID uuid.UUID, name string) (*model.Gateway, error) {
	key := gatewayCacheKey(appID, name)
	if c != nil {
		if raw, err := c.Get(ctx, key); err == nil && len(raw) > 0 {
			var entry cachedGatewayEntry
			if err := json.Unmarshal(raw, &entry); err == nil {
				return entry.toModel(), nil
			}
		}
	}

	gateway, err := repo.FindByAppAndName(ctx, appID, name)
	if err != nil {
		return nil, err
	}

	if c != nil {
		if raw, err := json.Marshal(cacheEntryOf(gateway)); err == nil {
			_ = c.Set(ctx, key, raw, gatewayCacheTTL)
		}
	}
	return gateway, nil
}

// invalidateGatewayCache drops the cached entry after a config or status
// write. Best-effort; the TTL caps staleness when the delete is lost.
func invalidateGatewayCache(ctx context.Context, c GatewayCache, appID uuid.UUID, name string) {
	if c == nil {
		return
	}
	_ = c.Delete(ctx, gatewayCacheKey(appID, name))
}
