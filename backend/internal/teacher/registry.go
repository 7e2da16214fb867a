package teacher

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"teachers_portal/backend/internal/observability"
	"teachers_portal/backend/internal/shared"
)

// Registry holds one workspace per signed-in teacher. Workspaces that are
// not touched for the TTL are evicted.
type Registry struct {
	mu     sync.Mutex
	cache  *cache.Cache
	roster RosterLoader
	sinks  SinkFactory
	logger zerolog.Logger
}

// NewRegistry creates a registry whose workspaces expire after ttl of inactivity.
func NewRegistry(ttl time.Duration, loader RosterLoader, sinks SinkFactory, logger zerolog.Logger) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	r := &Registry{
		cache:  cache.New(ttl, ttl/2),
		roster: loader,
		sinks:  sinks,
		logger: logger.With().Str("component", "workspace_registry").Logger(),
	}
	r.cache.OnEvicted(func(userID string, _ interface{}) {
		r.logger.Debug().Str("user_id", userID).Msg("workspace evicted")
		observability.ActiveWorkspaces().Set(float64(r.cache.ItemCount()))
	})
	return r
}

// Workspace returns the teacher's workspace, creating it on first use.
// Each call restarts the expiry clock.
func (r *Registry) Workspace(user *shared.User) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.cache.Get(user.ID); ok {
		ws := item.(*Workspace)
		r.cache.SetDefault(user.ID, ws)
		return ws
	}

	ws := NewWorkspace(user.ID, NewDashboard(user), r.roster, r.sinks, r.logger)
	r.cache.SetDefault(user.ID, ws)
	observability.ActiveWorkspaces().Set(float64(r.cache.ItemCount()))
	return ws
}

// Drop discards the teacher's workspace, e.g. on logout.
func (r *Registry) Drop(userID string) {
	r.cache.Delete(userID)
}

// Len is the number of live workspaces.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
