package flow

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stepone-ai/validation-backend/internal/entity"
)

// Registry owns the live controllers, keyed by session id. Entries
// expire after the configured idle TTL; a controller evicted mid-run
// simply means the client starts a new validation.
type Registry struct {
	cache *gocache.Cache
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		cache: gocache.New(ttl, ttl/2),
	}
}

func (r *Registry) Put(controller *Controller) {
	r.cache.SetDefault(controller.SessionID(), controller)
}

func (r *Registry) Get(sessionID string) (*Controller, error) {
	value, ok := r.cache.Get(sessionID)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}

	// Touch the entry so active sessions do not expire mid-interview.
	r.cache.SetDefault(sessionID, value)

	return value.(*Controller), nil
}

func (r *Registry) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Count reports the number of live sessions, expired entries included
// until the janitor sweeps them.
func (r *Registry) Count() int {
	return r.cache.ItemCount()
}
