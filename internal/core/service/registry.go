package service

import (
	"imgopt/internal/core/port"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// ViewRegistry keeps one OptimizerView per session. Views idle for longer than the TTL are evicted and torn down.
type ViewRegistry struct {
	views     *cache.Cache
	optimizer port.Optimizer
	previews  port.PreviewStore
	quality   int
}

func NewViewRegistry(optimizer port.Optimizer, previews port.PreviewStore, quality int,
	ttl time.Duration) *ViewRegistry {
	r := &ViewRegistry{
		views:     cache.New(ttl, ttl/2),
		optimizer: optimizer,
		previews:  previews,
		quality:   quality,
	}

	r.views.OnEvicted(func(id string, value interface{}) {
		log.Debug().Str("viewId", id).Msg("tearing down view")
		value.(*OptimizerView).Close()
	})

	return r
}

// Acquire returns the view of session id, creating a new session when id is unknown or expired. The returned id is
// the one to hand back to the client.
func (r *ViewRegistry) Acquire(id string) (string, *OptimizerView, error) {
	if id != "" {
		if v, ok := r.views.Get(id); ok {
			view := v.(*OptimizerView)
			if !view.Closed() {
				r.views.SetDefault(id, view)
				// eviction may have closed the view between Get and SetDefault
				if !view.Closed() {
					return id, view, nil
				}
			}
			log.Debug().Str("viewId", id).Msg("replacing closed view")
			r.views.Delete(id)
		}
	}

	newID, err := uuid.NewV4()
	if err != nil {
		return "", nil, err
	}

	v := NewOptimizerView(r.optimizer, r.previews, r.quality).WithID(newID.String())
	r.views.SetDefault(newID.String(), v)

	log.Debug().Str("viewId", newID.String()).Msg("created view")

	return newID.String(), v, nil
}

// Remove tears down the view of session id, if any.
func (r *ViewRegistry) Remove(id string) {
	r.views.Delete(id)
}

// Len returns the number of registered views. Used by tests.
func (r *ViewRegistry) Len() int {
	return r.views.ItemCount()
}

// Close tears down every live view.
func (r *ViewRegistry) Close() {
	r.views.DeleteExpired()
	for id := range r.views.Items() {
		r.views.Delete(id)
	}
}
