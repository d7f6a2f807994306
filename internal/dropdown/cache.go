package dropdown

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/frahmantamala/discharge-registry/internal/core/events"
)

// Cache is a read-through cache over the three dropdown lists. Concurrent
// misses on the same key share one load. A load that started before an
// invalidation never writes its result back.
type Cache struct {
	store  Store
	loader Loader
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
	gen    atomic.Uint64
}

func New(store Store, loader Loader, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		loader: loader,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the list for key, loading it on a miss. Store failures fall
// back to the loader.
func (c *Cache) Get(ctx context.Context, key Key) ([]string, error) {
	values, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("dropdown cache read failed", "key", key, "error", err)
	} else if ok {
		return values, nil
	}

	gen := c.gen.Load()
	v, err, _ := c.group.Do(fmt.Sprintf("%s@%d", key, gen), func() (interface{}, error) {
		loaded, err := c.loader.Distinct(ctx, key)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			loaded = []string{}
		}
		if c.gen.Load() != gen {
			return loaded, nil
		}
		if err := c.store.Set(ctx, key, loaded, c.ttl); err != nil {
			c.logger.Warn("dropdown cache write failed", "key", key, "error", err)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return v.([]string), nil
}

func (c *Cache) All(ctx context.Context) (Values, error) {
	var out Values
	var err error
	if out.Statuses, err = c.Get(ctx, KeyStatuses); err != nil {
		return Values{}, err
	}
	if out.Physicians, err = c.Get(ctx, KeyPhysicians); err != nil {
		return Values{}, err
	}
	if out.Departments, err = c.Get(ctx, KeyDepartments); err != nil {
		return Values{}, err
	}
	return out, nil
}

// Invalidate drops all three lists. It is idempotent. A failure is logged
// and returned for the caller's records only; reads still recover through
// the TTL.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.gen.Add(1)
	if err := c.store.Delete(ctx, Keys...); err != nil {
		c.logger.Error("dropdown cache invalidation failed", "error", err)
		return err
	}
	c.logger.Debug("dropdown cache invalidated")
	return nil
}

// Warm loads every list into the store, replacing what is there.
func (c *Cache) Warm(ctx context.Context) error {
	for _, k := range Keys {
		values, err := c.loader.Distinct(ctx, k)
		if err != nil {
			return fmt.Errorf("warm %s: %w", k, err)
		}
		if values == nil {
			values = []string{}
		}
		if err := c.store.Set(ctx, k, values, c.ttl); err != nil {
			return fmt.Errorf("warm %s: %w", k, err)
		}
	}
	return nil
}

// Subscribe registers invalidation on every change that can alter a list.
func (c *Cache) Subscribe(bus *events.EventBus) {
	hook := func(ctx context.Context, _ events.Event) error {
		return c.Invalidate(ctx)
	}
	bus.Subscribe("record.*", hook)
	bus.Subscribe(events.EventTypeDepartmentCreated, hook)
	bus.Subscribe(events.EventTypeDepartmentDeleted, hook)
}
