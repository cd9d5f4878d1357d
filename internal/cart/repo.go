package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

// Store is the slice of the redis client the cart needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Repository persists session carts as JSON documents.
type Repository interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type repository struct {
	store Store
	ttl   time.Duration
}

// NewRepository builds a redis backed cart repository. Every save refreshes
// the TTL.
func NewRepository(store Store, ttl time.Duration) Repository {
	return &repository{store: store, ttl: ttl}
}

// Load returns the stored cart, or an empty one when the session has none.
func (r *repository) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(sessionID))
	if errors.Is(err, goredis.Nil) {
		return &Cart{SessionID: sessionID, Items: []Item{}}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// an unreadable cart is display state only; start over
		return &Cart{SessionID: sessionID, Items: []Item{}}, nil
	}
	c.SessionID = sessionID
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

func (r *repository) Save(ctx context.Context, c *Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := r.store.Set(ctx, r.store.CartKey(c.SessionID), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
