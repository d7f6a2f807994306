// Package dropdown memoizes the distinct-value lists that feed the dashboard
// filter selectors.
package dropdown

import (
	"context"
	"time"
)

type Key string

const (
	KeyStatuses    Key = "statuses"
	KeyPhysicians  Key = "physicians"
	KeyDepartments Key = "departments"
)

var Keys = []Key{KeyStatuses, KeyPhysicians, KeyDepartments}

// Values is the full set of lists served with a dashboard page.
type Values struct {
	Statuses    []string `json:"statuses"`
	Physicians  []string `json:"physicians"`
	Departments []string `json:"departments"`
}

// Store holds memoized lists. A miss is reported as ok=false with a nil error.
type Store interface {
	Get(ctx context.Context, key Key) (values []string, ok bool, err error)
	Set(ctx context.Context, key Key, values []string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...Key) error
}

// Loader recomputes one list from the record store, ordered ascending.
type Loader interface {
	Distinct(ctx context.Context, key Key) ([]string, error)
}
