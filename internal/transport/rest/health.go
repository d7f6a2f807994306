package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

const probeTimeout = 2 * time.Second

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

// Probe is one dependency the health endpoint pings.
type Probe struct {
	Name string
	Ping func(ctx context.Context) error
}

var errNoDatabase = errors.New("database not configured")

func databaseProbe(db *sqlx.DB) Probe {
	return Probe{Name: "postgres", Ping: func(ctx context.Context) error {
		if db == nil {
			return errNoDatabase
		}
		return db.PingContext(ctx)
	}}
}

type HealthHandler struct {
	probes []Probe
}

func NewHealthHandler(db *sqlx.DB, extra ...Probe) *HealthHandler {
	return &HealthHandler{probes: append([]Probe{databaseProbe(db)}, extra...)}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler answers 503 when any probe fails. Probe errors stay in
// the server; clients only learn which component is down.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, len(h.probes)),
	}

	for _, p := range h.probes {
		entry := run(r.Context(), p)
		if entry.Status != HealthHealthy {
			resp.Status = HealthUnhealthy
		}
		resp.Components[p.Name] = entry
	}
	resp.CheckedAt = time.Now().UTC()

	code := http.StatusOK
	if resp.Status != HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, resp)
}

func run(ctx context.Context, p Probe) CheckEntry {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	entry := CheckEntry{Status: HealthHealthy, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = p.Name + " unreachable"
	}
	return entry
}

func writeHealth(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
