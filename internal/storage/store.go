package storage

import (
	"context"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deepspace-ra/kband-frontend/internal/calibration"
	"github.com/deepspace-ra/kband-frontend/internal/frontend"
)

// Store provides an interface for persisting front-end monitor data: control
// sessions, power meter readings and minical calibration runs. All write
// operations are atomic.
type Store interface {
	// CreateSession initializes a new control session and returns its unique
	// identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - mode: "simulated" or "hardware"
	//   - config: Optional configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - sessionID: Unique identifier for the created session
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, mode string, config any) (sessionID int64, err error)

	// Session retrieves a specific control session by its ID.
	Session(ctx context.Context, id int64) (session *Session, err error)

	// Sessions returns all control sessions, ordered by start time ascending.
	Sessions(ctx context.Context) (sessions []*Session, err error)

	// StoreReadings saves one sweep of the four power meters in a single
	// transaction.
	StoreReadings(ctx context.Context, sessionID int64, taken time.Time, readings []frontend.PowerReading) error

	// Readings returns the stored meter readings for a session in insertion
	// order.
	Readings(ctx context.Context, sessionID int64) ([]Reading, error)

	// StoreMinical saves a minical dataset together with its per-channel
	// reduction in a single transaction.
	StoreMinical(ctx context.Context, sessionID int64, ds *calibration.Dataset, results []calibration.Results) error

	// MinicalRuns returns the stored minical rows for a session, newest
	// acquisition first.
	MinicalRuns(ctx context.Context, sessionID int64) ([]MinicalRow, error)

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}

// Session represents one control session of the front-end server.
type Session struct {
	ID        int64     `json:"ID"`
	StartTime time.Time `json:"startTime"`
	Mode      string    `json:"mode"`             // "simulated" or "hardware"
	Config    *string   `json:"config,omitempty"` // configuration in JSON format
}

// Reading is one stored power meter sample.
type Reading struct {
	ID        int64
	SessionID int64
	Timestamp time.Time
	Channel   int // meter index 1..4
	Feed      int
	Pol       string
	Power     float64 // watts
}

// MinicalRow is one channel of a stored minical run: the four raw readings
// and the reduced calibration values.
type MinicalRow struct {
	ID        int64
	SessionID int64
	Taken     time.Time
	Channel   int

	Sky    float64
	SkyND  float64
	Load   float64
	LoadND float64
	TloadK float64

	GainWPerK    float64
	TlinearK     float64
	TquadraticK  float64
	TndK         float64
	NonLinearity float64
}
