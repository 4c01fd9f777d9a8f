package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// Sessions is the set of editor sessions the cleaner sweeps
type Sessions interface {
	Idle(cutoff time.Time) []models.EditorInfo
	Close(id string) error
}

// Cleaner handles periodic discarding of idle editor sessions
type Cleaner struct {
	sessions Sessions
	idleTTL  time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker
func NewCleaner(sessions Sessions, idleTTL, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}

	return &Cleaner{
		sessions: sessions,
		idleTTL:  idleTTL,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "idle_ttl", c.idleTTL)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup closes sessions idle for longer than the TTL and returns how
// many were closed
func (c *Cleaner) cleanup() int {
	slog.Debug("running cleanup cycle")

	idle := c.sessions.Idle(c.now().Add(-c.idleTTL))
	if len(idle) == 0 {
		slog.Debug("no idle editors found")
		return 0
	}

	slog.Info("found idle editors", "count", len(idle))

	closed := 0
	for _, info := range idle {
		slog.Info("closing idle editor",
			"id", info.ID,
			"course_id", info.CourseID,
			"last_activity", info.LastActivity,
		)

		if err := c.sessions.Close(info.ID); err != nil {
			slog.Error("failed to close idle editor",
				"error", err,
				"id", info.ID,
			)
			continue
		}
		closed++
	}
	return closed
}
