package cleanup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

type fakeSessions struct {
	infos  []models.EditorInfo
	closed []string
	failOn string
	cutoff time.Time
}

func (f *fakeSessions) Idle(cutoff time.Time) []models.EditorInfo {
	f.cutoff = cutoff
	var out []models.EditorInfo
	for _, info := range f.infos {
		if info.LastActivity.Before(cutoff) {
			out = append(out, info)
		}
	}
	return out
}

func (f *fakeSessions) Close(id string) error {
	if id == f.failOn {
		return errors.New("already closed")
	}
	f.closed = append(f.closed, id)
	return nil
}

func TestCleanupClosesIdleEditors(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := &fakeSessions{infos: []models.EditorInfo{
		{ID: "stale", LastActivity: now.Add(-3 * time.Hour)},
		{ID: "fresh", LastActivity: now.Add(-time.Minute)},
		{ID: "broken", LastActivity: now.Add(-5 * time.Hour)},
	}, failOn: "broken"}

	c := NewCleaner(sessions, time.Hour, time.Minute)
	c.now = func() time.Time { return now }

	assert.Equal(t, 1, c.cleanup())
	assert.Equal(t, []string{"stale"}, sessions.closed)
	assert.Equal(t, now.Add(-time.Hour), sessions.cutoff)
}

func TestCleanupNothingIdle(t *testing.T) {
	sessions := &fakeSessions{}
	c := NewCleaner(sessions, 0, 0)

	assert.Equal(t, 0, c.cleanup())
	assert.Equal(t, 5*time.Minute, c.interval)
	assert.Equal(t, 2*time.Hour, c.idleTTL)
}
