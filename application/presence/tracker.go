// Package presence tracks the ephemeral cursors of peer sessions. Entries
// live only in memory, win by arrival order, and vanish the moment the
// owning user's last session in a project disconnects.
package presence

import (
	"sync"
	"time"
)

// Identity describes who owns a cursor.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"userName"`
	Color    string `json:"color"`
}

// Entry is the last known cursor of one user within a project.
type Entry struct {
	Identity
	ProjectID string    `json:"projectId"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	UpdatedAt time.Time `json:"-"`
}

// Tracker is a per-process table of live peer cursors. Entries are keyed by
// project and user, so one user can hold an independent cursor in each
// project they have sessions in.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]Entry)}
}

func key(projectID, userID string) string {
	return projectID + "/" + userID
}

// Upsert records the latest cursor for a user within a project. Last write
// wins by arrival; there is no timestamp ordering for presence.
func (t *Tracker) Upsert(projectID string, id Identity, x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key(projectID, id.UserID)] = Entry{
		Identity:  id,
		ProjectID: projectID,
		X:         x,
		Y:         y,
		UpdatedAt: time.Now(),
	}
}

// Remove evicts a user's cursor within a project, called when the user's
// last session in that project closes.
func (t *Tracker) Remove(projectID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key(projectID, userID))
}

// Get returns the entry for a user within a project if present.
func (t *Tracker) Get(projectID, userID string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key(projectID, userID)]
	return e, ok
}

// List returns the live cursors for one project.
func (t *Tracker) List(projectID string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of tracked cursors across all projects.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
