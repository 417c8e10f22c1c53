// Package convo tracks plain conversation sessions: the older
// continuation mechanism that predates document sessions. A
// conversation session pins follow-up messages to the agent that
// answered the first one until the session expires from the cache.
package convo

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Session is one live conversation continuation.
type Session struct {
	ID        string
	Agent     string
	StartedAt time.Time
	Messages  int
}

// Tracker holds conversation sessions in a TTL cache. Expiry is the
// cache's job: a session that has fallen out is simply invalid.
type Tracker struct {
	cache *cache.Cache
}

// NewTracker creates a Tracker whose sessions live for ttl.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{cache: cache.New(ttl, 10*time.Minute)}
}

// Save stores or refreshes a session.
func (t *Tracker) Save(s *Session) {
	t.cache.Set(s.ID, s, cache.DefaultExpiration)
}

// Get returns the session for id, if still valid.
func (t *Tracker) Get(id string) (*Session, bool) {
	if x, found := t.cache.Get(id); found {
		return x.(*Session), true
	}
	return nil, false
}

// Delete removes a session.
func (t *Tracker) Delete(id string) {
	t.cache.Delete(id)
}
