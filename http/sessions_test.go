package http

import (
	"fmt"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"go-price-converter/convert"
	"go-price-converter/domain"
	"go-price-converter/locate"
	"go-price-converter/registry"
	"strings"
	"testing"
	"time"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestSessions(ttl time.Duration, max int) (*sessions, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newSessions(convert.NewFactory(registry.Default(), locate.DefaultConfig()))
	s.ttl = ttl
	s.max = max
	s.now = c.now
	return s, c
}

func TestSessions_Expire(t *testing.T) {
	s, c := newTestSessions(time.Minute, 0)

	s.open("a")
	c.advance(2 * time.Minute)

	_, ok := s.find("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.len())
}

func TestSessions_FindKeepsDocumentAlive(t *testing.T) {
	s, c := newTestSessions(time.Minute, 0)

	_, opened := s.open("a")
	c.advance(50 * time.Second)
	_, ok := s.find("a")
	assert.True(t, ok)

	c.advance(50 * time.Second)
	found, ok := s.find("a")
	assert.True(t, ok)
	assert.Same(t, opened, found)

	c.advance(61 * time.Second)
	s.open("b")
	_, ok = s.find("a")
	assert.False(t, ok)
	assert.Equal(t, 1, s.len())
}

func TestSessions_EvictLeastRecentlyUsed(t *testing.T) {
	s, c := newTestSessions(0, 2)

	s.open("a")
	c.advance(time.Second)
	s.open("b")
	c.advance(time.Second)
	s.find("a")
	s.open("c")

	assert.Equal(t, 2, s.len())
	_, ok := s.find("b")
	assert.False(t, ok)
	_, ok = s.find("a")
	assert.True(t, ok)
	_, ok = s.find("c")
	assert.True(t, ok)
}

func TestSessions_Close(t *testing.T) {
	s, _ := newTestSessions(time.Minute, 10)

	s.open("a")
	s.open("b")
	s.close("a")
	s.close("unknown")

	assert.Equal(t, 1, s.len())
	_, ok := s.find("a")
	assert.False(t, ok)

	// a closed document starts over
	id, _ := s.open("a")
	assert.Equal(t, "a", id)
	assert.Equal(t, 2, s.len())
}

func TestServer_SessionLimits(t *testing.T) {
	factory := convert.NewFactory(registry.Default(), locate.DefaultConfig())
	server := NewServer(factory, &mock{rates: domain.Rates{"USD": 1, "EUR": 0.5}}, domain.DefaultPreferences(), log.NewNopLogger(),
		WithSessionLimits(time.Hour, 100))

	for i := 0; i < 1000; i++ {
		scan(t, server, fmt.Sprintf(`{"documentId": "doc-%d", "spans": [{"id": "a", "text": "$10"}]}`, i))
	}
	assert.Equal(t, 100, server.sessions.len())

	w := serve(server, "GET", "/api/count?documentId=doc-0", "")
	assert.Equal(t, `{"count":0}`, strings.TrimSpace(w.Body.String()))
	w = serve(server, "GET", "/api/count?documentId=doc-999", "")
	assert.Equal(t, `{"count":1}`, strings.TrimSpace(w.Body.String()))
}

func TestServer_DefaultSessionLimits(t *testing.T) {
	server := newServer(&mock{})

	assert.Equal(t, DefaultSessionTTL, server.sessions.ttl)
	assert.Equal(t, DefaultMaxSessions, server.sessions.max)
}
