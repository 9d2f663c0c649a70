package http

import (
	"container/list"
	"go-price-converter/convert"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL how long an untouched document keeps its conversions
	DefaultSessionTTL = 30 * time.Minute

	// DefaultMaxSessions open documents kept before the least recently used is dropped
	DefaultMaxSessions = 10000
)

// session the conversion state of one document. Requests for the same document are serialized.
type session struct {
	sync.Mutex
	service convert.Service

	// guarded by sessions.lock
	id      string
	used    time.Time
	element *list.Element
}

// sessions one convert.Service per document. Documents idle for longer than ttl are
// forgotten, and opening one more than max drops the least recently used.
type sessions struct {
	factory convert.Factory
	ttl     time.Duration
	max     int
	now     func() time.Time

	lock     sync.Mutex
	sessions map[string]*session
	// recent most recently used first
	recent *list.List
}

func newSessions(factory convert.Factory) *sessions {
	return &sessions{
		factory:  factory,
		ttl:      DefaultSessionTTL,
		max:      DefaultMaxSessions,
		now:      time.Now,
		sessions: map[string]*session{},
		recent:   list.New(),
	}
}

// open returns the session of a document, starting one when needed.
// A document without an id gets a fresh one.
func (s *sessions) open(id string) (string, *session) {
	if id == "" {
		id = uuid.NewString()
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.now()
	s.expire(now)

	sess, ok := s.sessions[id]
	if !ok {
		for s.max > 0 && len(s.sessions) >= s.max {
			s.remove(s.recent.Back().Value.(*session))
		}
		sess = &session{service: s.factory(), id: id}
		sess.element = s.recent.PushFront(sess)
		s.sessions[id] = sess
	}
	s.touch(sess, now)
	return id, sess
}

// find returns the session of a known document that has not expired
func (s *sessions) find(id string) (*session, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.now()
	s.expire(now)

	sess, ok := s.sessions[id]
	if ok {
		s.touch(sess, now)
	}
	return sess, ok
}

// close forgets a document
func (s *sessions) close(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if sess, ok := s.sessions[id]; ok {
		s.remove(sess)
	}
}

// len number of open documents
func (s *sessions) len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sessions)
}

func (s *sessions) touch(sess *session, now time.Time) {
	sess.used = now
	s.recent.MoveToFront(sess.element)
}

// expire drops the sessions idle for longer than ttl, oldest first
func (s *sessions) expire(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for e := s.recent.Back(); e != nil; e = s.recent.Back() {
		sess := e.Value.(*session)
		if now.Sub(sess.used) <= s.ttl {
			return
		}
		s.remove(sess)
	}
}

func (s *sessions) remove(sess *session) {
	s.recent.Remove(sess.element)
	delete(s.sessions, sess.id)
}
