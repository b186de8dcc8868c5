package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	hostUser  = Identity{ID: "u-host", DisplayName: "Hana"}
	aliceUser = Identity{ID: "u-alice", DisplayName: "Alice"}
	bobUser   = Identity{ID: "u-bob", DisplayName: "Bob"}
	carlUser  = Identity{ID: "u-carl", DisplayName: "Carl"}
)

type publishedEvent struct {
	Code    string
	Event   string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(code, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Code: code, Event: event, Payload: payload})
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, evt := range p.events {
		names = append(names, evt.Event)
	}
	return names
}

func (p *recordingPublisher) last(event string) (publishedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Event == event {
			return p.events[i], true
		}
	}
	return publishedEvent{}, false
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *recordingRecorder) recorder() Recorder {
	return RecorderFunc(func(rec Record) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.records = append(r.records, rec)
	})
}

func (r *recordingRecorder) all() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

func (r *recordingRecorder) count(match func(Record) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if match(rec) {
			n++
		}
	}
	return n
}

type mockQuestions struct {
	mock.Mock
}

func (m *mockQuestions) Draw(ctx context.Context, count int, category string) ([]string, error) {
	args := m.Called(ctx, count, category)
	prompts, _ := args.Get(0).([]string)
	return prompts, args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func staticQuestions(prompts ...string) QuestionSource {
	return QuestionSourceFunc(func(ctx context.Context, count int, category string) ([]string, error) {
		return prompts, nil
	})
}

func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	if opts.Questions == nil {
		opts.Questions = staticQuestions("Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7", "Q8", "Q9", "Q10")
	}
	return NewRegistry(opts)
}

func mustCreate(t *testing.T, reg *Registry, capacity, rounds int) *Session {
	t.Helper()
	session, err := reg.Create(hostUser, capacity, rounds)
	require.NoError(t, err)
	return session
}

func mustJoin(t *testing.T, session *Session, users ...Identity) {
	t.Helper()
	for _, user := range users {
		_, err := session.Join(user)
		require.NoError(t, err)
	}
}

// startedSession returns an ACTIVE room with the given guests and round 1 open.
func startedSession(t *testing.T, reg *Registry, rounds int, guests ...Identity) (*Session, Round) {
	t.Helper()
	session := mustCreate(t, reg, 8, rounds)
	mustJoin(t, session, guests...)
	round, err := session.StartGame(context.Background(), hostUser.ID)
	require.NoError(t, err)
	return session, round
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

func isErrKind(err error, target *Error) bool {
	return errors.Is(err, target)
}
