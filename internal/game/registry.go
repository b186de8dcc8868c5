package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const maxCodeAttempts = 64

type Options struct {
	Publisher       Publisher
	Recorder        Recorder
	Questions       QuestionSource
	Category        string
	AnswerDuration  time.Duration
	VoteDuration    time.Duration
	QuestionTimeout time.Duration
	CodeLength      int
	AutoAdvance     bool
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Publisher == nil {
		o.Publisher = nopPublisher{}
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.AnswerDuration <= 0 {
		o.AnswerDuration = 60 * time.Second
	}
	if o.VoteDuration <= 0 {
		o.VoteDuration = 45 * time.Second
	}
	if o.CodeLength < 6 || o.CodeLength > 10 {
		o.CodeLength = 6
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// Registry maps room codes to live sessions.
type Registry struct {
	mu       sync.Mutex
	opts     *Options
	sessions map[string]*Session
	newCode  func(length int) (string, error)
}

func NewRegistry(opts Options) *Registry {
	resolved := opts.withDefaults()
	return &Registry{
		opts:     &resolved,
		sessions: make(map[string]*Session),
		newCode:  newRoomCode,
	}
}

// Create opens a WAITING room with host as its first participant. Code
// generation and insertion happen under one lock, so two creators can never
// receive the same code.
func (r *Registry) Create(host Identity, capacity, rounds int) (*Session, error) {
	if strings.TrimSpace(host.ID) == "" {
		return nil, newError(KindValidation, "host id is required")
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, newError(KindValidation, "max_players must be between %d and %d", MinCapacity, MaxCapacity)
	}
	if rounds < MinRounds || rounds > MaxRounds {
		return nil, newError(KindValidation, "rounds must be between %d and %d", MinRounds, MaxRounds)
	}

	r.mu.Lock()
	code, err := r.reserveCodeLocked()
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	session := newSession(code, host, capacity, rounds, r.opts)
	r.sessions[code] = session
	r.mu.Unlock()

	_ = session.apply(func(fx *effects) error {
		fx.record(session.roomRecordLocked())
		fx.record(MemberRecord{Code: code, UserID: host.ID, DisplayName: host.DisplayName, Present: true, At: session.createdAt})
		return nil
	})

	log.Info().Str("module", "game.registry").Str("room_code", code).Str("host_id", host.ID).
		Int("max_players", capacity).Int("rounds", rounds).Msg("room created")
	return session, nil
}

func (r *Registry) reserveCodeLocked() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := r.newCode(r.opts.CodeLength)
		if err != nil {
			return "", err
		}
		if _, taken := r.sessions[code]; !taken {
			return code, nil
		}
	}
	return "", newError(KindConflict, "could not allocate a room code")
}

func (r *Registry) Lookup(code string) (*Session, error) {
	normalized := NormalizeCode(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[normalized]
	if !ok {
		return nil, newError(KindNotFound, "room with code %s not found", normalized)
	}
	return session, nil
}

// Remove drops the room and everything it owns. It reports whether a room
// was removed.
func (r *Registry) Remove(code string) bool {
	normalized := NormalizeCode(code)
	r.mu.Lock()
	session, ok := r.sessions[normalized]
	if ok {
		delete(r.sessions, normalized)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	session.close()
	log.Info().Str("module", "game.registry").Str("room_code", normalized).Msg("room removed")
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// List returns a summary of every live room, newest first.
func (r *Registry) List() []Summary {
	sessions := r.snapshot()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].createdAt.Equal(sessions[j].createdAt) {
			return sessions[i].code < sessions[j].code
		}
		return sessions[i].createdAt.After(sessions[j].createdAt)
	})
	summaries := make([]Summary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summary())
	}
	return summaries
}

// Sweep removes rooms that have been terminal for at least grace and
// returns their codes.
func (r *Registry) Sweep(grace time.Duration) []string {
	now := r.opts.Now()
	removed := make([]string, 0)
	for _, session := range r.snapshot() {
		if !session.expired(now, grace) {
			continue
		}
		r.mu.Lock()
		current, ok := r.sessions[session.code]
		if ok && current == session {
			delete(r.sessions, session.code)
			removed = append(removed, session.code)
		}
		r.mu.Unlock()
		if ok && current == session {
			session.close()
		}
	}
	if len(removed) > 0 {
		log.Info().Str("module", "game.registry").Strs("room_codes", removed).Msg("swept terminal rooms")
	}
	return removed
}
