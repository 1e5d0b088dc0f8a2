package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/metrics"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSuperseded is returned by a selection whose result was discarded
	// because a newer selection started before it finished.
	ErrSuperseded = errors.New("selection superseded by a newer one")
	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("session not found")
)

// matchFailedMessage is shown instead of the raw error when the oracle call fails
const matchFailedMessage = "No matches found due to an error."

// MatchRunner produces a ranked result set for one found item
type MatchRunner interface {
	Match(ctx context.Context, found models.FoundItemReport, lost []models.LostItemReport) ([]models.ScoredMatch, error)
}

// SessionState is a point-in-time view of a session for presentation
type SessionState struct {
	ID          string               `json:"id"`
	FoundItemID string               `json:"found_item_id,omitempty"`
	Loading     bool                 `json:"loading"`
	Matches     []models.ScoredMatch `json:"matches"`
	Dismissed   []string             `json:"dismissed"`
	Error       string               `json:"error,omitempty"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// requestToken identifies one selection. A result is applied only if the
// session still carries the same token when it arrives.
type requestToken struct {
	foundItemID string
	id          string
}

// Session holds the ranked matches and dismissals for the found item a
// user is currently looking at.
type Session struct {
	id     string
	runner MatchRunner
	logger *zap.Logger

	mu           sync.Mutex
	current      requestToken
	cancel       context.CancelFunc
	loading      bool
	ranked       []models.ScoredMatch
	dismissed    map[string]struct{}
	dismissOrder []string
	err          error
	updatedAt    time.Time
	lastAccess   time.Time
}

// NewSession creates an empty session
func NewSession(id string, runner MatchRunner, logger *zap.Logger) *Session {
	now := time.Now()
	return &Session{
		id:         id,
		runner:     runner,
		logger:     logger.With(zap.String("session_id", id)),
		dismissed:  make(map[string]struct{}),
		updatedAt:  now,
		lastAccess: now,
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Select makes found the current selection and blocks until its matches
// are ranked. Any in-flight selection is cancelled and its result dropped.
// Returns ErrSuperseded if another Select replaced this one first.
func (s *Session) Select(ctx context.Context, found models.FoundItemReport, universe []models.LostItemReport) error {
	runCtx, token := s.begin(ctx, found.ID)
	return s.run(runCtx, token, found, universe)
}

// SelectAsync is Select without blocking. The session is already marked as
// loading when it returns; the channel yields the outcome once.
func (s *Session) SelectAsync(found models.FoundItemReport, universe []models.LostItemReport) <-chan error {
	runCtx, token := s.begin(context.Background(), found.ID)

	done := make(chan error, 1)
	go func() {
		done <- s.run(runCtx, token, found, universe)
	}()
	return done
}

func (s *Session) begin(parent context.Context, foundItemID string) (context.Context, requestToken) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	token := requestToken{foundItemID: foundItemID, id: uuid.NewString()}
	s.current = token
	s.cancel = cancel
	s.loading = true
	s.ranked = nil
	s.err = nil
	s.dismissed = make(map[string]struct{})
	s.dismissOrder = nil
	s.touch()

	return ctx, token
}

func (s *Session) run(ctx context.Context, token requestToken, found models.FoundItemReport, universe []models.LostItemReport) error {
	ranked, err := s.runner.Match(WithSessionID(ctx, s.id), found, universe)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != token {
		metrics.StaleResultsTotal.Inc()
		s.logger.Debug("Discarding stale match result",
			zap.String("found_item_id", token.foundItemID),
			zap.String("current_found_item_id", s.current.foundItemID))
		return ErrSuperseded
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
	s.touch()

	if err != nil {
		s.ranked = nil
		s.err = err
		return err
	}

	s.ranked = ranked
	return nil
}

// Dismiss hides lostItemID from the visible projection. The ranked list
// itself is unchanged.
func (s *Session) Dismiss(lostItemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	if _, ok := s.dismissed[lostItemID]; ok {
		return
	}
	s.dismissed[lostItemID] = struct{}{}
	s.dismissOrder = append(s.dismissOrder, lostItemID)
}

// Visible returns the ranked matches minus dismissed ones, in rank order
func (s *Session) Visible() []models.ScoredMatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.visibleLocked()
}

func (s *Session) visibleLocked() []models.ScoredMatch {
	visible := make([]models.ScoredMatch, 0, len(s.ranked))
	for _, m := range s.ranked {
		if _, hidden := s.dismissed[m.ID]; hidden {
			continue
		}
		visible = append(visible, m)
	}
	return visible
}

// Ranked returns the full ranked list, dismissed entries included
func (s *Session) Ranked() []models.ScoredMatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ScoredMatch, len(s.ranked))
	copy(out, s.ranked)
	return out
}

// FoundItemID returns the currently selected found item, if any
func (s *Session) FoundItemID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current.foundItemID
}

// Snapshot returns the presentation view of the session
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()

	state := SessionState{
		ID:          s.id,
		FoundItemID: s.current.foundItemID,
		Loading:     s.loading,
		Matches:     s.visibleLocked(),
		Dismissed:   append([]string{}, s.dismissOrder...),
		UpdatedAt:   s.updatedAt,
	}
	if s.err != nil {
		state.Error = errorMessage(s.err)
	}
	return state
}

// Err returns the failure of the current selection, if any
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Close cancels any in-flight selection
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) touch() {
	now := time.Now()
	s.updatedAt = now
	s.lastAccess = now
}

func (s *Session) idle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.loading && now.Sub(s.lastAccess) > ttl
}

// errorMessage turns a selection failure into text for the user. Missing
// configuration is reported as is so operators can fix it.
func errorMessage(err error) string {
	if errors.Is(err, llm.ErrOracleUnavailable) {
		return err.Error()
	}
	return matchFailedMessage
}

// SessionManager owns the live sessions and expires idle ones
type SessionManager struct {
	runner MatchRunner
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a session manager. A zero ttl disables expiry.
func NewSessionManager(runner MatchRunner, ttl time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		runner:   runner,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session
func (m *SessionManager) Create() *Session {
	session := NewSession(uuid.NewString(), m.runner, m.logger)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	m.logger.Debug("Session created", zap.String("session_id", session.ID()))

	return session
}

// Get looks up a session by id
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove closes and forgets a session
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if ok {
		session.Close()
	}
	metrics.ActiveSessions.Set(float64(count))
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the ttl and returns how many
// were removed. Sessions with a selection in flight are kept.
func (m *SessionManager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	var expired []*Session
	for id, session := range m.sessions {
		if session.idle(now, m.ttl) {
			expired = append(expired, session)
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	metrics.ActiveSessions.Set(float64(count))

	if len(expired) > 0 {
		m.logger.Info("Expired idle sessions",
			zap.Int("expired", len(expired)),
			zap.Int("active", count))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done, then closes every session
func (m *SessionManager) Run(ctx context.Context) {
	if m.ttl > 0 {
		ticker := time.NewTicker(m.ttl / 2)
		defer ticker.Stop()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case now := <-ticker.C:
				m.Sweep(now)
			}
		}
	} else {
		<-ctx.Done()
	}

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	metrics.ActiveSessions.Set(0)
}
