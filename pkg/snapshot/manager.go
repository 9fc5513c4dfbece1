package snapshot

import (
	"sync"
	"time"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/idgen"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/store"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
)

// Options configures a Manager
type Options struct {
	// IDGenerator defaults to idgen.Default
	IDGenerator idgen.Generator
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Manager opens sessions over a set of adapters and a store
type Manager struct {
	adapters *adapters.Set
	store    store.Store
	newID    idgen.Generator
	now      func() time.Time
	logger   zerolog.Logger

	mu   sync.Mutex
	open *Session
}

// NewManager creates a Manager
func NewManager(set *adapters.Set, st store.Store, opts Options) *Manager {
	m := &Manager{
		adapters: set,
		store:    st,
		newID:    opts.IDGenerator,
		now:      opts.Clock,
		logger:   logging.GetLogger("snapshot"),
	}
	if m.newID == nil {
		m.newID = idgen.Default
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// StartSession opens a new session. It fails with SESSION_OPEN while
// another session from this Manager is still open.
func (m *Manager) StartSession(description string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open != nil {
		return nil, errors.Newf(errors.ErrSessionOpen, "session %s is still open", m.open.ID()).
			WithDetail("description", m.open.Description())
	}

	s := newSession(m, &types.Snapshot{
		ID:          m.newID(),
		CreatedAt:   m.now(),
		Description: description,
		Entries:     []types.ChangeRecord{},
	})
	m.open = s

	m.logger.Info().
		Str("id", s.ID()).
		Str("description", description).
		Msg("Snapshot session started")
	return s, nil
}

func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == s {
		m.open = nil
	}
}
