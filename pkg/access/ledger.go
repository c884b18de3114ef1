package access

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	borrowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_borrows_total",
		Help: "Total number of access tokens granted by mode",
	}, []string{"mode"})

	conflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_conflicts_total",
		Help: "Total number of refused access token acquisitions by requested mode",
	}, []string{"mode"})
)

// ErrAliasing is wrapped by every conflict returned from Acquire.
var ErrAliasing = errors.New("aliasing violation")

// ID identifies a guarded component.
type ID int

// Mode is the kind of borrow held on a component.
type Mode int

const (
	// Shared is a read-only borrow; any number may coexist.
	Shared Mode = iota + 1

	// Exclusive is a read-write borrow; it excludes every other borrow.
	Exclusive
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return "none"
	}
}

// ConflictError describes a refused acquisition.
type ConflictError struct {
	Component ID
	Requested Mode
	Held      Mode
	Name      string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("#%d", e.Component)
	}
	return fmt.Sprintf("%s: component %s requested %s while held %s",
		ErrAliasing, name, e.Requested, e.Held)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConflictError) Unwrap() error {
	return ErrAliasing
}

// state: -1 exclusive, 0 free, n>0 shared count.
type state int

// Ledger tracks live borrows. The zero value is ready to use.
type Ledger struct {
	mu     sync.Mutex
	held   map[ID]state
	names  map[ID]string
	logger zerolog.Logger
}

// NewLedger creates a ledger that logs conflicts to logger.
func NewLedger(logger zerolog.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// Name attaches a human-readable name to a component for error messages.
func (l *Ledger) Name(id ID, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.names == nil {
		l.names = make(map[ID]string)
	}
	l.names[id] = name
}

// Acquire borrows reads shared and writes exclusively. A component listed in
// both is borrowed exclusively. Either every borrow is granted or none is.
func (l *Ledger) Acquire(reads, writes []ID) (*Token, error) {
	want := make(map[ID]Mode, len(reads)+len(writes))
	for _, id := range reads {
		want[id] = Shared
	}
	for _, id := range writes {
		want[id] = Exclusive
	}

	ids := make([]ID, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held == nil {
		l.held = make(map[ID]state)
	}

	for _, id := range ids {
		if held := l.held[id]; conflicts(held, want[id]) {
			err := &ConflictError{
				Component: id,
				Requested: want[id],
				Held:      held.mode(),
				Name:      l.names[id],
			}
			conflictsTotal.WithLabelValues(want[id].String()).Inc()
			l.logger.Warn().
				Err(err).
				Int("component", int(id)).
				Msg("Access token refused")
			return nil, err
		}
	}

	exclusive := false
	for _, id := range ids {
		if want[id] == Exclusive {
			l.held[id] = -1
			exclusive = true
		} else {
			l.held[id]++
		}
	}

	tok := &Token{ledger: l, ids: ids, modes: want, exclusive: exclusive}
	if exclusive {
		borrowsTotal.WithLabelValues(Exclusive.String()).Inc()
	} else {
		borrowsTotal.WithLabelValues(Shared.String()).Inc()
	}
	return tok, nil
}

// Held reports the current borrow mode of a component.
func (l *Ledger) Held(id ID) (Mode, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.held[id]
	if s < 0 {
		return Exclusive, 1
	}
	return s.mode(), int(s)
}

func (l *Ledger) release(t *Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range t.ids {
		if t.modes[id] == Exclusive {
			delete(l.held, id)
			continue
		}
		l.held[id]--
		if l.held[id] <= 0 {
			delete(l.held, id)
		}
	}
}

func conflicts(held state, want Mode) bool {
	switch {
	case held < 0:
		return true
	case held > 0:
		return want == Exclusive
	default:
		return false
	}
}

func (s state) mode() Mode {
	switch {
	case s < 0:
		return Exclusive
	case s > 0:
		return Shared
	default:
		return 0
	}
}

// Token is a live borrow. It must not be copied; pass *Token.
type Token struct {
	ledger    *Ledger
	ids       []ID
	modes     map[ID]Mode
	exclusive bool
	released  atomic.Bool
}

// Exclusive reports whether the token holds at least one write borrow.
func (t *Token) Exclusive() bool {
	return t.exclusive
}

// Mode returns the borrow held on a component, or 0 if none.
func (t *Token) Mode(id ID) Mode {
	return t.modes[id]
}

// Released reports whether Release has been called.
func (t *Token) Released() bool {
	return t.released.Load()
}

// Release returns the borrows to the ledger. Calling it more than once is a
// no-op.
func (t *Token) Release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	t.ledger.release(t)
}
