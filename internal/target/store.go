package target

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"insuralytics/internal/core"
)

// ChangeKind describes what moved the current-version pointer.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeSwitched ChangeKind = "switched"
	ChangeReset    ChangeKind = "reset"
)

// Change is delivered to subscribers after the store's state changed.
type Change struct {
	Kind       ChangeKind
	VersionID  string
	PreviousID string
}

// Version is a named, timestamped target table snapshot. It is never
// modified after creation.
type Version struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Initial   bool

	rows  []GoalRow
	table *Table
}

// Rows returns a copy of the version's rows in import order.
func (v *Version) Rows() []GoalRow {
	return append([]GoalRow(nil), v.rows...)
}

// Table returns the version's lookup table.
func (v *Version) Table() *Table {
	return v.table
}

// Option configures a Store.
type Option func(*Store)

// WithLabel sets the label embedded in tuned version names.
func WithLabel(label string) Option {
	return func(s *Store) {
		if label != "" {
			s.label = label
		}
	}
}

// WithIDFunc replaces the version id generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Store holds the target version history and the current-version pointer.
type Store struct {
	mu        sync.RWMutex
	label     string
	newID     func() string
	versions  map[string]*Version
	order     []string
	initialID string
	currentID string
	listeners []func(Change)
}

// NewStore synthesizes the initial version from rows and makes it current.
func NewStore(initialRows []GoalRow, createdAt time.Time, opts ...Option) *Store {
	s := &Store{
		label:    "tuned",
		newID:    uuid.NewString,
		versions: make(map[string]*Version),
	}
	for _, o := range opts {
		o(s)
	}
	v := s.newVersion("initial", initialRows, createdAt, true)
	s.insert(v)
	s.initialID = v.ID
	s.currentID = v.ID
	return s
}

func (s *Store) newVersion(label string, rows []GoalRow, ts time.Time, initial bool) *Version {
	rows = append([]GoalRow(nil), rows...)
	return &Version{
		ID:        s.newID(),
		Name:      fmt.Sprintf("%s-%s", label, ts.Format("20060102-150405")),
		CreatedAt: ts,
		Initial:   initial,
		rows:      rows,
		table:     NewTable(rows),
	}
}

func (s *Store) insert(v *Version) {
	s.versions[v.ID] = v
	s.order = append(s.order, v.ID)
}

// CreateTunedVersion adds a version built from rows and makes it current.
// Targets on dimensions other than business type are carried over from the
// initial version, since the goal CSV only covers business types.
func (s *Store) CreateTunedVersion(rows []GoalRow, timestamp time.Time) (string, error) {
	s.mu.Lock()
	all := make([]GoalRow, 0, len(rows))
	for _, r := range rows {
		if r.Dimension == core.DimBusinessType {
			all = append(all, r)
		}
	}
	for _, r := range s.versions[s.initialID].rows {
		if r.Dimension != core.DimBusinessType {
			all = append(all, r)
		}
	}
	v := s.newVersion(s.label, all, timestamp, false)
	if _, dup := s.versions[v.ID]; dup {
		s.mu.Unlock()
		return "", fmt.Errorf("create tuned version: duplicate id %q", v.ID)
	}
	s.insert(v)
	prev := s.currentID
	s.currentID = v.ID
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Change{Kind: ChangeCreated, VersionID: v.ID, PreviousID: prev})
	return v.ID, nil
}

// SwitchVersion moves the current pointer. Unknown ids leave it unchanged.
func (s *Store) SwitchVersion(id string) error {
	s.mu.Lock()
	if _, ok := s.versions[id]; !ok {
		s.mu.Unlock()
		return &core.NotFoundError{Kind: "target version", ID: id}
	}
	prev := s.currentID
	s.currentID = id
	listeners := s.listeners
	s.mu.Unlock()

	if prev != id {
		notify(listeners, Change{Kind: ChangeSwitched, VersionID: id, PreviousID: prev})
	}
	return nil
}

// Reset drops every tuned version and makes the initial version current.
func (s *Store) Reset() {
	s.mu.Lock()
	initial := s.versions[s.initialID]
	prev := s.currentID
	s.versions = map[string]*Version{initial.ID: initial}
	s.order = []string{initial.ID}
	s.currentID = initial.ID
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Change{Kind: ChangeReset, VersionID: initial.ID, PreviousID: prev})
}

// Subscribe registers fn to be called after every change.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// InitialVersion returns the baseline synthesized at creation.
func (s *Store) InitialVersion() *Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[s.initialID]
}

// CurrentVersion returns the active version.
func (s *Store) CurrentVersion() *Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[s.currentID]
}

// CurrentTable returns the active version's table.
func (s *Store) CurrentTable() *Table {
	return s.CurrentVersion().Table()
}

// Version looks up a version by id.
func (s *Store) Version(id string) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "target version", ID: id}
	}
	return v, nil
}

// Versions returns the history, oldest first.
func (s *Store) Versions() []*Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Version, len(s.order))
	for i, id := range s.order {
		out[i] = s.versions[id]
	}
	return out
}

// ExportCurrentVersionCSV serializes the current version in import format.
func (s *Store) ExportCurrentVersionCSV() (string, error) {
	return exportCSV(s.CurrentVersion())
}

// ExportVersionCSV serializes the version with the given id.
func (s *Store) ExportVersionCSV(id string) (string, error) {
	v, err := s.Version(id)
	if err != nil {
		return "", err
	}
	return exportCSV(v)
}

func exportCSV(v *Version) (string, error) {
	var buf bytes.Buffer
	if err := WriteGoalCSV(&buf, v.rows); err != nil {
		return "", fmt.Errorf("export version %s: %w", v.ID, err)
	}
	return buf.String(), nil
}

func notify(listeners []func(Change), c Change) {
	for _, fn := range listeners {
		fn(c)
	}
}
