package journal

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/domain/models"
	"github.com/mamadbah2/hivelog/internal/store"
)

// ErrApiaryNotFound indicates the referenced apiary does not exist.
var ErrApiaryNotFound = errors.New("apiary not found")

// ErrHiveNotFound indicates the referenced hive does not exist in the apiary.
var ErrHiveNotFound = errors.New("hive not found")

// ErrEmptyProduction indicates a production record without any harvest data.
var ErrEmptyProduction = errors.New("production record needs at least one harvest")

// ErrInvalidTransfer indicates a malformed transfer request.
var ErrInvalidTransfer = errors.New("invalid transfer request")

// ErrInvalidSeasonalNote indicates a seasonal note with a bad type or year.
var ErrInvalidSeasonalNote = errors.New("invalid seasonal note")

// Store is the subset of the local persisted store the service needs.
type Store interface {
	Get(key string, out any) (bool, error)
	Put(key string, value any) error
}

// Notifier receives a signal after every local mutation so the cloud sync
// can be scheduled.
type Notifier interface {
	Notify()
}

// Selection is the currently focused apiary/hive pair, always re-derived
// from the canonical collection so detail views never diverge from it.
type Selection struct {
	Apiary *models.Apiary
	Hive   *models.Hive
}

// Service owns the in-memory journal snapshot. Every mutation rebuilds the
// ancestor chain from the leaf change upward and replaces whole subtrees;
// nothing reachable from a previously returned Snapshot is mutated in place.
type Service struct {
	mu               sync.Mutex
	snap             models.Snapshot
	selectedApiaryID string
	selectedHiveID   string

	store    Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs the journal service.
func NewService(st Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// SetNotifier wires the sync scheduler once both sides exist.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Load restores the snapshot from the local store, falling back to the
// empty state for keys that were never written.
func (s *Service) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap models.Snapshot
	if _, err := s.store.Get(store.KeyApiaries, &snap.Apiaries); err != nil {
		return err
	}
	if _, err := s.store.Get(store.KeyEvents, &snap.Events); err != nil {
		return err
	}
	if _, err := s.store.Get(store.KeyLocation, &snap.Location); err != nil {
		return err
	}
	if _, err := s.store.Get(store.KeySeasonalNotes, &snap.SeasonalNotes); err != nil {
		return err
	}

	s.snap = snap
	s.logger.Info("journal loaded from local store",
		zap.Int("apiaries", len(snap.Apiaries)),
		zap.Int("events", len(snap.Events)),
		zap.Int("seasonal_notes", len(snap.SeasonalNotes)))
	return nil
}

// Snapshot returns the current state. The returned value shares slices with
// the live snapshot; the replace-whole-subtree discipline keeps them stable.
func (s *Service) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// ReplaceAll swaps in a snapshot pulled from the cloud, replacing all local
// domain state. A cloud load is not a user edit, so no sync is scheduled.
func (s *Service) ReplaceAll(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap
	s.persist(store.KeyApiaries, store.KeyEvents, store.KeyLocation, store.KeySeasonalNotes)
}

// Clear drops all in-memory domain state on sign-out. The persisted local
// store keys are left in place until overwritten.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = models.Snapshot{}
	s.selectedApiaryID = ""
	s.selectedHiveID = ""
}

// Select records the focused apiary and hive ids.
func (s *Service) Select(apiaryID, hiveID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedApiaryID = apiaryID
	s.selectedHiveID = hiveID
}

// Selection re-derives the focused apiary/hive from the canonical tree.
// Entities deleted since the last Select come back nil.
func (s *Service) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sel Selection
	ai := indexOfApiary(s.snap.Apiaries, s.selectedApiaryID)
	if ai < 0 {
		return sel
	}
	apiary := s.snap.Apiaries[ai]
	sel.Apiary = &apiary

	hi := indexOfHive(apiary.Hives, s.selectedHiveID)
	if hi >= 0 {
		hive := apiary.Hives[hi]
		sel.Hive = &hive
	}
	return sel
}

// afterMutation persists the touched keys and schedules a cloud sync. It
// must be called with the lock held. Persist failures are logged rather than
// rolled back: the in-memory state already moved on and stays authoritative.
func (s *Service) afterMutation(keys ...string) {
	s.persist(keys...)
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func (s *Service) persist(keys ...string) {
	for _, key := range keys {
		var err error
		switch key {
		case store.KeyApiaries:
			err = s.store.Put(key, s.snap.Apiaries)
		case store.KeyEvents:
			err = s.store.Put(key, s.snap.Events)
		case store.KeyLocation:
			err = s.store.Put(key, s.snap.Location)
		case store.KeySeasonalNotes:
			err = s.store.Put(key, s.snap.SeasonalNotes)
		}
		if err != nil {
			s.logger.Error("failed to persist journal key", zap.String("key", key), zap.Error(err))
		}
	}
}

func indexOfApiary(list []models.Apiary, id string) int {
	if id == "" {
		return -1
	}
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfHive(list []models.Hive, id string) int {
	if id == "" {
		return -1
	}
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
