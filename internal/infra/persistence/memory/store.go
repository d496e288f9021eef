// Package memory implements the in-memory workspace store. Mutations run
// inside transactions against a deep copy of the state; a transaction either
// commits fully, replacing the root state, or leaves the prior state
// untouched. Readers always receive clones, so references handed out before
// a commit remain valid historical views.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sessioncore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type workspaceState struct {
	animals   map[string]domain.Animal
	days      map[string]domain.Day
	snapshots map[string]domain.ConfigurationSnapshot
}

func newWorkspaceState() workspaceState {
	return workspaceState{
		animals:   make(map[string]domain.Animal),
		days:      make(map[string]domain.Day),
		snapshots: make(map[string]domain.ConfigurationSnapshot),
	}
}

func (s workspaceState) clone() workspaceState {
	cloned := newWorkspaceState()
	for k, v := range s.animals {
		cloned.animals[k] = cloneAnimal(v)
	}
	for k, v := range s.days {
		cloned.days[k] = cloneDay(v)
	}
	for k, v := range s.snapshots {
		cloned.snapshots[k] = cloneSnapshot(v)
	}
	return cloned
}

func cloneDeviceSet(d domain.DeviceSet) domain.DeviceSet {
	cp := domain.DeviceSet{
		ElectrodeGroups: append([]domain.ElectrodeGroup(nil), d.ElectrodeGroups...),
		ChannelMaps:     make([]domain.NtrodeChannelMap, 0, len(d.ChannelMaps)),
	}
	for _, m := range d.ChannelMaps {
		mc := m
		mc.Map = append([]int(nil), m.Map...)
		mc.BadChannels = append([]int(nil), m.BadChannels...)
		cp.ChannelMaps = append(cp.ChannelMaps, mc)
	}
	return cp
}

func cloneAnimal(a domain.Animal) domain.Animal {
	cp := a
	cp.Attribution.Experimenters = append([]string(nil), a.Attribution.Experimenters...)
	cp.Devices = cloneDeviceSet(a.Devices)
	cp.Cameras = append([]domain.Camera(nil), a.Cameras...)
	cp.DataAcqDevices = append([]domain.DataAcqDevice(nil), a.DataAcqDevices...)
	cp.BehavioralEvents = append([]domain.BehavioralEvent(nil), a.BehavioralEvents...)
	cp.DayIDs = append([]string(nil), a.DayIDs...)
	return cp
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return nil
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		tc := t
		tc.CameraIDs = append([]int(nil), t.CameraIDs...)
		tc.Epochs = append([]int(nil), t.Epochs...)
		out = append(out, tc)
	}
	return out
}

func cloneDay(d domain.Day) domain.Day {
	cp := d
	cp.Tasks = cloneTasks(d.Tasks)
	if d.BadChannelOverrides != nil {
		cp.BadChannelOverrides = make(map[int][]int, len(d.BadChannelOverrides))
		for g, chans := range d.BadChannelOverrides {
			cp.BadChannelOverrides[g] = append([]int(nil), chans...)
		}
	}
	return cp
}

func cloneSnapshot(s domain.ConfigurationSnapshot) domain.ConfigurationSnapshot {
	cp := s
	cp.Devices = cloneDeviceSet(s.Devices)
	return cp
}

// Store provides the in-memory transactional workspace store.
type Store struct {
	mu    sync.RWMutex
	state workspaceState
	nowFn func() time.Time
	idFn  func() string
}

// NewStore constructs an empty in-memory workspace store.
func NewStore() *Store {
	return &Store{
		state: newWorkspaceState(),
		nowFn: func() time.Time { return time.Now().UTC() },
		idFn:  uuid.NewString,
	}
}

// Transaction applies a mutation set against a copy of the store state.
type Transaction struct {
	store *Store
	state workspaceState
	now   time.Time
}

// view is the read-only snapshot handed to View callers and Transaction.Snapshot.
type view struct {
	state *workspaceState
}

// ListAnimals returns all animals in the snapshot, ordered by ID.
func (v view) ListAnimals() []domain.Animal {
	out := make([]domain.Animal, 0, len(v.state.animals))
	for _, a := range v.state.animals {
		out = append(out, cloneAnimal(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListDays returns all days in the snapshot, ordered by ID.
func (v view) ListDays() []domain.Day {
	out := make([]domain.Day, 0, len(v.state.days))
	for _, d := range v.state.days {
		out = append(out, cloneDay(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListSnapshots returns all configuration snapshots, newest last.
func (v view) ListSnapshots() []domain.ConfigurationSnapshot {
	out := make([]domain.ConfigurationSnapshot, 0, len(v.state.snapshots))
	for _, s := range v.state.snapshots {
		out = append(out, cloneSnapshot(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FindAnimal retrieves an animal by ID from the snapshot.
func (v view) FindAnimal(id string) (domain.Animal, bool) {
	a, ok := v.state.animals[id]
	if !ok {
		return domain.Animal{}, false
	}
	return cloneAnimal(a), true
}

// FindDay retrieves a day by ID from the snapshot.
func (v view) FindDay(id string) (domain.Day, bool) {
	d, ok := v.state.days[id]
	if !ok {
		return domain.Day{}, false
	}
	return cloneDay(d), true
}

// FindSnapshot retrieves a configuration snapshot by ID.
func (v view) FindSnapshot(id string) (domain.ConfigurationSnapshot, bool) {
	s, ok := v.state.snapshots[id]
	if !ok {
		return domain.ConfigurationSnapshot{}, false
	}
	return cloneSnapshot(s), true
}

// RunInTransaction executes fn within a transactional copy of the store
// state, committing only when fn returns nil.
func (s *Store) RunInTransaction(_ context.Context, fn func(domain.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

// Snapshot exposes a read-only view of the transactional state.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return view{state: &tx.state}
}

// CreateAnimal stores a new animal template.
func (tx *Transaction) CreateAnimal(a domain.Animal) (domain.Animal, error) {
	if a.ID == "" {
		a.ID = tx.store.idFn()
	}
	if _, exists := tx.state.animals[a.ID]; exists {
		return domain.Animal{}, fmt.Errorf("animal %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.animals[a.ID] = cloneAnimal(a)
	return cloneAnimal(a), nil
}

// UpdateAnimal mutates an animal using the provided mutator function.
func (tx *Transaction) UpdateAnimal(id string, mutator func(*domain.Animal) error) (domain.Animal, error) {
	current, ok := tx.state.animals[id]
	if !ok {
		return domain.Animal{}, domain.UnknownAnimalError{ID: id}
	}
	working := cloneAnimal(current)
	if err := mutator(&working); err != nil {
		return domain.Animal{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	tx.state.animals[id] = cloneAnimal(working)
	return working, nil
}

// DeleteAnimal removes an animal template. Animals still referenced by days
// cannot be deleted.
func (tx *Transaction) DeleteAnimal(id string) error {
	current, ok := tx.state.animals[id]
	if !ok {
		return domain.UnknownAnimalError{ID: id}
	}
	refs := 0
	for _, d := range tx.state.days {
		if d.AnimalID == id {
			refs++
		}
	}
	if refs > 0 {
		return domain.AnimalReferencedError{ID: id, DayRefs: refs}
	}
	delete(tx.state.animals, current.ID)
	return nil
}

// CreateDay stores a new recording day under an existing animal. The session
// ID is derived from the animal ID and date when the caller does not supply
// one, and the animal's current device configuration is captured as the
// day's configuration snapshot unless a snapshot reference is provided.
func (tx *Transaction) CreateDay(d domain.Day) (domain.Day, error) {
	animal, ok := tx.state.animals[d.AnimalID]
	if !ok {
		return domain.Day{}, domain.UnknownAnimalError{ID: d.AnimalID}
	}
	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return domain.Day{}, fmt.Errorf("day date %q: want YYYY-MM-DD: %w", d.Date, err)
	}
	if d.ID == "" {
		d.ID = tx.store.idFn()
	}
	if _, exists := tx.state.days[d.ID]; exists {
		return domain.Day{}, fmt.Errorf("day %q already exists", d.ID)
	}
	if d.Session.SessionID == "" {
		d.Session.SessionID = DeriveSessionID(animal.Subject.SubjectID, d.Date)
	}
	if d.State == "" {
		d.State = domain.DayStateDraft
	}
	if d.SnapshotID == "" {
		snap, err := tx.AddConfigurationSnapshot(d.AnimalID)
		if err != nil {
			return domain.Day{}, err
		}
		d.SnapshotID = snap.ID
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.days[d.ID] = cloneDay(d)

	animal.DayIDs = append(append([]string(nil), animal.DayIDs...), d.ID)
	animal.UpdatedAt = tx.now
	tx.state.animals[animal.ID] = animal
	return cloneDay(d), nil
}

// UpdateDay mutates a day using the provided mutator function. The owning
// animal reference is immutable.
func (tx *Transaction) UpdateDay(id string, mutator func(*domain.Day) error) (domain.Day, error) {
	current, ok := tx.state.days[id]
	if !ok {
		return domain.Day{}, domain.UnknownDayError{ID: id}
	}
	working := cloneDay(current)
	if err := mutator(&working); err != nil {
		return domain.Day{}, err
	}
	working.ID = id
	working.AnimalID = current.AnimalID
	working.UpdatedAt = tx.now
	tx.state.days[id] = cloneDay(working)
	return working, nil
}

// DeleteDay removes a day and unlinks it from its animal.
func (tx *Transaction) DeleteDay(id string) error {
	current, ok := tx.state.days[id]
	if !ok {
		return domain.UnknownDayError{ID: id}
	}
	delete(tx.state.days, id)
	if animal, ok := tx.state.animals[current.AnimalID]; ok {
		kept := animal.DayIDs[:0:0]
		for _, dayID := range animal.DayIDs {
			if dayID != id {
				kept = append(kept, dayID)
			}
		}
		animal.DayIDs = kept
		animal.UpdatedAt = tx.now
		tx.state.animals[animal.ID] = animal
	}
	return nil
}

// DeleteElectrodeGroup removes an electrode group from an animal and
// cascades to every channel map whose electrode group reference matches,
// keeping the two loosely coupled lists referentially intact.
func (tx *Transaction) DeleteElectrodeGroup(animalID string, groupID int) (domain.Animal, error) {
	current, ok := tx.state.animals[animalID]
	if !ok {
		return domain.Animal{}, domain.UnknownAnimalError{ID: animalID}
	}
	working := cloneAnimal(current)

	groups := working.Devices.ElectrodeGroups[:0:0]
	found := false
	for _, g := range working.Devices.ElectrodeGroups {
		if g.ID == groupID {
			found = true
			continue
		}
		groups = append(groups, g)
	}
	if !found {
		return domain.Animal{}, fmt.Errorf("electrode group %d not found in animal %q", groupID, animalID)
	}
	maps := working.Devices.ChannelMaps[:0:0]
	for _, m := range working.Devices.ChannelMaps {
		if m.ElectrodeGroupID != groupID {
			maps = append(maps, m)
		}
	}
	working.Devices.ElectrodeGroups = groups
	working.Devices.ChannelMaps = maps
	working.UpdatedAt = tx.now
	tx.state.animals[animalID] = cloneAnimal(working)
	return working, nil
}

// AddConfigurationSnapshot captures the animal's current device
// configuration as an immutable snapshot record.
func (tx *Transaction) AddConfigurationSnapshot(animalID string) (domain.ConfigurationSnapshot, error) {
	animal, ok := tx.state.animals[animalID]
	if !ok {
		return domain.ConfigurationSnapshot{}, domain.UnknownAnimalError{ID: animalID}
	}
	snap := domain.ConfigurationSnapshot{
		Base: domain.Base{
			ID:        tx.store.idFn(),
			CreatedAt: tx.now,
			UpdatedAt: tx.now,
		},
		AnimalID: animal.ID,
		Devices:  cloneDeviceSet(animal.Devices),
	}
	tx.state.snapshots[snap.ID] = cloneSnapshot(snap)
	return snap, nil
}

// FindAnimal retrieves an animal by ID from the transaction state.
func (tx *Transaction) FindAnimal(id string) (domain.Animal, bool) {
	a, ok := tx.state.animals[id]
	if !ok {
		return domain.Animal{}, false
	}
	return cloneAnimal(a), true
}

// FindDay retrieves a day by ID from the transaction state.
func (tx *Transaction) FindDay(id string) (domain.Day, bool) {
	d, ok := tx.state.days[id]
	if !ok {
		return domain.Day{}, false
	}
	return cloneDay(d), true
}

// DeriveSessionID builds the default session identifier for a day from the
// animal's subject and date, e.g. "remy_20230622".
func DeriveSessionID(animalID, date string) string {
	return animalID + "_" + strings.ReplaceAll(date, "-", "")
}

// Read helpers ---------------------------------------------------------------

// GetAnimal retrieves an animal by ID from committed state.
func (s *Store) GetAnimal(id string) (domain.Animal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.animals[id]
	if !ok {
		return domain.Animal{}, false
	}
	return cloneAnimal(a), true
}

// ListAnimals returns all animals from committed state, ordered by ID.
func (s *Store) ListAnimals() []domain.Animal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListAnimals()
}

// GetDay retrieves a day by ID from committed state.
func (s *Store) GetDay(id string) (domain.Day, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.days[id]
	if !ok {
		return domain.Day{}, false
	}
	return cloneDay(d), true
}

// ListDays returns all days from committed state, ordered by ID.
func (s *Store) ListDays() []domain.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListDays()
}

// ListSnapshots returns all configuration snapshots in creation order.
func (s *Store) ListSnapshots() []domain.ConfigurationSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListSnapshots()
}

// SetClock overrides the transaction timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.nowFn = now
	}
}

// SetIDSource overrides the record ID generator. Intended for tests.
func (s *Store) SetIDSource(id func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != nil {
		s.idFn = id
	}
}
