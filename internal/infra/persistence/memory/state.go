package memory

import (
	"sort"

	"sessioncore/pkg/domain"
)

// Snapshot is a serializable copy of the full workspace state, used by
// durable backends to hydrate and persist the in-memory store.
type Snapshot struct {
	Animals         []domain.Animal                `json:"animals"`
	Days            []domain.Day                   `json:"days"`
	ConfigSnapshots []domain.ConfigurationSnapshot `json:"configuration_snapshots"`
}

// ExportState returns a deep copy of the committed state with deterministic
// ordering by record ID.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Snapshot{
		Animals:         make([]domain.Animal, 0, len(s.state.animals)),
		Days:            make([]domain.Day, 0, len(s.state.days)),
		ConfigSnapshots: make([]domain.ConfigurationSnapshot, 0, len(s.state.snapshots)),
	}
	for _, a := range s.state.animals {
		out.Animals = append(out.Animals, cloneAnimal(a))
	}
	for _, d := range s.state.days {
		out.Days = append(out.Days, cloneDay(d))
	}
	for _, snap := range s.state.snapshots {
		out.ConfigSnapshots = append(out.ConfigSnapshots, cloneSnapshot(snap))
	}
	sort.Slice(out.Animals, func(i, j int) bool { return out.Animals[i].ID < out.Animals[j].ID })
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].ID < out.Days[j].ID })
	sort.Slice(out.ConfigSnapshots, func(i, j int) bool { return out.ConfigSnapshots[i].ID < out.ConfigSnapshots[j].ID })
	return out
}

// ImportState replaces the committed state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := newWorkspaceState()
	for _, a := range snapshot.Animals {
		state.animals[a.ID] = cloneAnimal(a)
	}
	for _, d := range snapshot.Days {
		state.days[d.ID] = cloneDay(d)
	}
	for _, snap := range snapshot.ConfigSnapshots {
		state.snapshots[snap.ID] = cloneSnapshot(snap)
	}
	s.state = state
}
