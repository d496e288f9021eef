// Package channelmap generates and edits the logical-to-hardware channel
// assignments for electrode groups. The engine deliberately does not enforce
// uniqueness or completeness at assignment time: transient intermediate
// states, such as swapping two channels, must stay representable while a
// document is being edited. Those invariants are checked by the validation
// pipeline instead.
package channelmap

import (
	"fmt"
	"sort"

	"sessioncore/pkg/device"
	"sessioncore/pkg/domain"
)

// Engine derives channel maps from probe geometry.
type Engine struct {
	registry *device.Registry
}

// NewEngine constructs an engine backed by the given device registry.
func NewEngine(registry *device.Registry) *Engine {
	if registry == nil {
		registry = device.Builtin()
	}
	return &Engine{registry: registry}
}

// Registry exposes the registry the engine resolves device types against.
func (e *Engine) Registry() *device.Registry { return e.registry }

// Generate produces one channel map per shank of the device type, assigned
// to the given electrode group. Ntrode IDs continue monotonically from the
// highest ID present in existing; IDs are never reused. The initial map is
// the identity-like assignment map[i] = channelsPerShank*s + i, which the
// user may later edit.
func (e *Engine) Generate(deviceType string, electrodeGroupID int, existing []domain.NtrodeChannelMap) ([]domain.NtrodeChannelMap, error) {
	geom, err := e.registry.Lookup(deviceType)
	if err != nil {
		return nil, err
	}
	next := NextNtrodeID(existing)
	maps := make([]domain.NtrodeChannelMap, 0, geom.ShankCount)
	for s := 0; s < geom.ShankCount; s++ {
		m := domain.NtrodeChannelMap{
			NtrodeID:         next + s,
			ElectrodeGroupID: electrodeGroupID,
			Map:              make([]int, geom.ChannelsPerShank),
			BadChannels:      []int{},
		}
		for i := 0; i < geom.ChannelsPerShank; i++ {
			m.Map[i] = geom.ChannelsPerShank*s + i
		}
		maps = append(maps, m)
	}
	return maps, nil
}

// Reassign returns a copy of the map with the logical channel pointed at a
// new hardware channel, or at domain.UnassignedChannel to unassign it.
// Duplicate hardware assignments are allowed here and surfaced later by
// validation.
func Reassign(m domain.NtrodeChannelMap, logicalChannel, hardwareChannel int) (domain.NtrodeChannelMap, error) {
	if logicalChannel < 0 || logicalChannel >= len(m.Map) {
		return domain.NtrodeChannelMap{}, fmt.Errorf("logical channel %d out of range [0,%d)", logicalChannel, len(m.Map))
	}
	if hardwareChannel < domain.UnassignedChannel {
		return domain.NtrodeChannelMap{}, fmt.Errorf("hardware channel %d invalid", hardwareChannel)
	}
	out := cloneMap(m)
	out.Map[logicalChannel] = hardwareChannel
	return out, nil
}

// Duplicate clones an electrode group together with its channel maps. The
// clone receives the next free group ID within the animal, and each cloned
// map receives a fresh ntrode ID continuing from the animal-wide maximum.
// Hardware assignments are copied verbatim; the result has the same topology
// as the source but is fully independent.
func Duplicate(group domain.ElectrodeGroup, groupMaps []domain.NtrodeChannelMap, allGroups []domain.ElectrodeGroup, allMaps []domain.NtrodeChannelMap) (domain.ElectrodeGroup, []domain.NtrodeChannelMap) {
	newGroup := group
	newGroup.ID = NextGroupID(allGroups)

	next := NextNtrodeID(allMaps)
	cloned := make([]domain.NtrodeChannelMap, 0, len(groupMaps))
	for i, m := range groupMaps {
		cp := cloneMap(m)
		cp.NtrodeID = next + i
		cp.ElectrodeGroupID = newGroup.ID
		cloned = append(cloned, cp)
	}
	return newGroup, cloned
}

// AvailableOptions returns the candidate hardware channels a caller may
// offer when the user edits one logical channel: the unassign sentinel, every
// channel in [0, totalChannels) not already used elsewhere in the map, and
// the channel currently selected. Sorted ascending. The current selection is
// always included so it is never silently lost, and a channel already used by
// another logical slot can never be picked twice.
func AvailableOptions(m domain.NtrodeChannelMap, logicalChannel, totalChannels int) []int {
	used := make(map[int]bool, len(m.Map))
	for i, hw := range m.Map {
		if i == logicalChannel || hw == domain.UnassignedChannel {
			continue
		}
		used[hw] = true
	}
	options := []int{domain.UnassignedChannel}
	for hw := 0; hw < totalChannels; hw++ {
		if !used[hw] {
			options = append(options, hw)
		}
	}
	if logicalChannel >= 0 && logicalChannel < len(m.Map) {
		current := m.Map[logicalChannel]
		if current != domain.UnassignedChannel && (used[current] || current >= totalChannels) {
			options = append(options, current)
		}
	}
	sort.Ints(options)
	return options
}

// NextNtrodeID returns the next monotonically assigned ntrode ID given the
// animal's full existing map list: max(existing IDs, -1) + 1.
func NextNtrodeID(existing []domain.NtrodeChannelMap) int {
	next := 0
	for _, m := range existing {
		if m.NtrodeID >= next {
			next = m.NtrodeID + 1
		}
	}
	return next
}

// NextGroupID returns the next free electrode-group ID within an animal.
func NextGroupID(groups []domain.ElectrodeGroup) int {
	next := 0
	for _, g := range groups {
		if g.ID >= next {
			next = g.ID + 1
		}
	}
	return next
}

func cloneMap(m domain.NtrodeChannelMap) domain.NtrodeChannelMap {
	cp := m
	cp.Map = append([]int(nil), m.Map...)
	cp.BadChannels = append([]int(nil), m.BadChannels...)
	return cp
}
