package core

import (
	"reflect"
	"sort"

	"sessioncore/pkg/domain"
)

// DeviceDiff reports how an animal's hardware configuration changed between
// two configuration snapshots. Used to surface probe reconfigurations
// across sessions.
type DeviceDiff struct {
	AddedGroups     []int `json:"added_groups"`
	RemovedGroups   []int `json:"removed_groups"`
	ChangedGroups   []int `json:"changed_groups"`
	AddedNtrodes    []int `json:"added_ntrodes"`
	RemovedNtrodes  []int `json:"removed_ntrodes"`
	RemappedNtrodes []int `json:"remapped_ntrodes"`
}

// Empty reports whether the two configurations are identical.
func (d DeviceDiff) Empty() bool {
	return len(d.AddedGroups) == 0 && len(d.RemovedGroups) == 0 && len(d.ChangedGroups) == 0 &&
		len(d.AddedNtrodes) == 0 && len(d.RemovedNtrodes) == 0 && len(d.RemappedNtrodes) == 0
}

// DiffSnapshots compares two configuration snapshots of the same animal.
func DiffSnapshots(prev, cur domain.ConfigurationSnapshot) DeviceDiff {
	return DiffDeviceSets(prev.Devices, cur.Devices)
}

// DiffDeviceSets compares two device configurations by stable ID, ignoring
// list order. All result slices are sorted ascending.
func DiffDeviceSets(prev, cur domain.DeviceSet) DeviceDiff {
	var diff DeviceDiff

	prevGroups := make(map[int]domain.ElectrodeGroup, len(prev.ElectrodeGroups))
	for _, g := range prev.ElectrodeGroups {
		prevGroups[g.ID] = g
	}
	curGroups := make(map[int]domain.ElectrodeGroup, len(cur.ElectrodeGroups))
	for _, g := range cur.ElectrodeGroups {
		curGroups[g.ID] = g
	}
	for id, g := range curGroups {
		before, ok := prevGroups[id]
		switch {
		case !ok:
			diff.AddedGroups = append(diff.AddedGroups, id)
		case before != g:
			diff.ChangedGroups = append(diff.ChangedGroups, id)
		}
	}
	for id := range prevGroups {
		if _, ok := curGroups[id]; !ok {
			diff.RemovedGroups = append(diff.RemovedGroups, id)
		}
	}

	prevMaps := make(map[int]domain.NtrodeChannelMap, len(prev.ChannelMaps))
	for _, m := range prev.ChannelMaps {
		prevMaps[m.NtrodeID] = m
	}
	curMaps := make(map[int]domain.NtrodeChannelMap, len(cur.ChannelMaps))
	for _, m := range cur.ChannelMaps {
		curMaps[m.NtrodeID] = m
	}
	for id, m := range curMaps {
		before, ok := prevMaps[id]
		switch {
		case !ok:
			diff.AddedNtrodes = append(diff.AddedNtrodes, id)
		case !reflect.DeepEqual(before, m):
			diff.RemappedNtrodes = append(diff.RemappedNtrodes, id)
		}
	}
	for id := range prevMaps {
		if _, ok := curMaps[id]; !ok {
			diff.RemovedNtrodes = append(diff.RemovedNtrodes, id)
		}
	}

	sort.Ints(diff.AddedGroups)
	sort.Ints(diff.RemovedGroups)
	sort.Ints(diff.ChangedGroups)
	sort.Ints(diff.AddedNtrodes)
	sort.Ints(diff.RemovedNtrodes)
	sort.Ints(diff.RemappedNtrodes)
	return diff
}
