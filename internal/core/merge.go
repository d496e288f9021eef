package core

import (
	"sort"

	"sessioncore/pkg/domain"
)

// ResolveDay computes the effective document for one recording day: the
// day's own session fields joined with everything inherited from the animal
// template, with per-day bad-channel overrides applied to the inherited
// channel maps. This is the single authoritative place the merge happens;
// read-only inherited fields are copied into the result, never into day
// storage. Calling it twice on the same inputs yields structurally equal
// output.
func ResolveDay(animal domain.Animal, day domain.Day) domain.EffectiveDay {
	eff := domain.EffectiveDay{
		SessionID:             day.Session.SessionID,
		SessionDescription:    day.Session.SessionDescription,
		ExperimentDescription: day.Session.ExperimentDescription,
		Date:                  day.Date,
		Subject:               animal.Subject,
		Experimenters:         append([]string{}, animal.Attribution.Experimenters...),
		Lab:                   animal.Attribution.Lab,
		Institution:           animal.Attribution.Institution,
		DataAcqDevices:        append([]domain.DataAcqDevice{}, animal.DataAcqDevices...),
		Cameras:               append([]domain.Camera{}, animal.Cameras...),
		BehavioralEvents:      append([]domain.BehavioralEvent{}, animal.BehavioralEvents...),
		ElectrodeGroups:       append([]domain.ElectrodeGroup{}, animal.Devices.ElectrodeGroups...),
	}

	eff.Tasks = make([]domain.Task, 0, len(day.Tasks))
	for _, t := range day.Tasks {
		tc := t
		tc.CameraIDs = append([]int{}, t.CameraIDs...)
		tc.Epochs = append([]int{}, t.Epochs...)
		eff.Tasks = append(eff.Tasks, tc)
	}

	eff.ChannelMaps = make([]domain.NtrodeChannelMap, 0, len(animal.Devices.ChannelMaps))
	for _, m := range animal.Devices.ChannelMaps {
		eff.ChannelMaps = append(eff.ChannelMaps, applyBadChannelOverride(m, day.BadChannelOverrides))
	}
	return eff
}

// applyBadChannelOverride replaces a channel map's bad-channel set with the
// day-level override for its electrode group when one exists, falling back
// to the animal-level default otherwise. The input map is never mutated.
func applyBadChannelOverride(m domain.NtrodeChannelMap, overrides map[int][]int) domain.NtrodeChannelMap {
	out := m
	out.Map = append([]int{}, m.Map...)
	if override, ok := overrides[m.ElectrodeGroupID]; ok {
		out.BadChannels = append([]int(nil), override...)
	} else {
		out.BadChannels = append([]int(nil), m.BadChannels...)
	}
	if out.BadChannels == nil {
		out.BadChannels = []int{}
	}
	sort.Ints(out.BadChannels)
	return out
}
