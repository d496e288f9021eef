package validation

import (
	"fmt"
	"sort"

	"sessioncore/pkg/device"
	"sessioncore/pkg/domain"
)

// NewChannelMapRule checks channel-map completeness against probe geometry:
// within each map, every hardware channel of its shank must appear exactly
// once among non-sentinel values. Duplicates are uniqueness errors and
// missing channels are completion errors; both mean the recording
// configuration is unusable.
func NewChannelMapRule(registry *device.Registry) Rule {
	if registry == nil {
		registry = device.Builtin()
	}
	return channelMapRule{registry: registry}
}

type channelMapRule struct {
	registry *device.Registry
}

func (channelMapRule) Name() string { return "channel_map_completeness" }

func (r channelMapRule) Evaluate(doc domain.EffectiveDay) domain.ValidationResult {
	var res domain.ValidationResult

	groupTypes := make(map[int]string, len(doc.ElectrodeGroups))
	for _, g := range doc.ElectrodeGroups {
		groupTypes[g.ID] = g.DeviceType
	}

	// Shank index of a map is its rank within the owning group, ordered by
	// ntrode id; generation assigns ids in shank order and never reuses them.
	byGroup := make(map[int][]int, len(groupTypes))
	for i, m := range doc.ChannelMaps {
		byGroup[m.ElectrodeGroupID] = append(byGroup[m.ElectrodeGroupID], i)
	}
	for _, indices := range byGroup {
		sort.Slice(indices, func(a, b int) bool {
			return doc.ChannelMaps[indices[a]].NtrodeID < doc.ChannelMaps[indices[b]].NtrodeID
		})
	}

	groupOrder := make([]int, 0, len(byGroup))
	for groupID := range byGroup {
		groupOrder = append(groupOrder, groupID)
	}
	sort.Ints(groupOrder)

	for _, groupID := range groupOrder {
		indices := byGroup[groupID]
		deviceType, ok := groupTypes[groupID]
		if !ok {
			// Dangling group reference is the referential rule's finding.
			continue
		}
		geom, err := r.registry.Lookup(deviceType)
		if err != nil {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindReferential,
				Path:     fmt.Sprintf("electrode_groups[%s].device_type", groupPath(doc, groupID)),
				Message:  fmt.Sprintf("device type %q is not registered", deviceType),
				Severity: domain.SeverityError,
			})
			continue
		}
		for shank, i := range indices {
			res.Merge(checkMapCompleteness(doc.ChannelMaps[i], i, shank, geom))
		}
		if len(indices) != geom.ShankCount {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindCompletion,
				Path:     "ntrode_channel_maps",
				Message:  fmt.Sprintf("electrode group %d has %d channel map(s), device type %q implies %d", groupID, len(indices), deviceType, geom.ShankCount),
				Severity: domain.SeverityError,
			})
		}
	}
	return res
}

// checkMapCompleteness verifies one map covers its shank's hardware range
// exactly once.
func checkMapCompleteness(m domain.NtrodeChannelMap, docIndex, shank int, geom device.Geometry) domain.ValidationResult {
	var res domain.ValidationResult
	path := fmt.Sprintf("ntrode_channel_maps[%d].map", docIndex)

	if len(m.Map) != geom.ChannelsPerShank {
		res.Errors = append(res.Errors, domain.ValidationError{
			Kind:     domain.KindCompletion,
			Path:     path,
			Message:  fmt.Sprintf("map has %d logical channels, device type implies %d", len(m.Map), geom.ChannelsPerShank),
			Severity: domain.SeverityError,
		})
	}

	lo := geom.ChannelsPerShank * shank
	hi := lo + geom.ChannelsPerShank
	counts := make(map[int]int, len(m.Map))
	for _, hw := range m.Map {
		if hw == domain.UnassignedChannel {
			continue
		}
		counts[hw]++
	}

	dups := make([]int, 0)
	for hw, n := range counts {
		if n > 1 {
			dups = append(dups, hw)
		}
	}
	sort.Ints(dups)
	for _, hw := range dups {
		res.Errors = append(res.Errors, domain.ValidationError{
			Kind:     domain.KindUniqueness,
			Path:     path,
			Message:  fmt.Sprintf("hardware channel %d assigned to %d logical channels of ntrode %d", hw, counts[hw], m.NtrodeID),
			Severity: domain.SeverityError,
		})
	}

	missing := make([]int, 0)
	for hw := lo; hw < hi; hw++ {
		if counts[hw] == 0 {
			missing = append(missing, hw)
		}
	}
	for _, hw := range missing {
		res.Errors = append(res.Errors, domain.ValidationError{
			Kind:     domain.KindCompletion,
			Path:     path,
			Message:  fmt.Sprintf("hardware channel %d of ntrode %d is unassigned", hw, m.NtrodeID),
			Severity: domain.SeverityError,
		})
	}

	for _, hw := range sortedKeys(counts) {
		if hw < lo || hw >= hi {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindCompletion,
				Path:     path,
				Message:  fmt.Sprintf("hardware channel %d is outside shank range [%d,%d) of ntrode %d", hw, lo, hi, m.NtrodeID),
				Severity: domain.SeverityError,
			})
		}
	}
	return res
}

func sortedKeys(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// groupPath locates an electrode group's index in the document for error
// addressing.
func groupPath(doc domain.EffectiveDay, groupID int) string {
	for i, g := range doc.ElectrodeGroups {
		if g.ID == groupID {
			return fmt.Sprintf("%d", i)
		}
	}
	return "?"
}
