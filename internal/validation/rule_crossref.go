package validation

import (
	"fmt"
	"sort"

	"sessioncore/pkg/domain"
)

// NewCrossReferenceRule emits the non-blocking findings used during
// inheritance-aware editing: configuration that is suspicious but does not
// make the document unusable. These never block saving; warnings block only
// final export.
func NewCrossReferenceRule() Rule {
	return crossReferenceRule{}
}

type crossReferenceRule struct{}

func (crossReferenceRule) Name() string { return "cross_reference_review" }

func (crossReferenceRule) Evaluate(doc domain.EffectiveDay) domain.ValidationResult {
	var res domain.ValidationResult

	mapped := make(map[int]int, len(doc.ElectrodeGroups))
	for _, m := range doc.ChannelMaps {
		mapped[m.ElectrodeGroupID]++
	}
	for i, g := range doc.ElectrodeGroups {
		if mapped[g.ID] == 0 {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindCrossReference,
				Path:     fmt.Sprintf("electrode_groups[%d]", i),
				Message:  fmt.Sprintf("electrode group %d has no channel maps yet", g.ID),
				Severity: domain.SeverityWarning,
			})
		}
	}

	referenced := make(map[int]bool)
	for _, task := range doc.Tasks {
		for _, camID := range task.CameraIDs {
			referenced[camID] = true
		}
	}
	for i, cam := range doc.Cameras {
		if !referenced[cam.ID] {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindCrossReference,
				Path:     fmt.Sprintf("cameras[%d]", i),
				Message:  fmt.Sprintf("camera %d is not referenced by any task", cam.ID),
				Severity: domain.SeverityInfo,
			})
		}
	}

	// Bad channels should name hardware channels the map actually carries.
	for i, m := range doc.ChannelMaps {
		assigned := make(map[int]bool, len(m.Map))
		for _, hw := range m.Map {
			if hw != domain.UnassignedChannel {
				assigned[hw] = true
			}
		}
		unknown := make([]int, 0)
		for _, bad := range m.BadChannels {
			if !assigned[bad] {
				unknown = append(unknown, bad)
			}
		}
		sort.Ints(unknown)
		for _, bad := range unknown {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindCrossReference,
				Path:     fmt.Sprintf("ntrode_channel_maps[%d].bad_channels", i),
				Message:  fmt.Sprintf("bad channel %d is not assigned anywhere in ntrode %d", bad, m.NtrodeID),
				Severity: domain.SeverityWarning,
			})
		}
	}
	return res
}
