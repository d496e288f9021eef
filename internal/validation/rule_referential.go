package validation

import (
	"fmt"

	"sessioncore/pkg/domain"
)

// NewReferentialRule checks that loosely coupled collections reference each
// other by existing IDs: every task camera reference must name a camera in
// the document's camera list, and every channel map must belong to a defined
// electrode group.
func NewReferentialRule() Rule {
	return referentialRule{}
}

type referentialRule struct{}

func (referentialRule) Name() string { return "referential_integrity" }

func (referentialRule) Evaluate(doc domain.EffectiveDay) domain.ValidationResult {
	var res domain.ValidationResult

	cameras := make(map[int]bool, len(doc.Cameras))
	for _, cam := range doc.Cameras {
		cameras[cam.ID] = true
	}
	for i, task := range doc.Tasks {
		if len(doc.Cameras) == 0 && len(task.CameraIDs) > 0 {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindReferential,
				Path:     fmt.Sprintf("tasks[%d].camera_ids", i),
				Message:  "task references cameras but the document defines none",
				Severity: domain.SeverityError,
			})
			continue
		}
		for j, camID := range task.CameraIDs {
			if !cameras[camID] {
				res.Errors = append(res.Errors, domain.ValidationError{
					Kind:     domain.KindReferential,
					Path:     fmt.Sprintf("tasks[%d].camera_ids[%d]", i, j),
					Message:  fmt.Sprintf("camera %d is not defined", camID),
					Severity: domain.SeverityError,
				})
			}
		}
	}

	groups := make(map[int]bool, len(doc.ElectrodeGroups))
	for _, g := range doc.ElectrodeGroups {
		groups[g.ID] = true
	}
	for i, m := range doc.ChannelMaps {
		if !groups[m.ElectrodeGroupID] {
			res.Errors = append(res.Errors, domain.ValidationError{
				Kind:     domain.KindReferential,
				Path:     fmt.Sprintf("ntrode_channel_maps[%d].electrode_group_id", i),
				Message:  fmt.Sprintf("electrode group %d is not defined", m.ElectrodeGroupID),
				Severity: domain.SeverityError,
			})
		}
	}
	return res
}
