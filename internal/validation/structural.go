package validation

import (
	"fmt"
	"strings"
	"time"

	"sessioncore/pkg/domain"
)

// structuralError builds a stage-A finding. Structural findings are always
// error severity.
func structuralError(path, message string) domain.ValidationError {
	return domain.ValidationError{
		Kind:     domain.KindStructural,
		Path:     path,
		Message:  message,
		Severity: domain.SeverityError,
	}
}

// checkRequiredString rejects empty and whitespace-only values. Required
// text fields must be non-empty after trimming.
func checkRequiredString(res *domain.ValidationResult, path, value string) {
	if strings.TrimSpace(value) == "" {
		res.Errors = append(res.Errors, structuralError(path, "required field must not be empty or whitespace"))
	}
}

// validateStructure is stage A of the pipeline: required fields, primitive
// ranges, and array-shape constraints over the merged document. It never
// inspects cross-references between collections; that is stage B's job.
func validateStructure(doc domain.EffectiveDay) domain.ValidationResult {
	var res domain.ValidationResult

	checkRequiredString(&res, "session_id", doc.SessionID)
	checkRequiredString(&res, "session_description", doc.SessionDescription)
	checkRequiredString(&res, "experiment_description", doc.ExperimentDescription)
	checkRequiredString(&res, "date", doc.Date)
	if strings.TrimSpace(doc.Date) != "" {
		if _, err := time.Parse("2006-01-02", doc.Date); err != nil {
			res.Errors = append(res.Errors, structuralError("date", fmt.Sprintf("date %q is not a calendar date (YYYY-MM-DD)", doc.Date)))
		}
	}

	checkRequiredString(&res, "subject.subject_id", doc.Subject.SubjectID)
	checkRequiredString(&res, "subject.species", doc.Subject.Species)
	checkRequiredString(&res, "subject.sex", doc.Subject.Sex)
	checkRequiredString(&res, "subject.genotype", doc.Subject.Genotype)
	checkRequiredString(&res, "subject.description", doc.Subject.Description)
	if doc.Subject.WeightGrams < 0 {
		res.Errors = append(res.Errors, structuralError("subject.weight_grams", "weight must not be negative"))
	}

	checkRequiredString(&res, "lab", doc.Lab)
	checkRequiredString(&res, "institution", doc.Institution)
	if len(doc.Experimenters) == 0 {
		res.Errors = append(res.Errors, structuralError("experimenters", "at least one experimenter is required"))
	}
	for i, name := range doc.Experimenters {
		checkRequiredString(&res, fmt.Sprintf("experimenters[%d]", i), name)
	}

	for i, dev := range doc.DataAcqDevices {
		checkRequiredString(&res, fmt.Sprintf("data_acq_devices[%d].name", i), dev.Name)
		checkRequiredString(&res, fmt.Sprintf("data_acq_devices[%d].system", i), dev.System)
	}

	for i, cam := range doc.Cameras {
		path := fmt.Sprintf("cameras[%d]", i)
		if cam.ID < 0 {
			res.Errors = append(res.Errors, structuralError(path+".id", "camera id must not be negative"))
		}
		if cam.MetersPerPixel <= 0 {
			res.Errors = append(res.Errors, structuralError(path+".meters_per_pixel", "meters per pixel must be positive"))
		}
		checkRequiredString(&res, path+".camera_name", cam.Name)
	}

	for i, task := range doc.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		checkRequiredString(&res, path+".task_name", task.Name)
		checkRequiredString(&res, path+".task_description", task.Description)
		if len(task.Epochs) == 0 {
			res.Errors = append(res.Errors, structuralError(path+".task_epochs", "task must span at least one epoch"))
		}
		for j, epoch := range task.Epochs {
			if epoch < 1 {
				res.Errors = append(res.Errors, structuralError(fmt.Sprintf("%s.task_epochs[%d]", path, j), "epochs are numbered from 1"))
			}
		}
		for j, camID := range task.CameraIDs {
			if camID < 0 {
				res.Errors = append(res.Errors, structuralError(fmt.Sprintf("%s.camera_ids[%d]", path, j), "camera id must not be negative"))
			}
		}
	}

	for i, ev := range doc.BehavioralEvents {
		checkRequiredString(&res, fmt.Sprintf("behavioral_events[%d].name", i), ev.Name)
		checkRequiredString(&res, fmt.Sprintf("behavioral_events[%d].description", i), ev.Description)
	}

	for i, g := range doc.ElectrodeGroups {
		path := fmt.Sprintf("electrode_groups[%d]", i)
		if g.ID < 0 {
			res.Errors = append(res.Errors, structuralError(path+".id", "electrode group id must not be negative"))
		}
		checkRequiredString(&res, path+".location", g.Location)
		checkRequiredString(&res, path+".device_type", g.DeviceType)
		checkRequiredString(&res, path+".description", g.Description)
	}

	for i, m := range doc.ChannelMaps {
		path := fmt.Sprintf("ntrode_channel_maps[%d]", i)
		if m.NtrodeID < 0 {
			res.Errors = append(res.Errors, structuralError(path+".ntrode_id", "ntrode id must not be negative"))
		}
		if m.ElectrodeGroupID < 0 {
			res.Errors = append(res.Errors, structuralError(path+".electrode_group_id", "electrode group id must not be negative"))
		}
		if len(m.Map) == 0 {
			res.Errors = append(res.Errors, structuralError(path+".map", "channel map must not be empty"))
		}
		for logical, hw := range m.Map {
			if hw < domain.UnassignedChannel {
				res.Errors = append(res.Errors, structuralError(fmt.Sprintf("%s.map[%d]", path, logical), fmt.Sprintf("hardware channel %d is not a channel index or the unassigned sentinel", hw)))
			}
		}
		for j, bad := range m.BadChannels {
			if bad < 0 {
				res.Errors = append(res.Errors, structuralError(fmt.Sprintf("%s.bad_channels[%d]", path, j), "bad channel index must not be negative"))
			}
		}
	}

	return res
}
