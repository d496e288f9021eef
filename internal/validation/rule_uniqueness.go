package validation

import (
	"fmt"
	"sort"

	"sessioncore/pkg/domain"
)

// NewUniquenessRule checks that electrode group IDs, camera IDs, and ntrode
// IDs are each unique within their collection. One error is emitted per
// duplicated value, naming the offending collection.
func NewUniquenessRule() Rule {
	return uniquenessRule{}
}

type uniquenessRule struct{}

func (uniquenessRule) Name() string { return "id_uniqueness" }

func (uniquenessRule) Evaluate(doc domain.EffectiveDay) domain.ValidationResult {
	var res domain.ValidationResult

	groupIDs := make([]int, 0, len(doc.ElectrodeGroups))
	for _, g := range doc.ElectrodeGroups {
		groupIDs = append(groupIDs, g.ID)
	}
	appendDuplicateErrors(&res, "electrode_groups", groupIDs)

	cameraIDs := make([]int, 0, len(doc.Cameras))
	for _, cam := range doc.Cameras {
		cameraIDs = append(cameraIDs, cam.ID)
	}
	appendDuplicateErrors(&res, "cameras", cameraIDs)

	ntrodeIDs := make([]int, 0, len(doc.ChannelMaps))
	for _, m := range doc.ChannelMaps {
		ntrodeIDs = append(ntrodeIDs, m.NtrodeID)
	}
	appendDuplicateErrors(&res, "ntrode_channel_maps", ntrodeIDs)

	return res
}

// appendDuplicateErrors emits one finding per duplicated value, in
// ascending value order so the error set is deterministic.
func appendDuplicateErrors(res *domain.ValidationResult, collection string, ids []int) {
	seen := make(map[int]int, len(ids))
	for _, id := range ids {
		seen[id]++
	}
	dups := make([]int, 0)
	for id, count := range seen {
		if count > 1 {
			dups = append(dups, id)
		}
	}
	sort.Ints(dups)
	for _, id := range dups {
		res.Errors = append(res.Errors, domain.ValidationError{
			Kind:     domain.KindUniqueness,
			Path:     collection,
			Message:  fmt.Sprintf("id %d appears %d times in %s", id, seen[id], collection),
			Severity: domain.SeverityError,
		})
	}
}
