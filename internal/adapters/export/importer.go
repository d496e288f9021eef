package export

import (
	"context"
	"fmt"

	"sessioncore/internal/core"
	"sessioncore/internal/wire"
	"sessioncore/pkg/domain"
)

// Outcome reports what an import created and the validation findings
// attached to the decoded document.
type Outcome struct {
	AnimalID      string                  `json:"animal_id"`
	DayID         string                  `json:"day_id"`
	CreatedAnimal bool                    `json:"created_animal"`
	Result        domain.ValidationResult `json:"validation"`
}

// Importer turns previously exported wire files back into workspace
// entities. Decoding is all-or-nothing; a file that fails structural
// validation is rejected before anything is written.
type Importer struct {
	service *core.Service
}

// NewImporter constructs an importer over the given service.
func NewImporter(service *core.Service) *Importer {
	return &Importer{service: service}
}

// Import decodes payload, validates the document, and commits an animal and
// day derived from it in one transaction. The animal is matched by subject
// ID against existing templates; when none matches, a new template is
// created carrying the document's hardware configuration.
func (im *Importer) Import(ctx context.Context, payload []byte) (Outcome, error) {
	doc, err := wire.Decode(payload)
	if err != nil {
		return Outcome{}, err
	}

	result := im.service.ValidateDocument(doc)
	if !result.IsValid() {
		return Outcome{Result: result}, fmt.Errorf("imported document failed validation with %d blocking findings", blockingCount(result))
	}

	var outcome Outcome
	outcome.Result = result
	err = im.service.Store().RunInTransaction(ctx, func(tx domain.Transaction) error {
		animalID, created, err := im.ensureAnimal(tx, doc)
		if err != nil {
			return err
		}
		outcome.AnimalID = animalID
		outcome.CreatedAnimal = created

		day, err := tx.CreateDay(domain.Day{
			AnimalID: animalID,
			Date:     doc.Date,
			Session: domain.SessionInfo{
				SessionID:             doc.SessionID,
				SessionDescription:    doc.SessionDescription,
				ExperimentDescription: doc.ExperimentDescription,
			},
			Tasks: doc.Tasks,
		})
		if err != nil {
			return err
		}
		outcome.DayID = day.ID
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// ensureAnimal finds the template owning the document's subject or creates
// one from the document's inherited fields.
func (im *Importer) ensureAnimal(tx domain.Transaction, doc domain.EffectiveDay) (string, bool, error) {
	for _, animal := range tx.Snapshot().ListAnimals() {
		if animal.Subject.SubjectID == doc.Subject.SubjectID {
			return animal.ID, false, nil
		}
	}
	animal, err := tx.CreateAnimal(domain.Animal{
		Subject: doc.Subject,
		Attribution: domain.Attribution{
			Experimenters: doc.Experimenters,
			Lab:           doc.Lab,
			Institution:   doc.Institution,
		},
		Devices: domain.DeviceSet{
			ElectrodeGroups: doc.ElectrodeGroups,
			ChannelMaps:     doc.ChannelMaps,
		},
		Cameras:          doc.Cameras,
		DataAcqDevices:   doc.DataAcqDevices,
		BehavioralEvents: doc.BehavioralEvents,
	})
	if err != nil {
		return "", false, err
	}
	return animal.ID, true, nil
}

func blockingCount(result domain.ValidationResult) int {
	n := 0
	for _, e := range result.Errors {
		if e.Severity == domain.SeverityError {
			n++
		}
	}
	return n
}
