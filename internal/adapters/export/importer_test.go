package export

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessioncore/internal/blob"
	"sessioncore/internal/core"
	"sessioncore/internal/wire"
	"sessioncore/pkg/domain"
)

func TestImportRoundTripIntoFreshWorkspace(t *testing.T) {
	ctx := context.Background()

	// export from one workspace
	source := core.NewService(core.NewMemoryStore())
	archive := blob.NewMemory()
	worker := NewWorker(source, archive, nil)
	_, day := seedWorkspace(t, source)
	info, err := worker.ExportDay(ctx, day.ID)
	require.NoError(t, err)

	_, rc, err := archive.Get(ctx, info.Key)
	require.NoError(t, err)
	payload, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	// import into another
	target := core.NewService(core.NewMemoryStore())
	outcome, err := NewImporter(target).Import(ctx, payload)
	require.NoError(t, err)
	assert.True(t, outcome.CreatedAnimal)
	assert.True(t, outcome.Result.IsValid())

	animal, ok := target.Store().GetAnimal(outcome.AnimalID)
	require.True(t, ok)
	assert.Equal(t, "remy", animal.Subject.SubjectID)
	assert.Equal(t, "Frank Lab", animal.Attribution.Lab)
	require.Len(t, animal.Devices.ElectrodeGroups, 1)
	require.Len(t, animal.Devices.ChannelMaps, 1)

	imported, ok := target.Store().GetDay(outcome.DayID)
	require.True(t, ok)
	assert.Equal(t, "2023-06-22", imported.Date)
	require.Len(t, imported.Tasks, 1)

	// the re-resolved document matches the exported one
	eff, err := target.ResolveDay(ctx, outcome.DayID)
	require.NoError(t, err)
	original, err := wire.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, original, eff)
}

func TestImportReusesExistingAnimal(t *testing.T) {
	ctx := context.Background()

	source := core.NewService(core.NewMemoryStore())
	archive := blob.NewMemory()
	worker := NewWorker(source, archive, nil)
	animal, day := seedWorkspace(t, source)
	info, err := worker.ExportDay(ctx, day.ID)
	require.NoError(t, err)

	_, rc, err := archive.Get(ctx, info.Key)
	require.NoError(t, err)
	payload, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	// importing into the same workspace matches the subject instead of cloning
	outcome, err := NewImporter(source).Import(ctx, payload)
	require.NoError(t, err)
	assert.False(t, outcome.CreatedAnimal)
	assert.Equal(t, animal.ID, outcome.AnimalID)
	assert.Len(t, source.Store().ListAnimals(), 1)
	assert.Len(t, source.Store().ListDays(), 2)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	target := core.NewService(core.NewMemoryStore())

	// structurally broken: blank lab
	doc := domain.EffectiveDay{
		SessionID:             "sid",
		SessionDescription:    "desc",
		ExperimentDescription: "exp",
		Date:                  "2023-06-22",
		Subject: domain.Subject{SubjectID: "remy", Species: "rat", Sex: "M",
			Genotype: "wt", DateOfBirth: "2022-01-15", Description: "d", WeightGrams: 450},
		Experimenters:    []string{"A"},
		Lab:              "",
		Institution:      "UCSF",
		DataAcqDevices:   []domain.DataAcqDevice{},
		Cameras:          []domain.Camera{},
		Tasks:            []domain.Task{},
		BehavioralEvents: []domain.BehavioralEvent{},
		ElectrodeGroups:  []domain.ElectrodeGroup{},
		ChannelMaps:      []domain.NtrodeChannelMap{},
	}
	payload, err := wire.Encode(doc)
	require.NoError(t, err)

	_, err = NewImporter(target).Import(context.Background(), payload)
	require.Error(t, err)
	assert.Empty(t, target.Store().ListAnimals(), "rejected import must not write")
	assert.Empty(t, target.Store().ListDays())
}

func TestImportRejectsMalformedPayload(t *testing.T) {
	target := core.NewService(core.NewMemoryStore())
	_, err := NewImporter(target).Import(context.Background(), []byte("not: [yaml"))
	require.Error(t, err)
	var decodeErr domain.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}
