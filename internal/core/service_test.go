package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sessioncore/pkg/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), WithLogger(zap.NewNop()))
}

func seedAnimal(t *testing.T, s *Service) Animal {
	t.Helper()
	animal, err := s.CreateAnimal(context.Background(), Animal{
		Subject: Subject{SubjectID: "remy", Species: "Rattus norvegicus", Sex: "M", Genotype: "Wild Type",
			DateOfBirth: "2022-01-15", Description: "Long Evans", WeightGrams: 450},
		Attribution: Attribution{Experimenters: []string{"Guidera, Jennifer"}, Lab: "Frank Lab", Institution: "UCSF"},
		Cameras: []Camera{
			{ID: 0, MetersPerPixel: 0.001, Manufacturer: "Allied Vision", Model: "Mako", Lens: "wide", Name: "overhead"},
		},
		DataAcqDevices: []DataAcqDevice{
			{Name: "acq0", System: "SpikeGadgets", Amplifier: "Intan", ADCCircuitry: "Intan"},
		},
		BehavioralEvents: []BehavioralEvent{{Description: "Din1", Name: "poke_1"}},
	})
	require.NoError(t, err)
	return animal
}

func TestAssignDeviceTypeCreatesGroupAndMaps(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	updated, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{
		Location: "CA1", DeviceType: "32c-2s8mm6cm-20um-40um-dl", Description: "probe",
	})
	require.NoError(t, err)
	require.Len(t, updated.Devices.ElectrodeGroups, 1)
	assert.Equal(t, 0, updated.Devices.ElectrodeGroups[0].ID)
	require.Len(t, updated.Devices.ChannelMaps, 2, "one map per shank")
	assert.Equal(t, 0, updated.Devices.ChannelMaps[0].NtrodeID)
	assert.Equal(t, 1, updated.Devices.ChannelMaps[1].NtrodeID)

	// a second group continues both ID sequences
	updated, err = s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{
		Location: "CA3", DeviceType: "tetrode_12.5", Description: "tetrode",
	})
	require.NoError(t, err)
	require.Len(t, updated.Devices.ElectrodeGroups, 2)
	assert.Equal(t, 1, updated.Devices.ElectrodeGroups[1].ID)
	require.Len(t, updated.Devices.ChannelMaps, 3)
	assert.Equal(t, 2, updated.Devices.ChannelMaps[2].NtrodeID)
}

func TestAssignDeviceTypeUnknownDeviceLeavesAnimalUntouched(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	_, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA1", DeviceType: "bogus"})
	require.Error(t, err)

	fresh, ok := s.Store().GetAnimal(animal.ID)
	require.True(t, ok)
	assert.Empty(t, fresh.Devices.ElectrodeGroups)
	assert.Empty(t, fresh.Devices.ChannelMaps)
}

func TestDuplicateElectrodeGroup(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	_, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA1", DeviceType: "tetrode_12.5", Description: "tetrode"})
	require.NoError(t, err)

	updated, err := s.DuplicateElectrodeGroup(ctx, animal.ID, 0)
	require.NoError(t, err)
	require.Len(t, updated.Devices.ElectrodeGroups, 2)
	clone := updated.Devices.ElectrodeGroups[1]
	assert.Equal(t, 1, clone.ID)
	assert.Equal(t, "CA1", clone.Location)
	require.Len(t, updated.Devices.ChannelMaps, 2)
	assert.Equal(t, 1, updated.Devices.ChannelMaps[1].NtrodeID)
	assert.Equal(t, 1, updated.Devices.ChannelMaps[1].ElectrodeGroupID)
	assert.Equal(t, updated.Devices.ChannelMaps[0].Map, updated.Devices.ChannelMaps[1].Map)

	_, err = s.DuplicateElectrodeGroup(ctx, animal.ID, 42)
	assert.Error(t, err)
}

func TestReassignChannelAndOptions(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	_, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA1", DeviceType: "tetrode_12.5", Description: "tetrode"})
	require.NoError(t, err)

	updated, err := s.ReassignChannel(ctx, animal.ID, 0, 1, domain.UnassignedChannel)
	require.NoError(t, err)
	assert.Equal(t, []int{0, domain.UnassignedChannel, 2, 3}, updated.Devices.ChannelMaps[0].Map)

	options, err := s.ChannelOptions(ctx, animal.ID, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{domain.UnassignedChannel, 1}, options)

	_, err = s.ReassignChannel(ctx, animal.ID, 99, 0, 0)
	assert.Error(t, err)
}

func TestDeleteElectrodeGroupThroughService(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	_, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA1", DeviceType: "32c-2s8mm6cm-20um-40um-dl"})
	require.NoError(t, err)

	updated, err := s.DeleteElectrodeGroup(ctx, animal.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, updated.Devices.ElectrodeGroups)
	assert.Empty(t, updated.Devices.ChannelMaps)
}

func TestValidateDayAdvancesState(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	_, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA1", DeviceType: "tetrode_12.5", Description: "tetrode"})
	require.NoError(t, err)

	day, err := s.CreateDay(ctx, Day{
		AnimalID: animal.ID,
		Date:     "2023-06-22",
		Session:  SessionInfo{SessionDescription: "sleep then run", ExperimentDescription: "w-track"},
		Tasks:    []Task{{Name: "sleep", Description: "rest", CameraIDs: []int{0}, Epochs: []int{1}}},
	})
	require.NoError(t, err)
	assert.Equal(t, DayStateDraft, day.State)

	result, err := s.ValidateDay(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, result.IsValid())

	fresh, _ := s.Store().GetDay(day.ID)
	assert.Equal(t, DayStateValidated, fresh.State)

	latest, seq, ok := s.LatestValidation()
	require.True(t, ok)
	assert.Equal(t, uint64(1), seq)
	assert.True(t, latest.IsValid())
}

func TestValidateDayInvalidDocumentKeepsDraft(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	day, err := s.CreateDay(ctx, Day{
		AnimalID: animal.ID,
		Date:     "2023-06-22",
		Session:  SessionInfo{SessionDescription: "sleep then run", ExperimentDescription: "w-track"},
		// task references camera 7 which does not exist
		Tasks: []Task{{Name: "run", Description: "w-track", CameraIDs: []int{7}, Epochs: []int{2}}},
	})
	require.NoError(t, err)

	result, err := s.ValidateDay(ctx, day.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid())

	fresh, _ := s.Store().GetDay(day.ID)
	assert.Equal(t, DayStateDraft, fresh.State)
}

func TestSetAndClearBadChannelOverride(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	_, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA1", DeviceType: "tetrode_12.5", Description: "tetrode"})
	require.NoError(t, err)

	day, err := s.CreateDay(ctx, Day{AnimalID: animal.ID, Date: "2023-06-22"})
	require.NoError(t, err)

	updated, err := s.SetBadChannelOverride(ctx, day.ID, 0, []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, updated.BadChannelOverrides[0])

	eff, err := s.ResolveDay(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, eff.ChannelMaps[0].BadChannels)

	updated, err = s.ClearBadChannelOverride(ctx, day.ID, 0)
	require.NoError(t, err)
	assert.NotContains(t, updated.BadChannelOverrides, 0)

	eff, err = s.ResolveDay(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{}, eff.ChannelMaps[0].BadChannels)
}

func TestSnapshotDiffAcrossReconfiguration(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	animal := seedAnimal(t, s)

	_, err := s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA1", DeviceType: "tetrode_12.5", Description: "tetrode"})
	require.NoError(t, err)
	before, err := s.AddConfigurationSnapshot(ctx, animal.ID)
	require.NoError(t, err)

	_, err = s.AssignDeviceType(ctx, animal.ID, ElectrodeGroup{Location: "CA3", DeviceType: "tetrode_12.5", Description: "tetrode"})
	require.NoError(t, err)
	after, err := s.AddConfigurationSnapshot(ctx, animal.ID)
	require.NoError(t, err)

	diff, err := s.SnapshotDiff(ctx, before.ID, after.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, diff.AddedGroups)
	assert.Equal(t, []int{1}, diff.AddedNtrodes)
	assert.Empty(t, diff.RemovedGroups)
}

func TestServiceRecordsMetrics(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	s := NewService(NewMemoryStore(), WithMetrics(rec))
	ctx := context.Background()

	_, err := s.CreateAnimal(ctx, Animal{Subject: Subject{SubjectID: "remy"}})
	require.NoError(t, err)
	err = s.DeleteAnimal(ctx, "missing")
	require.Error(t, err)

	snap := rec.Snapshot()
	assert.Equal(t, int64(1), snap.Results["create_animal"]["success"])
	assert.Equal(t, int64(1), snap.Results["delete_animal"]["error"])
}
