package core

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeFixture() (Animal, Day) {
	animal := Animal{
		Base: Base{ID: "animal-1"},
		Subject: Subject{
			SubjectID: "remy",
			Species:   "Rattus norvegicus",
			Sex:       "M",
			Genotype:  "Wild Type",
		},
		Attribution: Attribution{
			Experimenters: []string{"Guidera, Jennifer"},
			Lab:           "Frank Lab",
			Institution:   "UCSF",
		},
		Devices: DeviceSet{
			ElectrodeGroups: []ElectrodeGroup{
				{ID: 0, Location: "CA1", DeviceType: "tetrode_12.5", Description: "tetrode"},
				{ID: 1, Location: "CA3", DeviceType: "tetrode_12.5", Description: "tetrode"},
			},
			ChannelMaps: []NtrodeChannelMap{
				{NtrodeID: 0, ElectrodeGroupID: 0, Map: []int{0, 1, 2, 3}, BadChannels: []int{2}},
				{NtrodeID: 1, ElectrodeGroupID: 1, Map: []int{4, 5, 6, 7}, BadChannels: []int{}},
			},
		},
		Cameras: []Camera{
			{ID: 0, MetersPerPixel: 0.001, Manufacturer: "Allied Vision", Model: "Mako", Lens: "wide", Name: "overhead"},
		},
		DataAcqDevices: []DataAcqDevice{
			{Name: "acq0", System: "SpikeGadgets", Amplifier: "Intan", ADCCircuitry: "Intan"},
		},
		BehavioralEvents: []BehavioralEvent{
			{Description: "Din1", Name: "poke_1"},
		},
	}
	day := Day{
		Base:     Base{ID: "day-1"},
		AnimalID: "animal-1",
		Date:     "2023-06-22",
		Session: SessionInfo{
			SessionID:             "remy_20230622",
			SessionDescription:    "sleep then run",
			ExperimentDescription: "w-track alternation",
		},
		Tasks: []Task{
			{Name: "sleep", Description: "home box rest", CameraIDs: []int{0}, Epochs: []int{1, 3}},
		},
	}
	return animal, day
}

func TestResolveDayInheritsAnimalFields(t *testing.T) {
	animal, day := mergeFixture()

	eff := ResolveDay(animal, day)

	assert.Equal(t, "remy_20230622", eff.SessionID)
	assert.Equal(t, "sleep then run", eff.SessionDescription)
	assert.Equal(t, "w-track alternation", eff.ExperimentDescription)
	assert.Equal(t, "2023-06-22", eff.Date)
	assert.Equal(t, animal.Subject, eff.Subject)
	assert.Equal(t, []string{"Guidera, Jennifer"}, eff.Experimenters)
	assert.Equal(t, "Frank Lab", eff.Lab)
	assert.Equal(t, "UCSF", eff.Institution)
	assert.Equal(t, animal.Cameras, eff.Cameras)
	assert.Equal(t, animal.DataAcqDevices, eff.DataAcqDevices)
	assert.Equal(t, animal.BehavioralEvents, eff.BehavioralEvents)
	assert.Equal(t, animal.Devices.ElectrodeGroups, eff.ElectrodeGroups)
	assert.Equal(t, day.Tasks, eff.Tasks)

	// no override: animal-level bad channels carry through
	require.Len(t, eff.ChannelMaps, 2)
	assert.Equal(t, []int{2}, eff.ChannelMaps[0].BadChannels)
	assert.Equal(t, []int{}, eff.ChannelMaps[1].BadChannels)
}

func TestResolveDayAppliesBadChannelOverrides(t *testing.T) {
	animal, day := mergeFixture()
	day.BadChannelOverrides = map[int][]int{0: {3, 1}}

	eff := ResolveDay(animal, day)

	assert.Equal(t, []int{1, 3}, eff.ChannelMaps[0].BadChannels, "override replaces the default, sorted")
	assert.Equal(t, []int{}, eff.ChannelMaps[1].BadChannels, "groups without override keep defaults")
	assert.Equal(t, []int{2}, animal.Devices.ChannelMaps[0].BadChannels, "animal state untouched")
}

func TestResolveDayEmptyOverrideShadowsDefault(t *testing.T) {
	animal, day := mergeFixture()
	day.BadChannelOverrides = map[int][]int{0: {}}

	eff := ResolveDay(animal, day)

	assert.Equal(t, []int{}, eff.ChannelMaps[0].BadChannels, "an empty override means no bad channels that day")
}

func TestResolveDayIsPure(t *testing.T) {
	animal, day := mergeFixture()

	first := ResolveDay(animal, day)
	second := ResolveDay(animal, day)
	require.True(t, reflect.DeepEqual(first, second))

	// mutating one result must not affect the other or the inputs
	first.ChannelMaps[0].Map[0] = 99
	first.Experimenters[0] = "Mallory"
	assert.Equal(t, 0, second.ChannelMaps[0].Map[0])
	assert.Equal(t, 0, animal.Devices.ChannelMaps[0].Map[0])
	assert.Equal(t, "Guidera, Jennifer", animal.Attribution.Experimenters[0])
}

func TestResolveDayProducesNonNilSlices(t *testing.T) {
	eff := ResolveDay(Animal{}, Day{})

	assert.NotNil(t, eff.Experimenters)
	assert.NotNil(t, eff.DataAcqDevices)
	assert.NotNil(t, eff.Cameras)
	assert.NotNil(t, eff.Tasks)
	assert.NotNil(t, eff.BehavioralEvents)
	assert.NotNil(t, eff.ElectrodeGroups)
	assert.NotNil(t, eff.ChannelMaps)
}
