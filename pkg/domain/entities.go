// Package domain defines the persistent entities, value types, and
// validation primitives shared by the sessioncore configuration engine.
package domain

import "time"

// EntityType identifies the type of record stored in the workspace.
type EntityType string

// Supported entity type identifiers used in persistence buckets.
const (
	// EntityAnimal identifies a reusable per-subject hardware template.
	EntityAnimal EntityType = "animal"
	// EntityDay identifies one recording-session instance owned by an animal.
	EntityDay EntityType = "day"
	// EntitySnapshot identifies an immutable hardware-configuration snapshot.
	EntitySnapshot EntityType = "configuration_snapshot"
)

// DayState tracks how far a recording day has progressed toward export.
type DayState string

// Canonical day states. A day starts as draft, becomes validated once the
// merged document passes validation, and exported after a successful encode.
const (
	DayStateDraft     DayState = "draft"
	DayStateValidated DayState = "validated"
	DayStateExported  DayState = "exported"
)

// Base contains common fields for all workspace records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subject describes the experimental subject an animal template represents.
type Subject struct {
	SubjectID   string  `json:"subject_id"`
	Species     string  `json:"species"`
	Sex         string  `json:"sex"`
	Genotype    string  `json:"genotype"`
	DateOfBirth string  `json:"date_of_birth"` // YYYY-MM-DD
	Description string  `json:"description"`
	WeightGrams float64 `json:"weight_grams"`
}

// Attribution records who ran the experiments and where.
type Attribution struct {
	Experimenters []string `json:"experimenters"`
	Lab           string   `json:"lab"`
	Institution   string   `json:"institution"`
}

// Camera describes one behavioral tracking camera available to tasks.
type Camera struct {
	ID             int     `json:"id"`
	MetersPerPixel float64 `json:"meters_per_pixel"`
	Manufacturer   string  `json:"manufacturer"`
	Model          string  `json:"model"`
	Lens           string  `json:"lens"`
	Name           string  `json:"camera_name"`
}

// DataAcqDevice describes one acquisition system attached to the rig.
type DataAcqDevice struct {
	Name         string `json:"name"`
	System       string `json:"system"`
	Amplifier    string `json:"amplifier"`
	ADCCircuitry string `json:"adc_circuitry"`
}

// BehavioralEvent maps a digital IO line name to its meaning.
type BehavioralEvent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Task describes one behavioral task run during a day, with the epochs it
// spans and the cameras that recorded it.
type Task struct {
	Name        string `json:"task_name"`
	Description string `json:"task_description"`
	CameraIDs   []int  `json:"camera_ids"`
	Epochs      []int  `json:"task_epochs"`
}

// ElectrodeGroup is a physically co-located set of recording channels, for
// example one tetrode or one probe shank group. IDs are stable non-negative
// integers unique within the owning animal; lookups go by ID, never by slice
// position.
type ElectrodeGroup struct {
	ID               int     `json:"id"`
	Location         string  `json:"location"`
	DeviceType       string  `json:"device_type"`
	Description      string  `json:"description"`
	TargetedLocation string  `json:"targeted_location"`
	TargetedX        float64 `json:"targeted_x"`
	TargetedY        float64 `json:"targeted_y"`
	TargetedZ        float64 `json:"targeted_z"`
	Units            string  `json:"units"`
}

// UnassignedChannel is the sentinel value marking a logical channel with no
// hardware channel assigned.
const UnassignedChannel = -1

// NtrodeChannelMap assigns the logical channels of one shank to hardware
// channels. Map is indexed by logical channel; a value of UnassignedChannel
// means the slot is unmapped. Ntrode IDs are unique across the whole animal
// and monotonically assigned, never reused after deletion.
type NtrodeChannelMap struct {
	NtrodeID         int   `json:"ntrode_id"`
	ElectrodeGroupID int   `json:"electrode_group_id"`
	Map              []int `json:"map"`
	BadChannels      []int `json:"bad_channels"`
}

// DeviceSet groups the hardware configuration owned by an animal template.
type DeviceSet struct {
	ElectrodeGroups []ElectrodeGroup   `json:"electrode_groups"`
	ChannelMaps     []NtrodeChannelMap `json:"ntrode_channel_maps"`
}

// Animal is the reusable per-subject template that recording days inherit
// from. Days store deltas only; everything here is the shared baseline.
type Animal struct {
	Base
	Subject          Subject           `json:"subject"`
	Attribution      Attribution       `json:"attribution"`
	Devices          DeviceSet         `json:"devices"`
	Cameras          []Camera          `json:"cameras"`
	DataAcqDevices   []DataAcqDevice   `json:"data_acq_devices"`
	BehavioralEvents []BehavioralEvent `json:"behavioral_events"`
	DayIDs           []string          `json:"day_ids"`
}

// SessionInfo carries the day-specific descriptive fields.
type SessionInfo struct {
	SessionID             string `json:"session_id"`
	SessionDescription    string `json:"session_description"`
	ExperimentDescription string `json:"experiment_description"`
}

// Day is one recording session owned by exactly one animal. It holds only
// deltas against the animal template: session text, tasks, and per-day
// bad-channel overrides keyed by electrode group ID. Inherited hardware
// configuration is never copied here; the merge resolver joins the two on
// demand.
type Day struct {
	Base
	AnimalID            string        `json:"animal_id"`
	Date                string        `json:"date"` // YYYY-MM-DD
	Session             SessionInfo   `json:"session"`
	Tasks               []Task        `json:"tasks"`
	BadChannelOverrides map[int][]int `json:"bad_channel_overrides,omitempty"`
	State               DayState      `json:"state"`
	SnapshotID          string        `json:"configuration_snapshot_ref,omitempty"`
}

// ConfigurationSnapshot is an immutable copy of an animal's device
// configuration taken at a point in time, used to diff probe
// reconfigurations across sessions. Never mutated after creation.
type ConfigurationSnapshot struct {
	Base
	AnimalID string    `json:"animal_id"`
	Devices  DeviceSet `json:"devices"`
}

// EffectiveDay is the fully merged document validated and exported for one
// session: the day's own fields plus everything inherited from the animal,
// with per-day bad-channel overrides already applied. It is a derived view,
// never stored.
type EffectiveDay struct {
	SessionID             string             `json:"session_id"`
	SessionDescription    string             `json:"session_description"`
	ExperimentDescription string             `json:"experiment_description"`
	Date                  string             `json:"date"`
	Subject               Subject            `json:"subject"`
	Experimenters         []string           `json:"experimenters"`
	Lab                   string             `json:"lab"`
	Institution           string             `json:"institution"`
	DataAcqDevices        []DataAcqDevice    `json:"data_acq_devices"`
	Cameras               []Camera           `json:"cameras"`
	Tasks                 []Task             `json:"tasks"`
	BehavioralEvents      []BehavioralEvent  `json:"behavioral_events"`
	ElectrodeGroups       []ElectrodeGroup   `json:"electrode_groups"`
	ChannelMaps           []NtrodeChannelMap `json:"ntrode_channel_maps"`
}
