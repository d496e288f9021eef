// Package wire implements the serialization contract for merged day
// documents. The wire format is the YAML metadata file consumed by the
// downstream conversion pipeline, which tolerates no field renaming,
// reordering, or numeric-type drift. Encoding is fully deterministic: the
// same logical document always produces byte-identical text, with key and
// element order derived only from the document itself, never from Go map
// iteration order.
package wire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sessioncore/pkg/domain"
)

// Encode serializes a merged day document to wire text.
func Encode(doc domain.EffectiveDay) ([]byte, error) {
	root := buildDocument(doc)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses wire text back into a merged day document. Malformed input
// yields a domain.DecodeError and never a partially populated document.
func Decode(text []byte) (domain.EffectiveDay, error) {
	dec := yaml.NewDecoder(bytes.NewReader(text))
	dec.KnownFields(true)
	var w wireDocument
	if err := dec.Decode(&w); err != nil {
		return domain.EffectiveDay{}, domain.DecodeError{Reason: "malformed document", Err: err}
	}
	doc, err := w.toDomain()
	if err != nil {
		return domain.EffectiveDay{}, err
	}
	return doc, nil
}

// Node construction -----------------------------------------------------------

func strNode(v string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	if v == "" || looksAmbiguous(v) {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

// looksAmbiguous reports whether a string would re-resolve as a non-string
// scalar (or lose leading/trailing space) without quoting.
func looksAmbiguous(v string) bool {
	if strings.TrimSpace(v) != v {
		return true
	}
	var probe any
	if err := yaml.Unmarshal([]byte(v), &probe); err != nil {
		return true
	}
	_, isString := probe.(string)
	return !isString
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

// floatNode renders a float so it re-parses as a float: integral values get
// a trailing ".0" rather than an explicit tag.
func floatNode(v float64) *yaml.Node {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}
}

func seqNode(items []*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

func intSeqNode(values []int) *yaml.Node {
	items := make([]*yaml.Node, 0, len(values))
	for _, v := range values {
		items = append(items, intNode(v))
	}
	return seqNode(items)
}

func strSeqNode(values []string) *yaml.Node {
	items := make([]*yaml.Node, 0, len(values))
	for _, v := range values {
		items = append(items, strNode(v))
	}
	return seqNode(items)
}

// mapping builds a mapping node from alternating key/value pairs, preserving
// the given order.
type mapping struct {
	node *yaml.Node
}

func newMapping() *mapping {
	return &mapping{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func (m *mapping) set(key string, value *yaml.Node) *mapping {
	m.node.Content = append(m.node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
	return m
}

func buildDocument(doc domain.EffectiveDay) *yaml.Node {
	return newMapping().
		set("experimenter_name", strSeqNode(doc.Experimenters)).
		set("lab", strNode(doc.Lab)).
		set("institution", strNode(doc.Institution)).
		set("experiment_description", strNode(doc.ExperimentDescription)).
		set("session_description", strNode(doc.SessionDescription)).
		set("session_id", strNode(doc.SessionID)).
		set("date", strNode(doc.Date)).
		set("subject", buildSubject(doc.Subject)).
		set("data_acq_device", buildDataAcqDevices(doc.DataAcqDevices)).
		set("cameras", buildCameras(doc.Cameras)).
		set("tasks", buildTasks(doc.Tasks)).
		set("behavioral_events", buildBehavioralEvents(doc.BehavioralEvents)).
		set("electrode_groups", buildElectrodeGroups(doc.ElectrodeGroups)).
		set("ntrode_electrode_group_channel_map", buildChannelMaps(doc.ChannelMaps)).
		node
}

func buildSubject(s domain.Subject) *yaml.Node {
	return newMapping().
		set("description", strNode(s.Description)).
		set("genotype", strNode(s.Genotype)).
		set("sex", strNode(s.Sex)).
		set("species", strNode(s.Species)).
		set("subject_id", strNode(s.SubjectID)).
		set("date_of_birth", strNode(s.DateOfBirth)).
		set("weight", floatNode(s.WeightGrams)).
		node
}

func buildDataAcqDevices(devices []domain.DataAcqDevice) *yaml.Node {
	items := make([]*yaml.Node, 0, len(devices))
	for _, d := range devices {
		items = append(items, newMapping().
			set("name", strNode(d.Name)).
			set("system", strNode(d.System)).
			set("amplifier", strNode(d.Amplifier)).
			set("adc_circuitry", strNode(d.ADCCircuitry)).
			node)
	}
	return seqNode(items)
}

func buildCameras(cameras []domain.Camera) *yaml.Node {
	items := make([]*yaml.Node, 0, len(cameras))
	for _, c := range cameras {
		items = append(items, newMapping().
			set("id", intNode(c.ID)).
			set("meters_per_pixel", floatNode(c.MetersPerPixel)).
			set("manufacturer", strNode(c.Manufacturer)).
			set("model", strNode(c.Model)).
			set("lens", strNode(c.Lens)).
			set("camera_name", strNode(c.Name)).
			node)
	}
	return seqNode(items)
}

func buildTasks(tasks []domain.Task) *yaml.Node {
	items := make([]*yaml.Node, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, newMapping().
			set("task_name", strNode(t.Name)).
			set("task_description", strNode(t.Description)).
			set("camera_id", intSeqNode(t.CameraIDs)).
			set("task_epochs", intSeqNode(t.Epochs)).
			node)
	}
	return seqNode(items)
}

func buildBehavioralEvents(events []domain.BehavioralEvent) *yaml.Node {
	items := make([]*yaml.Node, 0, len(events))
	for _, e := range events {
		items = append(items, newMapping().
			set("description", strNode(e.Description)).
			set("name", strNode(e.Name)).
			node)
	}
	return seqNode(items)
}

func buildElectrodeGroups(groups []domain.ElectrodeGroup) *yaml.Node {
	items := make([]*yaml.Node, 0, len(groups))
	for _, g := range groups {
		items = append(items, newMapping().
			set("id", intNode(g.ID)).
			set("location", strNode(g.Location)).
			set("device_type", strNode(g.DeviceType)).
			set("description", strNode(g.Description)).
			set("targeted_location", strNode(g.TargetedLocation)).
			set("targeted_x", floatNode(g.TargetedX)).
			set("targeted_y", floatNode(g.TargetedY)).
			set("targeted_z", floatNode(g.TargetedZ)).
			set("units", strNode(g.Units)).
			node)
	}
	return seqNode(items)
}

func buildChannelMaps(maps []domain.NtrodeChannelMap) *yaml.Node {
	items := make([]*yaml.Node, 0, len(maps))
	for _, m := range maps {
		logical := newMapping()
		for i, hw := range m.Map {
			logical.node.Content = append(logical.node.Content, intNode(i), intNode(hw))
		}
		items = append(items, newMapping().
			set("ntrode_id", intNode(m.NtrodeID)).
			set("electrode_group_id", intNode(m.ElectrodeGroupID)).
			set("bad_channels", intSeqNode(m.BadChannels)).
			set("map", logical.node).
			node)
	}
	return seqNode(items)
}

// Decoding --------------------------------------------------------------------

type wireSubject struct {
	Description string  `yaml:"description"`
	Genotype    string  `yaml:"genotype"`
	Sex         string  `yaml:"sex"`
	Species     string  `yaml:"species"`
	SubjectID   string  `yaml:"subject_id"`
	DateOfBirth string  `yaml:"date_of_birth"`
	Weight      float64 `yaml:"weight"`
}

type wireDataAcqDevice struct {
	Name         string `yaml:"name"`
	System       string `yaml:"system"`
	Amplifier    string `yaml:"amplifier"`
	ADCCircuitry string `yaml:"adc_circuitry"`
}

type wireCamera struct {
	ID             int     `yaml:"id"`
	MetersPerPixel float64 `yaml:"meters_per_pixel"`
	Manufacturer   string  `yaml:"manufacturer"`
	Model          string  `yaml:"model"`
	Lens           string  `yaml:"lens"`
	CameraName     string  `yaml:"camera_name"`
}

type wireTask struct {
	TaskName        string `yaml:"task_name"`
	TaskDescription string `yaml:"task_description"`
	CameraID        []int  `yaml:"camera_id"`
	TaskEpochs      []int  `yaml:"task_epochs"`
}

type wireBehavioralEvent struct {
	Description string `yaml:"description"`
	Name        string `yaml:"name"`
}

type wireElectrodeGroup struct {
	ID               int     `yaml:"id"`
	Location         string  `yaml:"location"`
	DeviceType       string  `yaml:"device_type"`
	Description      string  `yaml:"description"`
	TargetedLocation string  `yaml:"targeted_location"`
	TargetedX        float64 `yaml:"targeted_x"`
	TargetedY        float64 `yaml:"targeted_y"`
	TargetedZ        float64 `yaml:"targeted_z"`
	Units            string  `yaml:"units"`
}

type wireChannelMap struct {
	NtrodeID         int         `yaml:"ntrode_id"`
	ElectrodeGroupID int         `yaml:"electrode_group_id"`
	BadChannels      []int       `yaml:"bad_channels"`
	Map              map[int]int `yaml:"map"`
}

type wireDocument struct {
	ExperimenterName      []string              `yaml:"experimenter_name"`
	Lab                   string                `yaml:"lab"`
	Institution           string                `yaml:"institution"`
	ExperimentDescription string                `yaml:"experiment_description"`
	SessionDescription    string                `yaml:"session_description"`
	SessionID             string                `yaml:"session_id"`
	Date                  string                `yaml:"date"`
	Subject               wireSubject           `yaml:"subject"`
	DataAcqDevice         []wireDataAcqDevice   `yaml:"data_acq_device"`
	Cameras               []wireCamera          `yaml:"cameras"`
	Tasks                 []wireTask            `yaml:"tasks"`
	BehavioralEvents      []wireBehavioralEvent `yaml:"behavioral_events"`
	ElectrodeGroups       []wireElectrodeGroup  `yaml:"electrode_groups"`
	ChannelMaps           []wireChannelMap      `yaml:"ntrode_electrode_group_channel_map"`
}

func (w wireDocument) toDomain() (domain.EffectiveDay, error) {
	doc := domain.EffectiveDay{
		SessionID:             w.SessionID,
		SessionDescription:    w.SessionDescription,
		ExperimentDescription: w.ExperimentDescription,
		Date:                  w.Date,
		Subject: domain.Subject{
			SubjectID:   w.Subject.SubjectID,
			Species:     w.Subject.Species,
			Sex:         w.Subject.Sex,
			Genotype:    w.Subject.Genotype,
			DateOfBirth: w.Subject.DateOfBirth,
			Description: w.Subject.Description,
			WeightGrams: w.Subject.Weight,
		},
		Experimenters:    emptyIfNilStrings(w.ExperimenterName),
		Lab:              w.Lab,
		Institution:      w.Institution,
		DataAcqDevices:   make([]domain.DataAcqDevice, 0, len(w.DataAcqDevice)),
		Cameras:          make([]domain.Camera, 0, len(w.Cameras)),
		Tasks:            make([]domain.Task, 0, len(w.Tasks)),
		BehavioralEvents: make([]domain.BehavioralEvent, 0, len(w.BehavioralEvents)),
		ElectrodeGroups:  make([]domain.ElectrodeGroup, 0, len(w.ElectrodeGroups)),
		ChannelMaps:      make([]domain.NtrodeChannelMap, 0, len(w.ChannelMaps)),
	}
	for _, d := range w.DataAcqDevice {
		doc.DataAcqDevices = append(doc.DataAcqDevices, domain.DataAcqDevice{
			Name:         d.Name,
			System:       d.System,
			Amplifier:    d.Amplifier,
			ADCCircuitry: d.ADCCircuitry,
		})
	}
	for _, c := range w.Cameras {
		doc.Cameras = append(doc.Cameras, domain.Camera{
			ID:             c.ID,
			MetersPerPixel: c.MetersPerPixel,
			Manufacturer:   c.Manufacturer,
			Model:          c.Model,
			Lens:           c.Lens,
			Name:           c.CameraName,
		})
	}
	for _, t := range w.Tasks {
		doc.Tasks = append(doc.Tasks, domain.Task{
			Name:        t.TaskName,
			Description: t.TaskDescription,
			CameraIDs:   emptyIfNilInts(t.CameraID),
			Epochs:      emptyIfNilInts(t.TaskEpochs),
		})
	}
	for _, e := range w.BehavioralEvents {
		doc.BehavioralEvents = append(doc.BehavioralEvents, domain.BehavioralEvent{
			Name:        e.Name,
			Description: e.Description,
		})
	}
	for _, g := range w.ElectrodeGroups {
		doc.ElectrodeGroups = append(doc.ElectrodeGroups, domain.ElectrodeGroup{
			ID:               g.ID,
			Location:         g.Location,
			DeviceType:       g.DeviceType,
			Description:      g.Description,
			TargetedLocation: g.TargetedLocation,
			TargetedX:        g.TargetedX,
			TargetedY:        g.TargetedY,
			TargetedZ:        g.TargetedZ,
			Units:            g.Units,
		})
	}
	for i, m := range w.ChannelMaps {
		logical, err := logicalMapToSlice(m.Map)
		if err != nil {
			return domain.EffectiveDay{}, domain.DecodeError{
				Reason: fmt.Sprintf("ntrode_electrode_group_channel_map[%d].map", i),
				Err:    err,
			}
		}
		doc.ChannelMaps = append(doc.ChannelMaps, domain.NtrodeChannelMap{
			NtrodeID:         m.NtrodeID,
			ElectrodeGroupID: m.ElectrodeGroupID,
			Map:              logical,
			BadChannels:      emptyIfNilInts(m.BadChannels),
		})
	}
	return doc, nil
}

// logicalMapToSlice converts the wire mapping {logical: hardware} into the
// slice representation. Logical keys must be exactly 0..n-1; anything else
// is malformed.
func logicalMapToSlice(m map[int]int) ([]int, error) {
	out := make([]int, len(m))
	seen := make([]bool, len(m))
	for logical, hw := range m {
		if logical < 0 || logical >= len(m) {
			return nil, fmt.Errorf("logical channel %d outside contiguous range [0,%d)", logical, len(m))
		}
		if seen[logical] {
			return nil, fmt.Errorf("logical channel %d repeated", logical)
		}
		seen[logical] = true
		out[logical] = hw
	}
	return out, nil
}

func emptyIfNilInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}

func emptyIfNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
