// Package device provides the read-only registry of supported probe
// geometries. The registry maps a device-type key to its shank count and
// channels per shank; the configuration core only reads it.
package device

import (
	"sort"

	"sessioncore/pkg/domain"
)

// Geometry describes the physical layout of one device type.
type Geometry struct {
	ShankCount       int `json:"shank_count"`
	ChannelsPerShank int `json:"channels_per_shank"`
}

// TotalChannels returns the number of hardware channels across all shanks.
func (g Geometry) TotalChannels() int {
	return g.ShankCount * g.ChannelsPerShank
}

// Registry is an immutable device-type lookup table.
type Registry struct {
	geometries map[string]Geometry
}

// NewRegistry builds a registry from the given table. The table is copied;
// later mutation of the argument does not affect the registry.
func NewRegistry(table map[string]Geometry) *Registry {
	geoms := make(map[string]Geometry, len(table))
	for name, g := range table {
		geoms[name] = g
	}
	return &Registry{geometries: geoms}
}

// Builtin returns the registry of probe types supported by the downstream
// conversion pipeline.
func Builtin() *Registry {
	return NewRegistry(map[string]Geometry{
		"tetrode_12.5":                  {ShankCount: 1, ChannelsPerShank: 4},
		"A1x32-6mm-50-177-H32_21mm":     {ShankCount: 1, ChannelsPerShank: 32},
		"32c-2s8mm6cm-20um-40um-dl":     {ShankCount: 2, ChannelsPerShank: 16},
		"64c-4s6mm6cm-20um-40um-dl":     {ShankCount: 4, ChannelsPerShank: 16},
		"128c-4s8mm6cm-20um-40um-sl":    {ShankCount: 4, ChannelsPerShank: 32},
		"128c-4s6mm6cm-15um-26um-sl":    {ShankCount: 4, ChannelsPerShank: 32},
		"neuropixels_1.0_384ch_default": {ShankCount: 1, ChannelsPerShank: 384},
	})
}

// Lookup resolves a device-type key, returning UnknownDeviceTypeError when
// the key is not registered.
func (r *Registry) Lookup(name string) (Geometry, error) {
	g, ok := r.geometries[name]
	if !ok {
		return Geometry{}, domain.UnknownDeviceTypeError{Name: name}
	}
	return g, nil
}

// Contains reports whether the device type is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.geometries[name]
	return ok
}

// Names returns all registered device-type keys in lexical order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.geometries))
	for name := range r.geometries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
