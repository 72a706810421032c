package convert

import (
	"sort"
	"strings"
)

// DefaultEmissivityValue is returned for surfaces that are not in a table.
const DefaultEmissivityValue = 1.0

var emissivityPresets = map[string]float64{
	"blackbody": 1.00,
	"track":     0.94,
	"asphalt":   0.93,
	"concrete":  0.92,
	"grass":     0.96,
	"water":     0.96,
	"soil":      0.92,
	"sand":      0.90,
	"snow":      0.97,
	"rubber":    0.95,
}

// EmissivityTable maps surface names to emissivity. It is read-only once
// built and safe for concurrent use.
type EmissivityTable struct {
	m map[string]float64
}

// NewEmissivityTable copies presets, folding names to lower case.
func NewEmissivityTable(presets map[string]float64) *EmissivityTable {
	m := make(map[string]float64, len(presets))
	for k, v := range presets {
		m[strings.ToLower(k)] = v
	}
	return &EmissivityTable{m: m}
}

// DefaultEmissivity returns the table of common outdoor surfaces.
func DefaultEmissivity() *EmissivityTable {
	return NewEmissivityTable(emissivityPresets)
}

// Lookup returns the emissivity for surface, or 1.0 if it is unknown.
func (t *EmissivityTable) Lookup(surface string) float64 {
	return t.LookupOr(surface, DefaultEmissivityValue)
}

func (t *EmissivityTable) LookupOr(surface string, def float64) float64 {
	if v, ok := t.m[strings.ToLower(surface)]; ok {
		return v
	}
	return def
}

func (t *EmissivityTable) Has(surface string) bool {
	_, ok := t.m[strings.ToLower(surface)]
	return ok
}

// Surfaces returns the known surface names, sorted.
func (t *EmissivityTable) Surfaces() []string {
	out := make([]string, 0, len(t.m))
	for k := range t.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
