package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_DecisionTable(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  State
	}{
		{name: "all three systems", roles: []string{"CsgA", "CopA", "SodA"}, want: StateActive},
		{name: "all three via functional terms", roles: []string{"curli production", "copper efflux", "superoxide dismutase"}, want: StateActive},
		{name: "amyloid and copper only", roles: []string{"CsgA", "CsgB", "CopA"}, want: StateLikely},
		{name: "copper and sod only", roles: []string{"CusA", "CueO", "SodB", "katG"}, want: StateLikely},
		{name: "sod only", roles: []string{"SodA"}, want: StateUnknown},
		{name: "amyloid only", roles: []string{"CsgA", "CsgB", "TasA"}, want: StateUnknown},
		{name: "unmapped roles still count as detected", roles: []string{"mysteryGene"}, want: StateUnknown},
		{name: "no roles", roles: nil, want: StateInactive},
		{name: "blank roles ignored", roles: []string{"", "  "}, want: StateInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.roles))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// A role set matching the active rule must never fall through to a lower
	// state, regardless of how many extra roles are present.
	roles := []string{"CsgA", "CopA", "SodA", "katG", "cueO", "tasA", "unmappedX"}
	assert.Equal(t, StateActive, Classify(roles))
}

func TestSystemOf(t *testing.T) {
	tests := []struct {
		role   string
		system System
		ok     bool
	}{
		{role: "CsgA", system: SystemAmyloid, ok: true},
		{role: "csga", system: SystemAmyloid, ok: true},
		{role: "tapA", system: SystemAmyloid, ok: true},
		{role: "CopA", system: SystemCopper, ok: true},
		{role: "cutC", system: SystemCopper, ok: true},
		{role: "SodC", system: SystemSOD, ok: true},
		{role: "katE", system: SystemSOD, ok: true},
		{role: "trxB", system: SystemSOD, ok: true},
		{role: "copper chaperone", system: SystemCopper, ok: true},
		{role: "manganese superoxide dismutase", system: SystemSOD, ok: true},
		{role: "copper zinc superoxide dismutase", system: SystemSOD, ok: true},
		{role: "Copper-zinc superoxide dismutase precursor", system: SystemSOD, ok: true},
		{role: "phenol-soluble modulin", system: SystemAmyloid, ok: true},
		{role: "P-type ATPase copper", system: SystemCopper, ok: true},
		{role: "dnaA", ok: false},
		{role: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			s, ok := SystemOf(tt.role)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.system, s)
			}
		})
	}
}

func TestSystemCounts(t *testing.T) {
	counts := SystemCounts([]string{"CsgA", "CsgB", "CopA", "SodA", "unmapped"})

	assert.Equal(t, 2, counts[SystemAmyloid])
	assert.Equal(t, 1, counts[SystemCopper])
	assert.Equal(t, 1, counts[SystemSOD])
}
