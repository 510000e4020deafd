package translator

import (
	"fmt"
	"strings"

	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/observ"
	"emberc/internal/types"
)

// Target selects the simulation backend the HLSL is generated for.
type Target uint8

const (
	TargetCPU Target = iota
	TargetGPU
)

func (t Target) String() string {
	if t == TargetGPU {
		return "gpu"
	}
	return "cpu"
}

// ParseTarget accepts "cpu" and "gpu", case-insensitively.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return TargetCPU, nil
	case "gpu":
		return TargetGPU, nil
	}
	return TargetCPU, fmt.Errorf("unknown target %q (want cpu or gpu)", s)
}

const defaultMaxDiagnostics = 256

// Options configures one translation.
type Options struct {
	Target Target
	// RapidIteration keeps module inputs as uniforms so they can be edited
	// without recompiling. When off, baked overrides become constants.
	RapidIteration bool
	// StatScopes emits EnterStatScope/ExitStatScope markers around the
	// script body and every function call.
	StatScopes bool
	// MaxDiagnostics caps the diagnostics bag; 0 means 256.
	MaxDiagnostics int
	// Types resolves user struct layouts. Nil means built-in types only.
	Types *types.Registry
	// Timings records per-phase durations into Results.Timings.
	Timings bool
}

// DataSetInfo lists the variables accessed on one data set.
type DataSetInfo struct {
	ID   graph.DataSetID
	Vars []graph.Variable
}

// DataInterfaceInfo describes a data interface instance used by the script.
type DataInterfaceInfo struct {
	Name      string
	Type      types.Def
	Interface *graph.DataInterface
	// UserPtrIdx is the per-instance user pointer slot, or -1.
	UserPtrIdx int
	Functions  []graph.Signature
}

// StatScope is one profiling scope referenced by the generated code.
type StatScope struct {
	FullName     string
	FriendlyName string
}

// Results is everything a translation produces. HLSL is empty unless OK.
type Results struct {
	OK          bool
	HLSL        string
	Diagnostics *diag.Bag

	// Attributes are the per-instance variables the script binds, sorted
	// by name, without the Particles namespace.
	Attributes    []graph.Variable
	DataSetReads  []DataSetInfo
	DataSetWrites []DataSetInfo

	DataInterfaces []DataInterfaceInfo
	NumUserPtrs    int
	// Functions are the generated function signatures in definition order.
	Functions []graph.Signature
	// Parameters are the external values bound as uniforms.
	Parameters  []graph.Variable
	Collections []*graph.Collection
	StatScopes  []StatScope

	ReadsAttributeData bool
	Timings            observ.Report
}
