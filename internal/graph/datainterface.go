package graph

import (
	"strings"

	"emberc/internal/types"
)

// DataInterface is an external capability exposed to scripts as a set of
// member functions (a curve sampler, a mesh sampler, a noise field).
type DataInterface struct {
	// Class is the type name; variables of this interface have type
	// types.DataInterface(Class).
	Class     string
	Functions []Signature
	// PerInstanceDataSize > 0 reserves a user pointer slot per instance.
	PerInstanceDataSize int
	GPU                 bool
	// GPUBuffers are buffer names declared per instance on GPU targets.
	GPUBuffers []string
	// GPUFunctions maps a function name to its GPU body. The placeholders
	// {Symbol} (the generated function symbol) and {Owner} (the sanitised
	// instance name) are substituted.
	GPUFunctions map[string]string
}

// Type is the variable type of instances of the interface.
func (d *DataInterface) Type() types.Def { return types.DataInterface(d.Class) }

// HasFunction reports whether sig matches one of the declared functions.
func (d *DataInterface) HasFunction(sig Signature) bool {
	for _, f := range d.Functions {
		if f.Equal(sig) {
			return true
		}
	}
	return false
}

// BufferNames returns the GPU buffer names for the instance owner.
func (d *DataInterface) BufferNames(owner string) []string {
	out := make([]string, 0, len(d.GPUBuffers))
	for _, b := range d.GPUBuffers {
		out = append(out, b+"_"+owner)
	}
	return out
}

// BufferHLSL declares the GPU buffers of the instance owner.
func (d *DataInterface) BufferHLSL(owner string) string {
	var sb strings.Builder
	for _, name := range d.BufferNames(owner) {
		sb.WriteString("Buffer<float> ")
		sb.WriteString(name)
		sb.WriteString(";\n")
	}
	return sb.String()
}

// FunctionHLSL renders the GPU body of function fn for the given symbol and
// owner; ok is false when the interface declares no GPU body for fn.
func (d *DataInterface) FunctionHLSL(fn, symbol, owner string) (string, bool) {
	body, ok := d.GPUFunctions[fn]
	if !ok {
		return "", false
	}
	r := strings.NewReplacer("{Symbol}", symbol, "{Owner}", owner)
	return r.Replace(body), true
}
