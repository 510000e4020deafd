package translator

import (
	"fmt"
	"strings"

	"emberc/internal/chunk"
	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/naming"
	"emberc/internal/types"
)

func findDataSet(sets []*dataSet, id graph.DataSetID) *dataSet {
	for _, ds := range sets {
		if ds.id == id {
			return ds
		}
	}
	return nil
}

// readDataSet reads one record of a secondary data set into the context.
func (a *arena) readDataSet(n *graph.Node, rd *graph.ReadDataSet) []chunk.ID {
	outs := nones(len(n.Outputs))
	ds := findDataSet(a.reads, rd.DataSet)
	if ds == nil {
		ds = newDataSet(rd.DataSet)
		a.reads = append(a.reads, ds)
	}
	acc, ok := ds.at(chunk.None)
	if !ok {
		acc = &access{}
		ds.put(chunk.None, acc)
	}
	prefix := "Context." + rd.DataSet.Name + "Read."
	for i, v := range rd.Vars {
		if i >= len(outs) || !a.defineStruct(v.Type, v.Name, n) {
			continue
		}
		acc.add(v, chunk.None)
		outs[i] = a.store.AddSource(prefix+naming.Sanitize(v.Name, false), v.Type)
	}
	return outs
}

// writeDataSet fills the write record of a secondary data set. One record
// per data set and condition may be written.
func (a *arena) writeDataSet(n *graph.Node, wd *graph.WriteDataSet) {
	ins := a.compileInputs(n)
	if !n.Enabled() || len(ins) == 0 {
		return
	}
	ds := findDataSet(a.writes, wd.DataSet)
	if ds == nil {
		ds = newDataSet(wd.DataSet)
		a.writes = append(a.writes, ds)
	}
	if _, dup := ds.at(chunk.None); dup {
		a.errorf(diag.DstDuplicateWrite, n, nil, "Writing to the same dataset with the same condition/index.")
		return
	}
	acc := &access{}
	ds.put(chunk.None, acc)
	ds.condition = ins[0]

	name := "Context." + wd.DataSet.Name + "Write"
	a.store.AddBody(name+"_Valid", "{0}", types.Bool, []chunk.ID{ins[0]}, false, true)
	for i, v := range wd.Vars {
		if i+1 >= len(ins) || !a.defineStruct(v.Type, v.Name, n) {
			continue
		}
		id := a.store.AddBody(name+"."+naming.Sanitize(v.Name, false), "{0}", v.Type, []chunk.ID{ins[i+1]}, false, true)
		acc.add(v, id)
	}
}

// dataSetDeclarations declares one struct per secondary data set and, on
// the GPU, the buffers backing them.
func (a *arena) dataSetDeclarations() string {
	var sb strings.Builder
	declared := make(map[string]bool)
	declare := func(ds *dataSet) {
		if declared[ds.id.Name] {
			return
		}
		declared[ds.id.Name] = true
		fmt.Fprintf(&sb, "struct F%sDataSet\n{\n", ds.id.Name)
		for _, v := range a.dataSetVars(ds.id) {
			fmt.Fprintf(&sb, "\t%s %s;\n", v.Type.HLSLName(), naming.Sanitize(v.Name, false))
		}
		sb.WriteString("};\n\n")
	}
	for _, ds := range a.reads {
		declare(ds)
	}
	for _, ds := range a.writes {
		declare(ds)
	}
	if !a.gpu {
		return sb.String()
	}
	for i := range a.reads {
		idx := i + 1
		fmt.Fprintf(&sb, "Buffer<float> ReadDataSetFloat%d;\n", idx)
		fmt.Fprintf(&sb, "Buffer<int> ReadDataSetInt%d;\n", idx)
		fmt.Fprintf(&sb, "int DSComponentBufferSizeReadFloat%d;\n", idx)
		fmt.Fprintf(&sb, "int DSComponentBufferSizeReadInt%d;\n", idx)
	}
	for i := range a.writes {
		idx := i + 1
		fmt.Fprintf(&sb, "RWBuffer<float> RWWriteDataSetFloat%d;\n", idx)
		fmt.Fprintf(&sb, "RWBuffer<int> RWWriteDataSetInt%d;\n", idx)
		fmt.Fprintf(&sb, "int DSComponentBufferSizeWriteFloat%d;\n", idx)
		fmt.Fprintf(&sb, "int DSComponentBufferSizeWriteInt%d;\n", idx)
	}
	if len(a.reads)+len(a.writes) > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

// dataSetVars is the union of the variables read and written on id, in
// first access order.
func (a *arena) dataSetVars(id graph.DataSetID) []graph.Variable {
	var vars []graph.Variable
	for _, sets := range [][]*dataSet{a.reads, a.writes} {
		if ds := findDataSet(sets, id); ds != nil {
			for _, v := range ds.vars() {
				vars = appendUniqueVar(vars, v)
			}
		}
	}
	return vars
}

// register is one scalar slot of a data set layout.
type register struct {
	suffix string
	base   types.BaseKind
	index  int
}

// registers lays vars out in consecutive registers, counted per base
// kind.
func (a *arena) registers(vars []graph.Variable) [][]register {
	counts := make(map[types.BaseKind]int)
	out := make([][]register, len(vars))
	for i, v := range vars {
		for _, c := range a.types.Components(v.Type) {
			out[i] = append(out[i], register{suffix: c.Suffix, base: c.Base, index: counts[c.Base]})
			counts[c.Base]++
		}
	}
	return out
}

// readDataSetsFunction copies the records of every read data set into the
// context.
func (a *arena) readDataSetsFunction() string {
	var sb strings.Builder
	gpuEvent := a.gpu && a.usage.IsParticleEvent()
	if gpuEvent {
		sb.WriteString("void ReadDataSets(inout FSimulationContext Context, int SetInstanceIndex)\n{\n")
	} else {
		sb.WriteString("void ReadDataSets(inout FSimulationContext Context)\n{\n")
	}
	if a.usage.IsParticleSpawn() {
		sb.WriteString("}\n\n")
		return sb.String()
	}
	for i, ds := range a.reads {
		idx := i + 1
		vars := a.dataSetVars(ds.id)
		for vi, regs := range a.registers(vars) {
			field := naming.Sanitize(vars[vi].Name, false)
			for _, r := range regs {
				target := fmt.Sprintf("Context.%sRead.%s%s", ds.id.Name, field, r.suffix)
				if a.gpu {
					fmt.Fprintf(&sb, "\t%s = ReadDataSet%s%d[%d*DSComponentBufferSizeRead%s%d + SetInstanceIndex];\n",
						target, r.base, idx, r.index, r.base, idx)
				} else {
					fmt.Fprintf(&sb, "\t%s = InputDataNoadvance%s(%d, %d);\n", target, r.base, idx, r.index)
				}
			}
		}
	}
	sb.WriteString("}\n\n")
	return sb.String()
}

// writeDataSetsFunction appends one record to every written data set.
func (a *arena) writeDataSetsFunction() string {
	var sb strings.Builder
	sb.WriteString("void WriteDataSets(inout FSimulationContext Context)\n{\n")
	if len(a.writes) > 0 {
		sb.WriteString("\tint TmpWriteIndex;\n\tbool bValid;\n")
	}
	for i, ds := range a.writes {
		idx := i + 1
		if ds.condition != chunk.None {
			fmt.Fprintf(&sb, "\tbValid = Context.%sWrite_Valid;\n", ds.id.Name)
		} else {
			sb.WriteString("\tbValid = true;\n")
		}
		fmt.Fprintf(&sb, "\tTmpWriteIndex = AcquireIndex(%d, bValid);\n", idx)
		if a.gpu {
			sb.WriteString("\tif(TmpWriteIndex>=0)\n\t{\n")
		}
		vars := a.dataSetVars(ds.id)
		for vi, regs := range a.registers(vars) {
			field := naming.Sanitize(vars[vi].Name, false)
			for _, r := range regs {
				value := fmt.Sprintf("Context.%sWrite.%s%s", ds.id.Name, field, r.suffix)
				if a.gpu {
					fmt.Fprintf(&sb, "\t\tRWWriteDataSet%s%d[%d*DSComponentBufferSizeWrite%s%d + TmpWriteIndex] = %s;\n",
						r.base, idx, r.index, r.base, idx, value)
				} else {
					fmt.Fprintf(&sb, "\t\tOutputData%s(%d, %d, TmpWriteIndex, %s);\n", r.base, idx, r.index, value)
				}
			}
		}
		if a.gpu {
			sb.WriteString("\t}\n")
		}
	}
	sb.WriteString("}\n\n")
	return sb.String()
}
