package translator

import (
	"fmt"
	"sort"
	"strings"

	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/naming"
	"emberc/internal/types"
)

const paramMapStruct = "FParamMap0"

// mapNamespace is one level of the parameter map: a namespace struct with
// value members and nested namespaces.
type mapNamespace struct {
	path     []string
	values   map[string]types.Def
	children map[string]*mapNamespace
}

func newMapNamespace(path []string) *mapNamespace {
	return &mapNamespace{
		path:     path,
		values:   make(map[string]types.Def),
		children: make(map[string]*mapNamespace),
	}
}

func (m *mapNamespace) structName() string {
	if len(m.path) == 0 {
		return paramMapStruct
	}
	return paramMapStruct + "_" + strings.Join(m.path, "_")
}

// paramMapVariables is every variable the parameter map carries.
func (a *arena) paramMapVariables() []graph.Variable {
	var vars []graph.Variable
	add := func(v graph.Variable) {
		if v.Type.IsDataInterface() || v.Type.IsParameterMap() || !v.Type.IsValid() || v.Type.IsNumeric() {
			return
		}
		vars = appendUniqueVar(vars, v)
	}
	for _, h := range a.others {
		for _, v := range h.Variables {
			add(v)
		}
	}
	for _, v := range a.definedSystem.values() {
		add(v)
	}
	for _, v := range a.definedAttrs.values() {
		add(v)
	}
	for _, v := range a.bulkVars {
		add(v)
	}
	for _, v := range a.instanceRead.vars {
		add(v)
	}
	if a.gpu {
		add(graph.Variable{Name: graph.NamespaceDataInstance + "Alive", Type: types.Bool})
	}
	return vars
}

// paramMapDefinitions declares the nested namespace structs of the
// parameter map, innermost first, with FParamMap0 last.
func (a *arena) paramMapDefinitions(vars []graph.Variable) string {
	root := newMapNamespace(nil)
	for _, v := range vars {
		parts := strings.Split(naming.Sanitize(v.Name, false), ".")
		if len(parts) < 2 {
			a.errorf(diag.NspUnresolved, nil, nil, "Only one namespace entry found for: %s", v.Name)
			continue
		}
		if !a.defineStruct(v.Type, v.Name, nil) {
			continue
		}
		cur := root
		ok := true
		for i, part := range parts[:len(parts)-1] {
			if _, clash := cur.values[part]; clash {
				a.errorf(diag.NspUnresolved, nil, nil, "Variable %s collides with the value %s.", v.Name, strings.Join(parts[:i+1], "."))
				ok = false
				break
			}
			next, found := cur.children[part]
			if !found {
				next = newMapNamespace(append(append([]string(nil), cur.path...), part))
				cur.children[part] = next
			}
			cur = next
		}
		if !ok {
			continue
		}
		leaf := parts[len(parts)-1]
		if _, clash := cur.children[leaf]; clash {
			a.errorf(diag.NspUnresolved, nil, nil, "Variable %s collides with a namespace of the same name.", v.Name)
			continue
		}
		if have, dup := cur.values[leaf]; dup && have != v.Type {
			a.errorf(diag.TypUnsupported, nil, nil, "Variable %s is used as both %s and %s.", v.Name, have.DisplayName(), v.Type.DisplayName())
			continue
		}
		cur.values[leaf] = v.Type
	}

	decls := make(map[string]string)
	var walk func(m *mapNamespace)
	walk = func(m *mapNamespace) {
		names := make([]string, 0, len(m.values)+len(m.children))
		for name := range m.values {
			names = append(names, name)
		}
		for name := range m.children {
			names = append(names, name)
		}
		sort.Strings(names)

		var sb strings.Builder
		fmt.Fprintf(&sb, "struct %s\n{\n", m.structName())
		for _, name := range names {
			if child, ok := m.children[name]; ok {
				fmt.Fprintf(&sb, "\t%s %s;\n", child.structName(), name)
				walk(child)
				continue
			}
			fmt.Fprintf(&sb, "\t%s %s;\n", m.values[name].HLSLName(), name)
		}
		sb.WriteString("};\n\n")
		decls[m.structName()] = sb.String()
	}
	walk(root)

	// Descending order puts every nested struct before its parent.
	order := make([]string, 0, len(decls))
	for name := range decls {
		order = append(order, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(order)))

	var sb strings.Builder
	for _, name := range order {
		sb.WriteString(decls[name])
	}
	return sb.String()
}

// needsMissingDefaults reports scripts that fill unwritten primary values
// after the spawn stage.
func (a *arena) needsMissingDefaults() bool {
	return a.usage.IsParticleSpawn() || a.usage.IsSystemSpawn()
}

// missingDefaultsFunction initializes Initial.* copies and primary values
// the spawn stage read but never wrote.
func (a *arena) missingDefaultsFunction() string {
	inst := "Context.Map"
	if a.interpolated() {
		inst = "Context.MapUpdate"
	}

	var lines []string
	if len(a.histories) > 0 && a.histories[0] != nil {
		h := a.histories[0].h
		var missing []missingDefault
		for i, v := range h.Variables {
			switch {
			case graph.IsInitialValue(v):
				src := graph.SourceForInitialValue(v)
				if !a.tracedAnywhere(src) {
					a.errorf(diag.NspInitialSource, nil, nil, "Variable %s is used, but its source variable %s is not set!", v.Name, src.Name)
					continue
				}
				lines = append(lines, fmt.Sprintf("\t%s.%s = %s.%s;", inst, naming.Sanitize(v.Name, false), inst, naming.Sanitize(src.Name, false)))
			case h.IsPrimaryDataSetOutput(v, a.usage) && len(h.Writes[i]) == 0 && !a.writtenAnywhere(v):
				if pin := h.DefaultPin(i); pin != nil && !pin.Type.IsDataInterface() {
					missing = append(missing, missingDefault{v: v, pin: pin})
				}
			}
		}
		for _, m := range missing {
			if m.pin.Linked() {
				a.errorf(diag.NspUnresolved, m.pin.Node, m.pin, "Only simple constants are supported for defaults of primary values: %s", m.v.Name)
				continue
			}
			value, ok := a.constantString(m.pin.Variable().WithName(m.v.Name), m.pin.Node)
			if !ok {
				continue
			}
			lines = append(lines, fmt.Sprintf("\t%s.%s = %s;", inst, naming.Sanitize(m.v.Name, false), value))
		}
	}

	var sb strings.Builder
	sb.WriteString("void HandleMissingDefaultValues(inout FSimulationContext Context)\n{\n")
	for _, l := range lines {
		sb.WriteString(l + "\n")
	}
	sb.WriteString("\n}\n\n")
	return sb.String()
}
