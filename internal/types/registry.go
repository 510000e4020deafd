package types

import (
	"fmt"
	"strings"
)

// Field is one member of a struct type.
type Field struct {
	Name string
	Type Def
}

// BaseKind is the register class of a scalar component.
type BaseKind uint8

const (
	BaseFloat BaseKind = iota
	BaseInt
	BaseBool
)

func (b BaseKind) String() string {
	switch b {
	case BaseFloat:
		return "Float"
	case BaseInt:
		return "Int"
	case BaseBool:
		return "Bool"
	}
	return "Unknown"
}

// Default is the literal written for an unset register of this class.
func (b BaseKind) Default() string {
	switch b {
	case BaseInt:
		return "0"
	case BaseBool:
		return "false"
	}
	return "0.0f"
}

// Component is one scalar register of a decomposed value. Suffix is the
// accessor appended to the value's symbol (".x", "[1][2]", ".Pos.y", ...).
type Component struct {
	Suffix string
	Base   BaseKind
}

var builtinFields = map[Kind][]Field{
	KindVec2:    {{"X", Float}, {"Y", Float}},
	KindVec3:    {{"X", Float}, {"Y", Float}, {"Z", Float}},
	KindVec4:    {{"X", Float}, {"Y", Float}, {"Z", Float}, {"W", Float}},
	KindColor:   {{"R", Float}, {"G", Float}, {"B", Float}, {"A", Float}},
	KindMatrix4: {{"Row0", Vec4}, {"Row1", Vec4}, {"Row2", Vec4}, {"Row3", Vec4}},
}

// Registry holds user defined struct layouts.
type Registry struct {
	structs map[string][]Field
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{structs: make(map[string][]Field)}
}

// Define registers (or replaces) a struct layout and returns its definition.
func (r *Registry) Define(name string, fields ...Field) Def {
	if _, ok := r.structs[name]; !ok {
		r.order = append(r.order, name)
	}
	r.structs[name] = append([]Field(nil), fields...)
	return Struct(name)
}

// Names lists registered struct names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Fields returns the members of a struct or built-in composite type.
func (r *Registry) Fields(d Def) ([]Field, bool) {
	if f, ok := builtinFields[d.Kind]; ok {
		return f, true
	}
	if d.Kind != KindStruct || r == nil {
		return nil, false
	}
	f, ok := r.structs[d.Name]
	return f, ok
}

// ChildType resolves the type of a named member; Invalid when absent.
func (r *Registry) ChildType(d Def, name string) Def {
	fields, ok := r.Fields(d)
	if !ok {
		return Invalid
	}
	for _, f := range fields {
		if f.Name == name {
			return f.Type
		}
	}
	return Invalid
}

// DefinitionOrder returns the struct types that must be declared before d
// can be used, innermost first, ending with d itself. Built-ins and
// parameter maps need no declaration. ok is false for types that cannot be
// lowered (numeric placeholders, unknown structs).
func (r *Registry) DefinitionOrder(d Def) (defs []Def, ok bool) {
	switch {
	case d.IsBuiltin(), d.IsParameterMap(), d.IsDataInterface():
		return nil, true
	case d.Kind != KindStruct:
		return nil, false
	}
	fields, found := r.Fields(d)
	if !found {
		return nil, false
	}
	for _, f := range fields {
		sub, ok := r.DefinitionOrder(f.Type)
		if !ok {
			return nil, false
		}
		defs = append(defs, sub...)
	}
	return append(defs, d), true
}

// Declaration renders the HLSL struct declaration of a user struct.
func (r *Registry) Declaration(d Def) string {
	fields, ok := r.Fields(d)
	if !ok || d.Kind != KindStruct {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s\n{\n", d.HLSLName())
	for _, f := range fields {
		fmt.Fprintf(&sb, "\t%s %s;\n", f.Type.HLSLName(), f.Name)
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

// Components decomposes a type into scalar registers in declaration order.
func (r *Registry) Components(d Def) []Component {
	var out []Component
	r.gather(d, "", false, &out)
	return out
}

func (r *Registry) gather(d Def, sym string, matrixRoot bool, out *[]Component) {
	if d.Kind == KindMatrix4 {
		matrixRoot = true
	}
	if base, ok := scalarBase(d); ok {
		*out = append(*out, Component{Suffix: sym, Base: base})
		return
	}
	fields, _ := r.Fields(d)
	vector := d.IsBuiltinVector()
	for _, f := range fields {
		base, scalar := scalarBase(f.Type)
		if !scalar {
			if matrixRoot && f.Type == Vec4 {
				row, _ := MatrixRowAccess(f.Name)
				r.gather(f.Type, sym+row, matrixRoot, out)
			} else {
				r.gather(f.Type, sym+"."+f.Name, matrixRoot, out)
			}
			continue
		}
		name := sym
		if matrixRoot {
			if vector && f.Type == Float {
				col, _ := MatrixColumnAccess(f.Name)
				name += col
			}
		} else if vector {
			name += "." + strings.ToLower(f.Name)
		} else {
			name += "." + f.Name
		}
		*out = append(*out, Component{Suffix: name, Base: base})
	}
}

func scalarBase(d Def) (BaseKind, bool) {
	switch d.Kind {
	case KindFloat:
		return BaseFloat, true
	case KindInt, KindEnum:
		return BaseInt, true
	case KindBool:
		return BaseBool, true
	}
	return 0, false
}
