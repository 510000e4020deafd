package types

import "fmt"

// Kind enumerates all value kinds that can flow along a script graph.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFloat
	KindVec2
	KindVec3
	KindVec4
	KindColor
	KindMatrix4
	KindInt
	KindBool
	KindEnum
	// KindNumeric is the generic placeholder that must be resolved before codegen.
	KindNumeric
	KindParameterMap
	KindStruct
	KindDataInterface
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindFloat:
		return "float"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindVec4:
		return "vec4"
	case KindColor:
		return "color"
	case KindMatrix4:
		return "matrix4"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindNumeric:
		return "numeric"
	case KindParameterMap:
		return "parametermap"
	case KindStruct:
		return "struct"
	case KindDataInterface:
		return "datainterface"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Def describes a type. It is a comparable value: two defs are the same
// type iff they compare equal with ==.
type Def struct {
	Kind Kind
	// Name is set for enums, structs and data interface classes.
	Name string
}

// Built-in definitions.
var (
	Invalid      = Def{}
	Float        = Def{Kind: KindFloat}
	Vec2         = Def{Kind: KindVec2}
	Vec3         = Def{Kind: KindVec3}
	Vec4         = Def{Kind: KindVec4}
	Color        = Def{Kind: KindColor}
	Matrix4      = Def{Kind: KindMatrix4}
	Int          = Def{Kind: KindInt}
	Bool         = Def{Kind: KindBool}
	Numeric      = Def{Kind: KindNumeric}
	ParameterMap = Def{Kind: KindParameterMap}
)

// Enum returns the definition of a named enum.
func Enum(name string) Def { return Def{Kind: KindEnum, Name: name} }

// Struct returns the definition of a named struct registered in a Registry.
func Struct(name string) Def { return Def{Kind: KindStruct, Name: name} }

// DataInterface returns the definition of a data interface class.
func DataInterface(class string) Def { return Def{Kind: KindDataInterface, Name: class} }

func (d Def) IsValid() bool        { return d.Kind != KindInvalid }
func (d Def) IsNumeric() bool      { return d.Kind == KindNumeric }
func (d Def) IsParameterMap() bool { return d.Kind == KindParameterMap }
func (d Def) IsDataInterface() bool {
	return d.Kind == KindDataInterface
}
func (d Def) IsEnum() bool   { return d.Kind == KindEnum }
func (d Def) IsStruct() bool { return d.Kind == KindStruct }

// IsFloatPrimitive reports whether every component of the type is a float.
func (d Def) IsFloatPrimitive() bool {
	switch d.Kind {
	case KindFloat, KindVec2, KindVec3, KindVec4, KindColor, KindMatrix4:
		return true
	}
	return false
}

// IsBuiltinVector reports float2/3/4 style types whose components use
// swizzle accessors.
func (d Def) IsBuiltinVector() bool {
	switch d.Kind {
	case KindVec2, KindVec3, KindVec4, KindColor:
		return true
	}
	return false
}

// IsScalar reports single-component types.
func (d Def) IsScalar() bool {
	switch d.Kind {
	case KindFloat, KindInt, KindBool, KindEnum:
		return true
	}
	return false
}

// IsBuiltin reports types that need no struct declaration in the output.
func (d Def) IsBuiltin() bool {
	switch d.Kind {
	case KindFloat, KindVec2, KindVec3, KindVec4, KindColor, KindMatrix4, KindInt, KindBool, KindEnum:
		return true
	}
	return false
}

// DisplayName is the user-facing type name, also used when mangling
// numeric function instantiations.
func (d Def) DisplayName() string {
	switch d.Kind {
	case KindFloat:
		return "Float"
	case KindVec2:
		return "Vector2D"
	case KindVec3:
		return "Vector"
	case KindVec4:
		return "Vector4"
	case KindColor:
		return "LinearColor"
	case KindMatrix4:
		return "Matrix"
	case KindInt:
		return "Int32"
	case KindBool:
		return "Bool"
	case KindNumeric:
		return "Numeric"
	case KindParameterMap:
		return "ParameterMap"
	case KindEnum, KindStruct, KindDataInterface:
		return d.Name
	}
	return "Invalid"
}

func (d Def) String() string { return d.DisplayName() }

// Parse maps a textual type name to a definition. Built-in names match
// either the display or the HLSL spelling; prefixes "enum:", "struct:"
// and "di:" select named kinds.
func Parse(s string) (Def, error) {
	switch s {
	case "float", "Float":
		return Float, nil
	case "float2", "vec2", "Vector2D":
		return Vec2, nil
	case "float3", "vec3", "Vector":
		return Vec3, nil
	case "float4", "vec4", "Vector4":
		return Vec4, nil
	case "color", "LinearColor":
		return Color, nil
	case "float4x4", "matrix", "Matrix":
		return Matrix4, nil
	case "int", "Int32":
		return Int, nil
	case "bool", "Bool":
		return Bool, nil
	case "numeric", "Numeric":
		return Numeric, nil
	case "map", "ParameterMap":
		return ParameterMap, nil
	}
	for prefix, mk := range namedKinds {
		if len(s) > len(prefix) && s[:len(prefix)] == prefix {
			return mk(s[len(prefix):]), nil
		}
	}
	return Invalid, fmt.Errorf("unknown type %q", s)
}

var namedKinds = map[string]func(string) Def{
	"enum:":   Enum,
	"struct:": Struct,
	"di:":     DataInterface,
}
