package types

import "strings"

// HLSLName returns the spelling of the type in generated code.
func (d Def) HLSLName() string {
	switch d.Kind {
	case KindInvalid:
		return "undefined"
	case KindFloat:
		return "float"
	case KindVec2:
		return "float2"
	case KindVec3:
		return "float3"
	case KindVec4, KindColor:
		return "float4"
	case KindMatrix4:
		return "float4x4"
	case KindInt, KindEnum:
		return "int"
	case KindBool:
		return "bool"
	case KindParameterMap:
		return "FParamMap0"
	}
	return d.Name
}

// HLSLDefault returns the constructor arguments used for a constant of the
// type that carries no explicit value. Colors default to opaque white.
func (d Def) HLSLDefault() string {
	switch d.Kind {
	case KindFloat:
		return "(0.0)"
	case KindVec2:
		return "(0.0,0.0)"
	case KindVec3:
		return "(0.0,0.0,0.0)"
	case KindVec4:
		return "(0.0,0.0,0.0,0.0)"
	case KindColor:
		return "(1.0,1.0,1.0,1.0)"
	case KindInt, KindEnum:
		return "(0)"
	case KindBool:
		return "(false)"
	}
	return d.Name
}

// ComponentCount is the number of scalar registers a built-in type occupies.
func (d Def) ComponentCount() int {
	switch d.Kind {
	case KindFloat, KindInt, KindBool, KindEnum:
		return 1
	case KindVec2:
		return 2
	case KindVec3:
		return 3
	case KindVec4, KindColor:
		return 4
	case KindMatrix4:
		return 16
	}
	return 0
}

// MatrixColumnAccess maps a component name (X, Y, Z, W) to an index suffix.
func MatrixColumnAccess(name string) (string, bool) {
	up := strings.ToUpper(name)
	for i, c := range []string{"X", "Y", "Z", "W"} {
		if strings.Contains(up, c) {
			return "[" + itoa(i) + "]", true
		}
	}
	return "", false
}

// MatrixRowAccess maps a row name (Row0..Row3) to an index suffix.
func MatrixRowAccess(name string) (string, bool) {
	low := strings.ToLower(name)
	for i := 0; i < 4; i++ {
		if strings.Contains(low, "row"+itoa(i)) {
			return "[" + itoa(i) + "]", true
		}
	}
	return "", false
}

func itoa(i int) string {
	return string(rune('0' + i))
}
