package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Graph structure
	GrfInfo                Code = 1000
	GrfMissingOutputNode   Code = 1001
	GrfEmptyGraph          Code = 1002
	GrfNoOutputLinks       Code = 1003
	GrfOutputCountMismatch Code = 1004
	GrfMissingNode         Code = 1005
	GrfBadPin              Code = 1006
	GrfPinCompile          Code = 1007
	GrfUnsupportedNode     Code = 1008
	GrfEmitterCall         Code = 1009

	// Types
	TypInfo              Code = 2000
	TypNumericUnresolved Code = 2001
	TypUnsupported       Code = 2002
	TypStructConstant    Code = 2003
	TypBoolConstant      Code = 2004
	TypNumericRevert     Code = 2005
	TypConvert           Code = 2006

	// Namespaces and parameter resolution
	NspInfo               Code = 3000
	NspUnknownConstant    Code = 3001
	NspCollectionMissing  Code = 3002
	NspSpawnAttributeRead Code = 3003
	NspSetExternal        Code = 3004
	NspSpawnDeltaTime     Code = 3005
	NspInitialSource      Code = 3006
	NspDefaultNotTraced   Code = 3007
	NspUnresolved         Code = 3008

	// Function calls
	FncInfo              Code = 4000
	FncMissingScript     Code = 4001
	FncInterfaceSig      Code = 4002
	FncMissingParameter  Code = 4003
	FncInvalidGraph      Code = 4004
	FncInterfaceNotFound Code = 4005
	FncInterfaceGPU      Code = 4006

	// Data sets
	DstInfo           Code = 5000
	DstDuplicateWrite Code = 5001

	// Translator internals
	TrnInfo           Code = 6000
	TrnUndefinedChunk Code = 6001
	TrnPhaseGuard     Code = 6002
	TrnInternal       Code = 6003

	// Configuration and IO
	CfgInfo   Code = 7000
	CfgLoad   Code = 7001
	CfgScript Code = 7002
	CfgCache  Code = 7003
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		GrfInfo:                "Graph information",
		GrfMissingOutputNode:   "Output node not found",
		GrfEmptyGraph:          "Graph contains no nodes",
		GrfNoOutputLinks:       "Output node has no connections",
		GrfOutputCountMismatch: "Output pin count mismatch",
		GrfMissingNode:         "Graph node not found",
		GrfBadPin:              "Invalid pin",
		GrfPinCompile:          "Pin failed to compile",
		GrfUnsupportedNode:     "Node is not supported in this context",
		GrfEmitterCall:         "Invalid emitter call",
		TypInfo:                "Type information",
		TypNumericUnresolved:   "Numeric type could not be deduced",
		TypUnsupported:         "Type cannot be handled",
		TypStructConstant:      "Struct constants are unsupported",
		TypBoolConstant:        "Boolean constant is not explicit",
		TypNumericRevert:       "Numeric parameter not found for revert",
		TypConvert:             "Invalid conversion",
		NspInfo:                "Namespace information",
		NspUnknownConstant:     "Unknown system constant",
		NspCollectionMissing:   "Parameter missing from collection",
		NspSpawnAttributeRead:  "Attribute read in spawn script",
		NspSetExternal:         "External constant cannot be set",
		NspSpawnDeltaTime:      "Delta time used in spawn script",
		NspInitialSource:       "Initial value source is not set",
		NspDefaultNotTraced:    "Default pin not found in traversal",
		NspUnresolved:          "Parameter cannot be resolved",
		FncInfo:                "Function information",
		FncMissingScript:       "Function call has no script",
		FncInterfaceSig:        "Data interface function not found",
		FncMissingParameter:    "Function call parameter failed",
		FncInvalidGraph:        "Function graph is invalid",
		FncInterfaceNotFound:   "Data interface not registered",
		FncInterfaceGPU:        "Data interface cannot run on GPU",
		DstInfo:                "Data set information",
		DstDuplicateWrite:      "Duplicate data set write",
		TrnInfo:                "Translator information",
		TrnUndefinedChunk:      "Undefined code chunk",
		TrnPhaseGuard:          "Unbalanced body phase",
		TrnInternal:            "Internal translator error",
		CfgInfo:                "Configuration information",
		CfgLoad:                "Configuration cannot be loaded",
		CfgScript:              "Script description is invalid",
		CfgCache:               "Cache failure",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("GRF%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("NSP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("FNC%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DST%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("TRN%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("CFG%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
