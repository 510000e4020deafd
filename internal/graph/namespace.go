package graph

import (
	"strings"

	"emberc/internal/types"
)

// Namespace prefixes of parameter-map variable names. The prefix decides
// where a value is stored and who owns it.
const (
	NamespaceParticles    = "Particles."
	NamespaceEmitter      = "Emitter."
	NamespaceSystem       = "System."
	NamespaceEngine       = "Engine."
	NamespaceUser         = "User."
	NamespaceModule       = "Module."
	NamespaceConstants    = "Constants."
	NamespaceInitial      = "Initial."
	NamespaceDataInstance = "DataInstance."
	NamespaceCollection   = "NPC."
	NamespaceTransient    = "Transient."
	NamespaceLocal        = "Local."
)

// Engine and emitter constants with a fixed meaning.
var (
	EngineDeltaTime          = Var(types.Float, "Engine.DeltaTime")
	EngineInverseDeltaTime   = Var(types.Float, "Engine.InverseDeltaTime")
	EngineTime               = Var(types.Float, "Engine.Time")
	EngineRealTime           = Var(types.Float, "Engine.RealTime")
	EngineExecutionCount     = Var(types.Int, "Engine.ExecutionCount")
	EngineOwnerPosition      = Var(types.Vec3, "Engine.Owner.Position")
	EngineOwnerVelocity      = Var(types.Vec3, "Engine.Owner.Velocity")
	EngineOwnerScale         = Var(types.Vec3, "Engine.Owner.Scale")
	EngineOwnerLocalToWorld  = Var(types.Matrix4, "Engine.Owner.SystemLocalToWorld")
	EngineOwnerWorldToLocal  = Var(types.Matrix4, "Engine.Owner.SystemWorldToLocal")
	EngineEmitterNumParticle = Var(types.Int, "Engine.Emitter.NumParticles")
	EngineSystemAge          = Var(types.Float, "Engine.System.Age")
	EngineSystemTickCount    = Var(types.Int, "Engine.System.TickCount")

	EmitterSpawnRate          = Var(types.Float, "Emitter.SpawnRate")
	EmitterSpawnInterval      = Var(types.Float, "Emitter.SpawnInterval")
	EmitterInterpSpawnStartDt = Var(types.Float, "Emitter.InterpSpawnStartDt")
)

var engineConstants = []Variable{
	EngineDeltaTime,
	EngineInverseDeltaTime,
	EngineTime,
	EngineRealTime,
	EngineExecutionCount,
	EngineOwnerPosition,
	EngineOwnerVelocity,
	EngineOwnerScale,
	EngineOwnerLocalToWorld,
	EngineOwnerWorldToLocal,
	EngineEmitterNumParticle,
	EngineSystemAge,
	EngineSystemTickCount,
}

// EngineConstants lists the closed table of engine provided values.
func EngineConstants() []Variable { return append([]Variable(nil), engineConstants...) }

// IsKnownEngineConstant reports whether v names an engine constant with the
// matching type. Variables outside the Engine namespace are always known.
func IsKnownEngineConstant(v Variable) bool {
	if !InNamespace(v.Name, NamespaceEngine) {
		return true
	}
	for _, c := range engineConstants {
		if c.Same(v) {
			return true
		}
	}
	return false
}

// InNamespace reports whether name starts with the dotted prefix ns.
func InNamespace(name, ns string) bool { return strings.HasPrefix(name, ns) }

// IsExternalConstantNamespace reports variables supplied from outside the
// script being compiled: engine, user and collection values always, system
// values for emitter and particle scripts, and emitter values for particle
// scripts.
func IsExternalConstantNamespace(v Variable, usage Usage) bool {
	switch {
	case InNamespace(v.Name, NamespaceEngine), InNamespace(v.Name, NamespaceUser), InNamespace(v.Name, NamespaceCollection):
		return true
	case InNamespace(v.Name, NamespaceSystem):
		return usage.IsParticle() || usage.IsEmitter()
	case InNamespace(v.Name, NamespaceEmitter):
		return usage.IsParticle()
	}
	return false
}

// MoveToExternalConstantNamespace rewrites a bare parameter name into the
// namespace external values for usage live in.
func MoveToExternalConstantNamespace(v Variable, usage Usage) Variable {
	if usage.IsParticle() {
		return v.WithName(NamespaceEmitter + v.Name)
	}
	return v.WithName(NamespaceUser + v.Name)
}

func IsAliasedModuleParameter(v Variable) bool  { return InNamespace(v.Name, NamespaceModule) }
func IsAliasedEmitterParameter(v Variable) bool { return InNamespace(v.Name, NamespaceEmitter) }
func IsInitialValue(v Variable) bool            { return InNamespace(v.Name, NamespaceInitial) }
func IsRapidIterationParameter(v Variable) bool { return InNamespace(v.Name, NamespaceConstants) }

// SourceForInitialValue strips the Initial namespace.
func SourceForInitialValue(v Variable) Variable {
	return v.WithName(strings.TrimPrefix(v.Name, NamespaceInitial))
}

// RapidIterationName returns the baked constant a module input is
// redirected to, scoped by emitter when one is given.
func RapidIterationName(v Variable, emitter string) Variable {
	if emitter == "" {
		return v.WithName(NamespaceConstants + v.Name)
	}
	return v.WithName(NamespaceConstants + emitter + "." + v.Name)
}

// BasicAttributeToNamespaced adds the Particles namespace to a bare
// attribute name.
func BasicAttributeToNamespaced(v Variable) Variable {
	if InNamespace(v.Name, NamespaceParticles) {
		return v
	}
	return v.WithName(NamespaceParticles + v.Name)
}

// NamespacedToBasicAttribute removes the Particles namespace.
func NamespacedToBasicAttribute(v Variable) Variable {
	return v.WithName(strings.TrimPrefix(v.Name, NamespaceParticles))
}

// CollectionNamespace returns the prefix under which the variables of the
// named parameter collection are addressed.
func CollectionNamespace(collection string) string {
	return NamespaceCollection + collection + "."
}
