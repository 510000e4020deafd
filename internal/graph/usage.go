package graph

import "fmt"

// Usage classifies what a script (or an output node inside a graph) is for.
type Usage uint8

const (
	UsageFunction Usage = iota
	UsageModule
	UsageDynamicInput
	UsageParticleSpawn
	UsageParticleSpawnInterpolated
	UsageParticleUpdate
	UsageParticleEvent
	UsageEmitterSpawn
	UsageEmitterUpdate
	UsageSystemSpawn
	UsageSystemUpdate
)

var usageNames = [...]string{
	UsageFunction:                  "function",
	UsageModule:                    "module",
	UsageDynamicInput:              "dynamic-input",
	UsageParticleSpawn:             "particle-spawn",
	UsageParticleSpawnInterpolated: "particle-spawn-interpolated",
	UsageParticleUpdate:            "particle-update",
	UsageParticleEvent:             "particle-event",
	UsageEmitterSpawn:              "emitter-spawn",
	UsageEmitterUpdate:             "emitter-update",
	UsageSystemSpawn:               "system-spawn",
	UsageSystemUpdate:              "system-update",
}

func (u Usage) String() string {
	if int(u) < len(usageNames) {
		return usageNames[u]
	}
	return fmt.Sprintf("Usage(%d)", u)
}

// ParseUsage accepts the String spellings of Usage.
func ParseUsage(s string) (Usage, error) {
	for i, name := range usageNames {
		if name == s {
			return Usage(i), nil
		}
	}
	return UsageFunction, fmt.Errorf("unknown script usage %q", s)
}

func (u Usage) IsParticleSpawn() bool {
	return u == UsageParticleSpawn || u == UsageParticleSpawnInterpolated
}

func (u Usage) IsInterpolatedParticleSpawn() bool { return u == UsageParticleSpawnInterpolated }
func (u Usage) IsParticleUpdate() bool            { return u == UsageParticleUpdate }
func (u Usage) IsParticleEvent() bool             { return u == UsageParticleEvent }
func (u Usage) IsEmitterSpawn() bool              { return u == UsageEmitterSpawn }
func (u Usage) IsEmitterUpdate() bool             { return u == UsageEmitterUpdate }
func (u Usage) IsSystemSpawn() bool               { return u == UsageSystemSpawn }
func (u Usage) IsSystemUpdate() bool              { return u == UsageSystemUpdate }

// IsParticle reports per-particle scripts.
func (u Usage) IsParticle() bool {
	switch u {
	case UsageParticleSpawn, UsageParticleSpawnInterpolated, UsageParticleUpdate, UsageParticleEvent:
		return true
	}
	return false
}

// IsSystem reports system scripts (spawn or update).
func (u Usage) IsSystem() bool { return u == UsageSystemSpawn || u == UsageSystemUpdate }

// IsEmitter reports emitter scripts, compiled into system scripts.
func (u Usage) IsEmitter() bool { return u == UsageEmitterSpawn || u == UsageEmitterUpdate }

// IsSpawn reports every spawn-like usage.
func (u Usage) IsSpawn() bool {
	switch u {
	case UsageParticleSpawn, UsageParticleSpawnInterpolated, UsageEmitterSpawn, UsageSystemSpawn:
		return true
	}
	return false
}

// IsStandalone reports usages compiled as reusable callees rather than
// simulation stages.
func (u Usage) IsStandalone() bool {
	switch u {
	case UsageFunction, UsageModule, UsageDynamicInput:
		return true
	}
	return false
}

// OutputUsage is the usage of the output node that implements u inside a
// graph: interpolated spawn scripts share the plain spawn output node.
func (u Usage) OutputUsage() Usage {
	if u == UsageParticleSpawnInterpolated {
		return UsageParticleSpawn
	}
	return u
}

// Accepts reports whether an output node of usage other belongs to the same
// family of compiled stages as u. Particle stages share one attribute set;
// system spawn also sees system update.
func (u Usage) Accepts(other Usage) bool {
	switch u {
	case UsageParticleSpawn, UsageParticleSpawnInterpolated, UsageParticleUpdate, UsageParticleEvent:
		return other.IsParticle()
	case UsageSystemSpawn:
		return other == UsageSystemSpawn || other == UsageSystemUpdate
	}
	return u == other
}
