package history

import (
	"strings"

	"emberc/internal/graph"
)

// Aliases tracks the function and emitter call nesting while a graph is
// traced or compiled. Module and Emitter namespaced variables are rewritten
// to the innermost call alias and emitter name.
type Aliases struct {
	usage       graph.Usage
	functions   []string
	emitters    []string
	encountered map[string]struct{}
}

// NewAliases starts alias tracking for a script of usage.
func NewAliases(usage graph.Usage) *Aliases {
	return &Aliases{usage: usage, encountered: make(map[string]struct{})}
}

// EnterFunction pushes a call alias.
func (a *Aliases) EnterFunction(alias string) {
	a.functions = append(a.functions, alias)
	a.encountered[alias] = struct{}{}
}

// ExitFunction pops the innermost call alias.
func (a *Aliases) ExitFunction() {
	if len(a.functions) > 0 {
		a.functions = a.functions[:len(a.functions)-1]
	}
}

// EnterEmitter pushes an emitter alias.
func (a *Aliases) EnterEmitter(name string) { a.emitters = append(a.emitters, name) }

// ExitEmitter pops the innermost emitter alias.
func (a *Aliases) ExitEmitter() {
	if len(a.emitters) > 0 {
		a.emitters = a.emitters[:len(a.emitters)-1]
	}
}

// ModuleAlias is the innermost call alias, or "".
func (a *Aliases) ModuleAlias() string {
	if len(a.functions) == 0 {
		return ""
	}
	return a.functions[len(a.functions)-1]
}

// EmitterAlias is the innermost emitter name, or "".
func (a *Aliases) EmitterAlias() string {
	if len(a.emitters) == 0 {
		return ""
	}
	return a.emitters[len(a.emitters)-1]
}

// Depth is the number of open function calls.
func (a *Aliases) Depth() int { return len(a.functions) }

// InTopLevelFunctionCall reports whether the innermost call is invoked
// directly by the stage graph. Inside system scripts, an emitter reference
// is itself a call, so its modules sit one level deeper.
func (a *Aliases) InTopLevelFunctionCall() bool {
	switch {
	case a.usage.IsParticle() || a.usage.IsEmitter() || a.usage.IsStandalone():
		return len(a.functions) == 1
	case a.usage.IsSystem():
		return len(a.functions) == 1+len(a.emitters)
	}
	return false
}

// ResolveAliases renames Module. and Emitter. variables to the active
// aliases. Variables outside those namespaces, or without an active alias,
// are returned unchanged.
func (a *Aliases) ResolveAliases(v graph.Variable) graph.Variable {
	if m := a.ModuleAlias(); m != "" && graph.IsAliasedModuleParameter(v) {
		return v.WithName(m + "." + strings.TrimPrefix(v.Name, graph.NamespaceModule))
	}
	if e := a.EmitterAlias(); e != "" && graph.IsAliasedEmitterParameter(v) {
		return v.WithName(e + "." + strings.TrimPrefix(v.Name, graph.NamespaceEmitter))
	}
	return v
}

// IsInEncounteredFunctionNamespace reports variables whose first namespace
// part is a call alias seen so far.
func (a *Aliases) IsInEncounteredFunctionNamespace(v graph.Variable) bool {
	head, _, ok := strings.Cut(v.Name, ".")
	if !ok {
		return false
	}
	_, seen := a.encountered[head]
	return seen
}

// IsInEmitterNamespace reports variables addressed through an active
// emitter alias.
func (a *Aliases) IsInEmitterNamespace(v graph.Variable) bool {
	for _, e := range a.emitters {
		if graph.InNamespace(v.Name, e+".") {
			return true
		}
	}
	return false
}
