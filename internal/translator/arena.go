package translator

import (
	"context"
	"fmt"
	"strings"

	"emberc/internal/chunk"
	"emberc/internal/diag"
	"emberc/internal/graph"
	"emberc/internal/history"
	"emberc/internal/naming"
	"emberc/internal/trace"
	"emberc/internal/types"
)

const (
	// instanceDataSet is the primary per-instance data set.
	instanceDataSet = "DataInstance"
	// engineDataSet carries engine and user values of bulk system scripts.
	engineDataSet = "Engine"
)

// varTable is a name-keyed variable set that remembers insertion order, so
// generated code does not depend on map iteration.
type varTable struct {
	order []string
	vars  map[string]graph.Variable
}

func newVarTable() *varTable { return &varTable{vars: make(map[string]graph.Variable)} }

// set stores v under name; the first insertion fixes the position.
func (t *varTable) set(name string, v graph.Variable) {
	if _, ok := t.vars[name]; !ok {
		t.order = append(t.order, name)
	}
	t.vars[name] = v
}

// add stores v only when name is new.
func (t *varTable) add(name string, v graph.Variable) {
	if _, ok := t.vars[name]; !ok {
		t.set(name, v)
	}
}

func (t *varTable) get(name string) (graph.Variable, bool) {
	v, ok := t.vars[name]
	return v, ok
}

func (t *varTable) len() int { return len(t.order) }

func (t *varTable) values() []graph.Variable {
	out := make([]graph.Variable, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.vars[name])
	}
	return out
}

// histState pairs a selected history with the chunk that last wrote each of
// its variables.
type histState struct {
	h   *history.History
	set []chunk.ID
}

// frame is an open function definition.
type frame struct {
	name   string
	sig    graph.Signature
	inputs []chunk.ID
	graph  *graph.Graph
	pins   map[*graph.Pin]chunk.ID
}

type function struct {
	sig  graph.Signature
	body string
}

// access is the variable list of one data set access and the chunks bound
// to them.
type access struct {
	vars   []graph.Variable
	chunks []chunk.ID
}

func (a *access) add(v graph.Variable, id chunk.ID) {
	for _, have := range a.vars {
		if have.Same(v) {
			return
		}
	}
	a.vars = append(a.vars, v)
	a.chunks = append(a.chunks, id)
}

// dataSet records the accesses of one secondary data set, keyed by the
// index chunk of the access.
type dataSet struct {
	id        graph.DataSetID
	order     []chunk.ID
	byIndex   map[chunk.ID]*access
	condition chunk.ID
}

func newDataSet(id graph.DataSetID) *dataSet {
	return &dataSet{id: id, byIndex: make(map[chunk.ID]*access), condition: chunk.None}
}

func (d *dataSet) at(index chunk.ID) (*access, bool) {
	acc, ok := d.byIndex[index]
	return acc, ok
}

func (d *dataSet) put(index chunk.ID, acc *access) {
	if _, ok := d.byIndex[index]; !ok {
		d.order = append(d.order, index)
	}
	d.byIndex[index] = acc
}

func (d *dataSet) vars() []graph.Variable {
	var out []graph.Variable
	for _, idx := range d.order {
		out = append(out, d.byIndex[idx].vars...)
	}
	return out
}

// missingDefault is a primary attribute that no stage of this script
// writes; HandleMissingDefaultValues fills it.
type missingDefault struct {
	v   graph.Variable
	pin *graph.Pin
}

// arena owns every piece of per-translation state. It is created by
// Translate and discarded afterwards; nothing outlives one call.
type arena struct {
	ctx    context.Context
	tracer trace.Tracer
	span   uint64

	script *graph.Script
	opts   Options
	usage  graph.Usage
	gpu    bool
	types  *types.Registry
	root   *graph.Graph

	store   *chunk.Store
	printer chunk.Printer
	names   *naming.Counter

	rep     diag.Reporter
	bag     *diag.Bag
	counter *diag.Counter

	histories   []*histState
	others      []*history.History
	curMaps     []int
	insideSpawn bool
	// initialSource is set while the source of an Initial.* read compiles;
	// its default pin traces the Initial name, not the source.
	initialSource bool
	aliases       *history.Aliases

	frames   []*frame
	rootPins map[*graph.Pin]chunk.ID

	functions  []*function
	fnIndex    map[string]int
	prepared   map[*graph.Graph]*graph.Graph
	statScopes []StatScope
	statStack  []int

	definedSystem  *varTable
	systemUniforms map[string]chunk.ID
	definedAttrs   *varTable
	attrChunks     map[string]chunk.ID
	bulkVars       []graph.Variable
	preSimulate    []string

	instanceRead  access
	instanceWrite access
	reads         []*dataSet
	writes        []*dataSet

	structs        []types.Def
	dataInterfaces []DataInterfaceInfo
	diChunks       map[chunk.ID]int
	numUserPtrs    int
	parameters     []graph.Variable
	attributes     []graph.Variable
	collections    []*graph.Collection
	readsAttrs     bool
}

func newArena(ctx context.Context, s *graph.Script, opts Options) *arena {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = defaultMaxDiagnostics
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	counter := &diag.Counter{Next: diag.BagReporter{Bag: bag}}
	store := chunk.NewStore()
	return &arena{
		ctx:            ctx,
		tracer:         trace.FromContext(ctx),
		span:           trace.CurrentSpan(ctx).SpanID,
		script:         s,
		opts:           opts,
		usage:          s.Usage,
		gpu:            opts.Target == TargetGPU,
		types:          opts.Types,
		root:           s.Graph,
		store:          store,
		printer:        chunk.Printer{Store: store},
		names:          naming.NewCounter(),
		rep:            diag.NewDedupReporter(counter),
		bag:            bag,
		counter:        counter,
		aliases:        history.NewAliases(s.Usage),
		rootPins:       make(map[*graph.Pin]chunk.ID),
		fnIndex:        make(map[string]int),
		prepared:       make(map[*graph.Graph]*graph.Graph),
		definedSystem:  newVarTable(),
		systemUniforms: make(map[string]chunk.ID),
		definedAttrs:   newVarTable(),
		attrChunks:     make(map[string]chunk.ID),
		diChunks:       make(map[chunk.ID]int),
	}
}

func (a *arena) interpolated() bool { return a.usage.IsInterpolatedParticleSpawn() }

// twoPhase reports scripts compiled as a spawn body followed by an update
// body: interpolated spawn, and particle spawn on the GPU where one shader
// runs both stages.
func (a *arena) twoPhase() bool {
	return a.interpolated() || (a.gpu && a.usage.IsParticleSpawn())
}

// targetUsage is the usage whose output node drives the translation.
func (a *arena) targetUsage() graph.Usage { return a.usage.OutputUsage() }

func (a *arena) frame() *frame {
	if len(a.frames) == 0 {
		return nil
	}
	return a.frames[len(a.frames)-1]
}

func (a *arena) pinCache() map[*graph.Pin]chunk.ID {
	if f := a.frame(); f != nil {
		return f.pins
	}
	return a.rootPins
}

func (a *arena) currentGraph() *graph.Graph {
	if f := a.frame(); f != nil && f.graph != nil {
		return f.graph
	}
	return a.root
}

func (a *arena) enterFrame(name string, sig graph.Signature, inputs []chunk.ID, g *graph.Graph) {
	a.frames = append(a.frames, &frame{
		name:   name,
		sig:    sig,
		inputs: inputs,
		graph:  g,
		pins:   make(map[*graph.Pin]chunk.ID),
	})
}

func (a *arena) exitFrame() {
	if len(a.frames) > 0 {
		a.frames = a.frames[:len(a.frames)-1]
	}
}

// callstack names the script followed by every open function.
func (a *arena) callstack() string {
	var sb strings.Builder
	sb.WriteString(a.script.Name)
	for _, f := range a.frames {
		sb.WriteByte('.')
		sb.WriteString(f.name)
	}
	return sb.String()
}

func (a *arena) anchor(n *graph.Node, p *graph.Pin) diag.Anchor {
	return graph.Anchor(a.currentGraph(), n, p)
}

func (a *arena) report(b *diag.ReportBuilder) {
	if len(a.frames) > 0 {
		b = b.WithNote(b.Diagnostic().Primary, "callstack: "+a.callstack())
	}
	b.Emit()
}

func (a *arena) errorf(code diag.Code, n *graph.Node, p *graph.Pin, format string, args ...any) {
	a.report(diag.ReportError(a.rep, code, a.anchor(n, p), fmt.Sprintf(format, args...)))
}

func (a *arena) warnf(code diag.Code, n *graph.Node, p *graph.Pin, format string, args ...any) {
	a.report(diag.ReportWarning(a.rep, code, a.anchor(n, p), fmt.Sprintf(format, args...)))
}

func (a *arena) critical(code diag.Code, msg string) {
	diag.ReportCritical(a.rep, code, graph.Anchor(a.root, nil, nil), msg).Emit()
}

func (a *arena) failed() bool { return a.counter.Fatal > 0 }

// instanceName is the context member holding the parameter map being
// compiled.
func (a *arena) instanceName() string {
	if a.interpolated() {
		if a.insideSpawn {
			return "Context.MapSpawn"
		}
		return "Context.MapUpdate"
	}
	return "Context.Map"
}

// local returns a fresh local symbol derived from base.
func (a *arena) local(base string) string {
	return a.names.Unique(naming.Sanitize(base, true))
}

// member is the context access path of a parameter map variable.
func (a *arena) member(name string) string {
	return a.instanceName() + "." + naming.Sanitize(name, false)
}

// defineStruct queues the declarations t needs. Types that cannot be
// lowered are reported against the variable name.
func (a *arena) defineStruct(t types.Def, name string, n *graph.Node) bool {
	defs, ok := a.types.DefinitionOrder(t)
	if !ok {
		a.errorf(diag.TypUnsupported, n, nil, "Cannot handle type %s! Variable: %s", t.DisplayName(), name)
		return false
	}
	for _, d := range defs {
		if !containsDef(a.structs, d) {
			a.structs = append(a.structs, d)
		}
	}
	return true
}

func containsDef(defs []types.Def, d types.Def) bool {
	for _, have := range defs {
		if have == d {
			return true
		}
	}
	return false
}

func containsVar(vars []graph.Variable, v graph.Variable) bool {
	for _, have := range vars {
		if have.Same(v) {
			return true
		}
	}
	return false
}

func appendUniqueVar(vars []graph.Variable, v graph.Variable) []graph.Variable {
	if containsVar(vars, v) {
		return vars
	}
	return append(vars, v)
}

func (a *arena) addParameter(v graph.Variable) {
	for _, have := range a.parameters {
		if have.Same(v) {
			return
		}
	}
	a.parameters = append(a.parameters, v)
}

func (a *arena) addCollection(c *graph.Collection) {
	for _, have := range a.collections {
		if have == c {
			return
		}
	}
	a.collections = append(a.collections, c)
}

func (a *arena) addPreSimulate(line string) {
	for _, have := range a.preSimulate {
		if have == line {
			return
		}
	}
	a.preSimulate = append(a.preSimulate, line)
}

// enterStatScope opens a profiling scope in the active body.
func (a *arena) enterStatScope(full, friendly string) {
	if !a.opts.StatScopes {
		return
	}
	idx := a.statScopeIndex(StatScope{FullName: full, FriendlyName: friendly})
	a.store.Raw(fmt.Sprintf("EnterStatScope(%d /**%s*/);", idx, full))
	a.statStack = append(a.statStack, idx)
}

func (a *arena) exitStatScope() {
	if !a.opts.StatScopes || len(a.statStack) == 0 {
		return
	}
	idx := a.statStack[len(a.statStack)-1]
	a.statStack = a.statStack[:len(a.statStack)-1]
	a.store.Raw(fmt.Sprintf("ExitStatScope(/**%s*/);", a.statScopes[idx].FullName))
}

func (a *arena) statScopeIndex(s StatScope) int {
	for i, have := range a.statScopes {
		if have == s {
			return i
		}
	}
	a.statScopes = append(a.statScopes, s)
	return len(a.statScopes) - 1
}
