package scriptfile

// The structs below mirror the TOML layout of a script file.

type fileVar struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Value string `toml:"value"`
}

type fileType struct {
	Name   string    `toml:"name"`
	Fields []fileVar `toml:"fields"`
}

type fileFunction struct {
	Name            string    `toml:"name"`
	Inputs          []fileVar `toml:"inputs"`
	Outputs         []fileVar `toml:"outputs"`
	RequiresContext bool      `toml:"requires_context"`
}

type fileInterface struct {
	Class        string            `toml:"class"`
	InstanceSize int               `toml:"instance_size"`
	GPU          bool              `toml:"gpu"`
	Buffers      []string          `toml:"buffers"`
	Functions    []fileFunction    `toml:"functions"`
	GPUFunctions map[string]string `toml:"gpu_functions"`
}

type fileCollection struct {
	Name string    `toml:"name"`
	Vars []fileVar `toml:"vars"`
}

type fileConnection struct {
	Src     int      `toml:"src"`
	SrcPath []string `toml:"src_path"`
	Dst     int      `toml:"dst"`
	DstPath []string `toml:"dst_path"`
}

type fileNode struct {
	ID       string `toml:"id"`
	Kind     string `toml:"kind"`
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Value    string `toml:"value"`
	Input    string `toml:"input"`
	Priority int    `toml:"priority"`
	Op       string `toml:"op"`
	Usage    string `toml:"usage"`
	Callee   string `toml:"callee"`
	Alias    string `toml:"alias"`
	// Interface is the data interface class of di-input and interface-call
	// nodes; Function picks the member of an interface-call.
	Interface   string            `toml:"interface"`
	Function    string            `toml:"function"`
	Code        string            `toml:"code"`
	DataSet     string            `toml:"dataset"`
	Vars        []fileVar         `toml:"vars"`
	Inputs      []fileVar         `toml:"inputs"`
	Outputs     []fileVar         `toml:"outputs"`
	Connections []fileConnection  `toml:"connections"`
	Defaults    map[string]string `toml:"defaults"`
	Disabled    bool              `toml:"disabled"`
}

// fileLink connects "node.pin" to "node.pin". A bare node id on both ends
// links the parameter maps of the two nodes.
type fileLink struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

type fileGraph struct {
	Name      string     `toml:"name"`
	Usage     string     `toml:"usage"`
	Selection string     `toml:"selection"`
	Nodes     []fileNode `toml:"nodes"`
	Links     []fileLink `toml:"links"`
}

type fileScript struct {
	Name        string           `toml:"name"`
	Usage       string           `toml:"usage"`
	UsageID     int              `toml:"usage_id"`
	Emitter     string           `toml:"emitter"`
	Selection   string           `toml:"selection"`
	Types       []fileType       `toml:"types"`
	Interfaces  []fileInterface  `toml:"interfaces"`
	Collections []fileCollection `toml:"collections"`
	Overrides   []fileVar        `toml:"overrides"`
	Callees     []fileGraph      `toml:"callees"`
	Nodes       []fileNode       `toml:"nodes"`
	Links       []fileLink       `toml:"links"`
}
