package graph

// NoPredecessors is the precedence sentinel for an activity that can start
// immediately.
const NoPredecessors = "-"

// Row is one line of a project table: an activity id, its duration and its
// comma-separated predecessor ids.
type Row struct {
	ID         string `json:"id" yaml:"id"`
	Duration   int    `json:"duration" yaml:"duration"`
	Precedence string `json:"after" yaml:"after"`
}

// Activity is a single unit of work in the project graph.
type Activity struct {
	ID           string
	Duration     int
	Predecessors []string // as declared, including ids missing from the graph
	Successors   []string // derived, sorted by id
}

// Graph is a project network stored as a flat activity slice with
// index-based adjacency lists. Activities are kept in ascending id order.
type Graph struct {
	Activities []*Activity
	Index      map[string]int // activity id -> position in Activities
	Pred       [][]int        // position -> positions of existing predecessors
	Succ       [][]int        // position -> positions of successors
	Roots      []string       // activities with no predecessors in the graph
	Leaves     []string       // sink activities
}
