package graph

import (
	"errors"
	"slices"
	"sort"
	"strings"
)

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	strict bool
}

// Strict makes Build reject dangling references, duplicate ids, negative
// durations and empty ids instead of tolerating them.
func Strict() Option {
	return func(o *buildOptions) { o.strict = true }
}

// ParsePrecedence splits a comma-separated predecessor list. Blank tokens
// and the "-" sentinel are dropped.
func ParsePrecedence(spec string) []string {
	var ids []string
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || tok == NoPredecessors {
			continue
		}
		ids = append(ids, tok)
	}
	return ids
}

// Build constructs a Graph from project rows. A repeated id overwrites the
// earlier row. Predecessors that name no activity are kept on the Activity
// but produce no edge.
func Build(rows []Row, opts ...Option) (*Graph, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	var errs []error
	byID := make(map[string]*Activity, len(rows))
	for _, r := range rows {
		if o.strict {
			if r.ID == "" {
				errs = append(errs, &ValidationError{Kind: EmptyID})
			}
			if r.Duration < 0 {
				errs = append(errs, &ValidationError{Kind: NegativeDuration, ID: r.ID})
			}
			if _, dup := byID[r.ID]; dup {
				errs = append(errs, &ValidationError{Kind: DuplicateID, ID: r.ID})
			}
		}
		byID[r.ID] = &Activity{
			ID:           r.ID,
			Duration:     r.Duration,
			Predecessors: ParsePrecedence(r.Precedence),
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := &Graph{
		Activities: make([]*Activity, len(ids)),
		Index:      make(map[string]int, len(ids)),
		Pred:       make([][]int, len(ids)),
		Succ:       make([][]int, len(ids)),
	}
	for i, id := range ids {
		g.Activities[i] = byID[id]
		g.Index[id] = i
	}

	// Walking in id order leaves every successor list sorted by id.
	for i, a := range g.Activities {
		for _, p := range a.Predecessors {
			j, ok := g.Index[p]
			if !ok {
				if o.strict {
					errs = append(errs, &ValidationError{Kind: DanglingReference, ID: a.ID, Ref: p})
				}
				continue
			}
			g.Pred[i] = append(g.Pred[i], j)
			g.Succ[j] = append(g.Succ[j], i)
			g.Activities[j].Successors = append(g.Activities[j].Successors, a.ID)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for i, a := range g.Activities {
		if len(g.Pred[i]) == 0 {
			g.Roots = append(g.Roots, a.ID)
		}
		if len(g.Succ[i]) == 0 {
			g.Leaves = append(g.Leaves, a.ID)
		}
	}

	return g, nil
}

// Len returns the number of activities in the graph.
func (g *Graph) Len() int {
	return len(g.Activities)
}

// Activity returns the activity with the given id, or nil.
func (g *Graph) Activity(id string) *Activity {
	i, ok := g.Index[id]
	if !ok {
		return nil
	}
	return g.Activities[i]
}

// IsSink reports whether the activity at position i has no successors.
func (g *Graph) IsSink(i int) bool {
	return len(g.Succ[i]) == 0
}

// Order maps activity positions to ids.
func (g *Graph) Order(idx []int) []string {
	ids := make([]string, len(idx))
	for k, i := range idx {
		ids[k] = g.Activities[i].ID
	}
	return ids
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

// TopoSort returns activity positions in an order where every predecessor
// comes before its dependents. It runs a depth-first search with white/gray/
// black coloring on an explicit stack, starting from activities in id order.
// Reaching a gray successor aborts the sort with a *CycleError.
func (g *Graph) TopoSort() ([]int, error) {
	n := len(g.Activities)
	state := make([]visitState, n)
	parent := make([]int, n)
	post := make([]int, 0, n)

	type frame struct {
		node int
		next int // index into Succ[node] of the next edge to follow
	}

	for start := 0; start < n; start++ {
		if state[start] != unvisited {
			continue
		}
		state[start] = inProgress
		parent[start] = -1
		stack := []frame{{node: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(g.Succ[top.node]) {
				succ := g.Succ[top.node][top.next]
				top.next++
				switch state[succ] {
				case inProgress:
					return nil, g.cycleError(parent, top.node, succ)
				case unvisited:
					state[succ] = inProgress
					parent[succ] = top.node
					stack = append(stack, frame{node: succ})
				}
				continue
			}
			state[top.node] = done
			post = append(post, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	slices.Reverse(post)
	return post, nil
}

// cycleError walks the DFS parent chain from the back edge's tail up to its
// head to recover the full cycle.
func (g *Graph) cycleError(parent []int, from, to int) *CycleError {
	path := []string{g.Activities[from].ID}
	for cur := from; cur != to; {
		cur = parent[cur]
		path = append(path, g.Activities[cur].ID)
	}
	slices.Reverse(path)
	path = append(path, g.Activities[to].ID)

	return &CycleError{
		From: g.Activities[from].ID,
		To:   g.Activities[to].ID,
		Path: path,
	}
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is
// acyclic.
func (g *Graph) DetectCycle() []string {
	_, err := g.TopoSort()
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Path
	}
	return nil
}
