package cpm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joshharrison/critpath/internal/graph"
)

var (
	ErrNegativeSlack      = errors.New("negative slack")
	ErrInconsistentTiming = errors.New("inconsistent timing")
)

// Compute builds the project graph from rows and analyzes it.
func Compute(rows []graph.Row, opts ...graph.Option) (*graph.Graph, *Result, error) {
	g, err := graph.Build(rows, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("build project graph: %w", err)
	}
	result, err := Analyze(g)
	if err != nil {
		return g, nil, err
	}
	return g, result, nil
}

// Analyze performs critical path analysis on a project graph. A cycle aborts
// the analysis before any timing is computed and no result is returned.
func Analyze(g *graph.Graph) (*Result, error) {
	order, err := g.TopoSort()
	if err != nil {
		return nil, err
	}

	sched := NewSchedules(g)
	ForwardPass(g, order, sched)
	duration := ProjectDuration(g, sched)
	BackwardPass(g, order, sched, duration)

	result := &Result{
		Order:           g.Order(order),
		Schedules:       make(map[string]*Schedule, len(sched)),
		ProjectDuration: duration,
	}
	for _, s := range sched {
		result.Schedules[s.ID] = s
	}
	for _, i := range order {
		if sched[i].Critical {
			result.CriticalPath = append(result.CriticalPath, sched[i].ID)
		}
	}

	result.Waves = computeWaves(result)

	return result, nil
}

// NewSchedules returns one schedule per activity, indexed like
// g.Activities, with earliest times zeroed and latest times Unset.
func NewSchedules(g *graph.Graph) []*Schedule {
	sched := make([]*Schedule, g.Len())
	for i, a := range g.Activities {
		sched[i] = &Schedule{ID: a.ID, Duration: a.Duration, LS: Unset, LF: Unset}
	}
	return sched
}

// ForwardPass sets ES and EF walking the topological order front to back.
// ES = max(EF of predecessors), or 0 for activities without any.
func ForwardPass(g *graph.Graph, order []int, sched []*Schedule) {
	for _, i := range order {
		es := 0
		for _, p := range g.Pred[i] {
			if sched[p].EF > es {
				es = sched[p].EF
			}
		}
		sched[i].ES = es
		sched[i].EF = es + sched[i].Duration
	}
}

// ProjectDuration is the largest EF among sink activities.
func ProjectDuration(g *graph.Graph, sched []*Schedule) int {
	duration := 0
	for i, s := range sched {
		if g.IsSink(i) && s.EF > duration {
			duration = s.EF
		}
	}
	return duration
}

// BackwardPass sets LF, LS and slack walking the topological order back to
// front. Sinks finish at the project duration; every other activity must
// finish by the earliest LS of its successors.
func BackwardPass(g *graph.Graph, order []int, sched []*Schedule, projectDuration int) {
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		s := sched[i]

		if g.IsSink(i) {
			s.LF = projectDuration
		} else {
			minLS := Unset
			for _, succ := range g.Succ[i] {
				if sched[succ].LS < minLS {
					minLS = sched[succ].LS
				}
			}
			s.LF = minLS
		}

		s.LS = s.LF - s.Duration
		s.Slack = s.LS - s.ES
		s.Critical = s.Slack == 0
	}
}

// Schedule returns the timing for an activity, or nil.
func (r *Result) Schedule(id string) *Schedule {
	return r.Schedules[id]
}

// Verify checks the timing invariants of a finished analysis.
func (r *Result) Verify() error {
	for _, id := range r.Order {
		s := r.Schedules[id]
		switch {
		case s.LF == Unset || s.LS == Unset:
			return fmt.Errorf("%w: activity %s has no latest times", ErrInconsistentTiming, id)
		case s.EF != s.ES+s.Duration:
			return fmt.Errorf("%w: activity %s EF=%d, ES+duration=%d", ErrInconsistentTiming, id, s.EF, s.ES+s.Duration)
		case s.LS != s.LF-s.Duration:
			return fmt.Errorf("%w: activity %s LS=%d, LF-duration=%d", ErrInconsistentTiming, id, s.LS, s.LF-s.Duration)
		case s.Slack != s.LS-s.ES:
			return fmt.Errorf("%w: activity %s slack=%d, LS-ES=%d", ErrInconsistentTiming, id, s.Slack, s.LS-s.ES)
		case s.Slack < 0:
			return fmt.Errorf("%w: activity %s slack=%d", ErrNegativeSlack, id, s.Slack)
		}
	}
	return nil
}

// computeWaves groups activities by their earliest start time.
func computeWaves(result *Result) []Wave {
	esGroups := make(map[int][]string)
	for _, id := range result.Order {
		es := result.Schedules[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		ids := esGroups[es]
		sort.Strings(ids)

		hasCritical := false
		for _, id := range ids {
			result.Schedules[id].Wave = i
			if result.Schedules[id].Critical {
				hasCritical = true
			}
		}

		// Critical activities first within a wave
		sort.SliceStable(ids, func(a, b int) bool {
			return result.Schedules[ids[a]].Critical && !result.Schedules[ids[b]].Critical
		})

		waves[i] = Wave{
			Index:       i,
			Start:       es,
			ActivityIDs: ids,
			IsCritical:  hasCritical,
		}
	}

	return waves
}
