package cpm

import "math"

// Unset marks a latest start/finish that the backward pass has not assigned.
const Unset = math.MaxInt

// Result holds the complete critical path analysis of one project.
type Result struct {
	Order           []string             `json:"order"` // topological order
	Schedules       map[string]*Schedule `json:"schedules"`
	CriticalPath    []string             `json:"critical_path"` // zero-slack activities in topological order
	ProjectDuration int                  `json:"project_duration"`
	Waves           []Wave               `json:"waves"` // activities grouped by earliest start
}

// Schedule holds the timing of a single activity.
type Schedule struct {
	ID       string `json:"id"`
	Duration int    `json:"duration"`
	ES       int    `json:"es"` // earliest start
	EF       int    `json:"ef"` // earliest finish
	LS       int    `json:"ls"` // latest start
	LF       int    `json:"lf"` // latest finish
	Slack    int    `json:"slack"`
	Critical bool   `json:"critical"`
	Wave     int    `json:"wave"`
}

// Wave is a group of activities sharing the same earliest start.
type Wave struct {
	Index       int      `json:"index"`
	Start       int      `json:"start"`
	ActivityIDs []string `json:"activity_ids"`
	IsCritical  bool     `json:"is_critical"` // true if the wave holds critical activities
}
