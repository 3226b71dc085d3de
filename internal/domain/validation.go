package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidSchedule is matched by errors.Is on every ValidationError.
var ErrInvalidSchedule = errors.New("schedule: invalid snapshot")

// Problem describes a single field that failed validation.
type Problem struct {
	ProjectID string
	StageID   string
	Field     string
	Reason    string
}

func (p Problem) String() string {
	var b strings.Builder
	b.WriteString("project ")
	b.WriteString(quoteOrIndex(p.ProjectID))
	if p.StageID != "" {
		b.WriteString(" stage ")
		b.WriteString(quoteOrIndex(p.StageID))
	}
	b.WriteString(": ")
	b.WriteString(p.Field)
	b.WriteString(" ")
	b.WriteString(p.Reason)
	return b.String()
}

// ValidationError lists every problem found in a schedule snapshot.
type ValidationError struct {
	problems []Problem
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.problems) == 0 {
		return ErrInvalidSchedule.Error()
	}
	parts := make([]string, 0, len(e.problems))
	for _, p := range e.problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidSchedule.Error(), strings.Join(parts, "; "))
}

// Is allows errors.Is(err, ErrInvalidSchedule).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSchedule
}

// Problems returns a copy of the recorded problems.
func (e *ValidationError) Problems() []Problem {
	if e == nil {
		return nil
	}
	out := make([]Problem, len(e.problems))
	copy(out, e.problems)
	return out
}

// ValidateOption customises ValidateProjects.
type ValidateOption func(*validateOptions)

type validateOptions struct {
	cycleCheck bool
}

// WithCycleCheck toggles detection of dependency cycles between stages.
func WithCycleCheck(enabled bool) ValidateOption {
	return func(o *validateOptions) {
		o.cycleCheck = enabled
	}
}

// ValidateProjects checks a snapshot once before any analysis runs over it.
// Dependencies on stages absent from the project are permitted.
func ValidateProjects(projects []ProductionProject, opts ...ValidateOption) error {
	options := validateOptions{cycleCheck: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	var problems []Problem
	seenProjects := make(map[string]struct{}, len(projects))
	for i, project := range projects {
		projectRef := strings.TrimSpace(project.ID)
		if projectRef == "" {
			projectRef = fmt.Sprintf("#%d", i)
			problems = append(problems, Problem{ProjectID: projectRef, Field: "id", Reason: "is required"})
		} else if _, dup := seenProjects[projectRef]; dup {
			problems = append(problems, Problem{ProjectID: projectRef, Field: "id", Reason: "is duplicated within the snapshot"})
		}
		seenProjects[projectRef] = struct{}{}
		add := func(stageID, field, reason string) {
			problems = append(problems, Problem{ProjectID: projectRef, StageID: stageID, Field: field, Reason: reason})
		}

		switch {
		case project.Status == "":
			add("", "status", "is required")
		case !project.Status.IsValid():
			add("", "status", fmt.Sprintf("%q is not a known project status", project.Status))
		}
		switch {
		case project.Priority == "":
			add("", "priority", "is required")
		case !project.Priority.IsValid():
			add("", "priority", fmt.Sprintf("%q is not a known priority", project.Priority))
		}
		checkWindow(project.Start, project.End, func(field, reason string) { add("", field, reason) })
		if project.Progress < 0 || project.Progress > 100 {
			add("", "progress", "must be within [0,100]")
		}

		seen := make(map[string]struct{}, len(project.Stages))
		for j, stage := range project.Stages {
			stageRef := strings.TrimSpace(stage.ID)
			if stageRef == "" {
				stageRef = fmt.Sprintf("#%d", j)
				add(stageRef, "id", "is required")
			} else if _, dup := seen[stageRef]; dup {
				add(stageRef, "id", "is duplicated within the project")
			}
			seen[stageRef] = struct{}{}

			if strings.TrimSpace(stage.Partner) == "" {
				add(stageRef, "partner", "is required")
			}
			if !stage.Status.IsValid() {
				add(stageRef, "status", fmt.Sprintf("%q is not a known stage status", stage.Status))
			}
			checkWindow(stage.Start, stage.End, func(field, reason string) { add(stageRef, field, reason) })
			if stage.Quality != nil && (*stage.Quality < 0 || *stage.Quality > 10) {
				add(stageRef, "quality", "must be within [0,10]")
			}
			if stage.Progress != nil && (*stage.Progress < 0 || *stage.Progress > 100) {
				add(stageRef, "progress", "must be within [0,100]")
			}
			for _, dep := range stage.Dependencies {
				if dep == stage.ID {
					add(stageRef, "dependencies", "must not reference the stage itself")
				}
			}
		}

		if options.cycleCheck {
			if cycle := findCycle(project.Stages); len(cycle) > 0 {
				add(cycle[0], "dependencies", "form a cycle: "+strings.Join(cycle, " -> "))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{problems: problems}
	}
	return nil
}

// checkWindow reports missing bounds, and an inverted window only when both bounds are set.
func checkWindow(start, end time.Time, add func(field, reason string)) {
	if start.IsZero() {
		add("start", "is required")
	}
	if end.IsZero() {
		add("end", "is required")
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		add("start", "must not be after end")
	}
}

// findCycle returns the stage ids of the first dependency cycle found, closing on the
// starting id. Self references are reported separately and skipped here.
func findCycle(stages []ProductionStage) []string {
	index := StageIndex(stages)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(stages))
	var stack []string
	var cycle []string

	var visit func(i int) bool
	visit = func(i int) bool {
		state[i] = visiting
		stack = append(stack, stages[i].ID)
		for _, dep := range stages[i].Dependencies {
			j, ok := index[dep]
			if !ok || j == i {
				continue
			}
			switch state[j] {
			case visiting:
				for k, id := range stack {
					if id == stages[j].ID {
						cycle = append(append([]string{}, stack[k:]...), stages[j].ID)
						return true
					}
				}
			case unvisited:
				if visit(j) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = done
		return false
	}

	for i := range stages {
		if state[i] == unvisited && visit(i) {
			return cycle
		}
	}
	return nil
}

func quoteOrIndex(ref string) string {
	if strings.HasPrefix(ref, "#") {
		return ref
	}
	return fmt.Sprintf("%q", ref)
}
