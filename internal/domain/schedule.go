package domain

import "time"

// ProjectStatus reports the overall health of a production project.
type ProjectStatus string

const (
	ProjectStatusOnTrack   ProjectStatus = "on-track"
	ProjectStatusDelayed   ProjectStatus = "delayed"
	ProjectStatusAtRisk    ProjectStatus = "at-risk"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// IsValid reports whether the status is one of the known project states.
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusOnTrack, ProjectStatusDelayed, ProjectStatusAtRisk, ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

// ProjectPriority ranks customer orders in production.
type ProjectPriority string

const (
	ProjectPriorityLow      ProjectPriority = "low"
	ProjectPriorityMedium   ProjectPriority = "medium"
	ProjectPriorityHigh     ProjectPriority = "high"
	ProjectPriorityCritical ProjectPriority = "critical"
)

// IsValid reports whether the priority is one of the known levels.
func (p ProjectPriority) IsValid() bool {
	switch p {
	case ProjectPriorityLow, ProjectPriorityMedium, ProjectPriorityHigh, ProjectPriorityCritical:
		return true
	default:
		return false
	}
}

// StageStatus tracks the lifecycle of a single production stage.
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in-progress"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusBlocked    StageStatus = "blocked"
	StageStatusDelayed    StageStatus = "delayed"
)

// IsValid reports whether the status is one of the known stage states.
func (s StageStatus) IsValid() bool {
	switch s {
	case StageStatusPending, StageStatusInProgress, StageStatusCompleted, StageStatusBlocked, StageStatusDelayed:
		return true
	default:
		return false
	}
}

// ProductionProject is a customer order moving through the workshop.
type ProductionProject struct {
	ID           string
	Name         string
	Status       ProjectStatus
	Start        time.Time
	End          time.Time
	Progress     float64
	Priority     ProjectPriority
	Dependencies []string
	TeamMembers  []string
	Stages       []ProductionStage
}

// ProductionStage is one unit of work within a project (design, CAD, casting, ...).
type ProductionStage struct {
	ID    string
	Name  string
	Order int
	// EstimatedDuration and ActualDuration are expressed in days.
	EstimatedDuration float64
	ActualDuration    *float64
	Status            StageStatus
	Assignees         []string
	Dependencies      []string
	Start             time.Time
	End               time.Time
	ActualEnd         *time.Time
	Cost              *float64
	Quality           *float64
	Progress          *float64
	// Partner is the craftsman or vendor responsible for the stage.
	Partner string
}

// StageIndex maps stage identifiers to their position within stages.
func StageIndex(stages []ProductionStage) map[string]int {
	index := make(map[string]int, len(stages))
	for i, stage := range stages {
		if _, exists := index[stage.ID]; exists {
			continue
		}
		index[stage.ID] = i
	}
	return index
}
