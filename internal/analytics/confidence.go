package analytics

import (
	"time"

	"github.com/hanko-field/schedule/internal/domain"
)

// RiskColor is the traffic-light classification of a delivery confidence score.
type RiskColor string

const (
	RiskGreen  RiskColor = "green"
	RiskYellow RiskColor = "yellow"
	RiskRed    RiskColor = "red"
)

const (
	delayedPenalty = 10
	overduePenalty = 15
	otherPenalty   = 2

	yellowThreshold = 70
	greenThreshold  = 90
)

var riskReasons = map[RiskColor]string{
	RiskGreen:  "On track for delivery",
	RiskYellow: "Potential delays detected",
	RiskRed:    "Likely delays - immediate action recommended",
}

// DeliveryConfidence is a heuristic 0-100 score for a project, not a probability.
type DeliveryConfidence struct {
	Score  float64
	Color  RiskColor
	Reason string
}

// ScoreDelivery scores a project from the completion, delay and overdue state of its stages.
// A stage that is both delayed and overdue is penalised twice.
func ScoreDelivery(project domain.ProductionProject, now time.Time) DeliveryConfidence {
	var completed, delayed, overdue int
	for _, stage := range project.Stages {
		if stage.Status == domain.StageStatusCompleted {
			completed++
		}
		if stage.Status == domain.StageStatusDelayed {
			delayed++
		}
		if stage.End.Before(now) && stage.Status != domain.StageStatusCompleted {
			overdue++
		}
	}
	other := len(project.Stages) - completed - delayed - overdue

	score := 100
	score -= delayed * delayedPenalty
	score -= overdue * overduePenalty
	score -= other * otherPenalty
	score = max(0, min(score, 100))

	color := colorForScore(float64(score))
	return DeliveryConfidence{
		Score:  float64(score),
		Color:  color,
		Reason: riskReasons[color],
	}
}

func colorForScore(score float64) RiskColor {
	switch {
	case score < yellowThreshold:
		return RiskRed
	case score < greenThreshold:
		return RiskYellow
	default:
		return RiskGreen
	}
}
