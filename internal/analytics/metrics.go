package analytics

import (
	"math"

	"github.com/hanko-field/schedule/internal/domain"
)

// WeeklyCapacityHours is the utilisation denominator: a 40 hour, 5 day work week.
const WeeklyCapacityHours = 40 * 5

// Metrics holds per-partner KPIs. Percentages are unrounded values in [0,100].
type Metrics struct {
	Utilization    float64
	Efficiency     float64
	OnTimeDelivery float64
	AverageDelay   float64
	AverageCost    float64
	AverageQuality float64
}

// ComputeMetrics derives the KPIs of a workload whose buckets are already populated.
func ComputeMetrics(w PartnerWorkload) Metrics {
	var m Metrics
	m.Utilization = math.Min(w.TotalHours/WeeklyCapacityHours*100, 100)

	current := len(w.CurrentStages)
	var completed, delayed int
	var delaySum float64
	for _, stage := range w.CurrentStages {
		switch stage.Status {
		case domain.StageStatusCompleted:
			completed++
		case domain.StageStatusDelayed:
			delayed++
			actualEnd := stage.End
			if stage.ActualEnd != nil {
				actualEnd = *stage.ActualEnd
			}
			delaySum += HoursBetween(stage.End, actualEnd)
		}
	}
	if current > 0 {
		m.Efficiency = float64(completed) / float64(current) * 100
		m.OnTimeDelivery = float64(current-delayed) / float64(current) * 100
	}
	if delayed > 0 {
		m.AverageDelay = delaySum / float64(delayed)
	}

	total := current + len(w.UpcomingStages)
	if total == 0 {
		return m
	}
	var costSum, qualitySum float64
	for _, bucket := range [][]ScheduledStage{w.CurrentStages, w.UpcomingStages} {
		for _, stage := range bucket {
			costSum += valueOrZero(stage.Cost)
			qualitySum += valueOrZero(stage.Quality)
		}
	}
	m.AverageCost = costSum / float64(total)
	m.AverageQuality = qualitySum / float64(total)
	return m
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
