package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalyticsRollup derives monthly and yearly aggregates for a day set.
	TaskAnalyticsRollup = "analytics:rollup"
	// TaskAnalyticsRollupAll recomputes every derived bucket.
	TaskAnalyticsRollupAll = "analytics:rollup_all"
)

const dayLayout = "2006-01-02"

// RollupPayload carries the days touched by an import.
type RollupPayload struct {
	Days []string `json:"days"`
}

// NewRollupTask constructs a rollup task for the given days.
func NewRollupTask(days []time.Time) (*asynq.Task, error) {
	payload := RollupPayload{Days: make([]string, 0, len(days))}
	for _, day := range days {
		payload.Days = append(payload.Days, day.Format(dayLayout))
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsRollup, data), nil
}

// NewRollupAllTask constructs the full-recompute task used by the scheduler.
func NewRollupAllTask() *asynq.Task {
	return asynq.NewTask(TaskAnalyticsRollupAll, nil)
}

// ParseDays decodes the payload's day strings.
func (p RollupPayload) ParseDays() ([]time.Time, error) {
	days := make([]time.Time, 0, len(p.Days))
	for _, raw := range p.Days {
		day, err := time.Parse(dayLayout, raw)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}
