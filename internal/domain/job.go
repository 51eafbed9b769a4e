package domain

import "time"

// JobName identifies a background entry point.
type JobName string

const (
	JobEnrich  JobName = "enrich"
	JobFetch   JobName = "fetch"
	JobSweep   JobName = "sweep"
	JobCleanup JobName = "cleanup"
)

// Queue is a named priority lane.
type Queue string

const (
	QueueHigh   Queue = "high"
	QueueMedium Queue = "medium"
	QueueLow    Queue = "low"
)

// Queues lists lanes in the order workers drain them.
var Queues = []Queue{QueueHigh, QueueMedium, QueueLow}

// RouteFor returns the default lane of a job.
func RouteFor(name JobName) Queue {
	switch name {
	case JobEnrich:
		return QueueHigh
	case JobCleanup:
		return QueueLow
	default:
		return QueueMedium
	}
}

// Job is a queued invocation of one entry point.
type Job struct {
	ID         string    `json:"id"`
	Name       JobName   `json:"name"`
	Queue      Queue     `json:"queue"`
	ArticleID  int64     `json:"article_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
