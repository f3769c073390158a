package pipeline

import "github.com/rhuss/postsmith/pkg/api"

// Progress is an advisory milestone reported while a run executes.
type Progress struct {
	Fraction    float64
	Description string
	State       api.State
}

// ProgressFunc receives milestones. It is called on the run's goroutine and
// must not block for long.
type ProgressFunc func(Progress)

var (
	progressSearching  = Progress{Fraction: 0.1, Description: "Starting search...", State: api.StateSearching}
	progressAnalyzing  = Progress{Fraction: 0.4, Description: "Analyzing search results...", State: api.StateSummarizing}
	progressFinalizing = Progress{Fraction: 0.9, Description: "Finalizing post...", State: api.StatePostGenerating}
)
