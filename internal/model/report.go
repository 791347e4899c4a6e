package model

import (
	"time"

	"github.com/google/uuid"
)

// MirrorReport is the outcome of one mirror run.
// The crawl engine fills Pages, Failures and Skipped; later pipeline steps
// add link conversion results and record which steps ran.
type MirrorReport struct {
	// ID uniquely identifies the run, also in the history database.
	ID string `json:"id"`

	// BaseURL is the seed URL as given by the user.
	BaseURL string `json:"base_url"`

	// Domain is the host name the crawl is restricted to.
	Domain string `json:"domain"`

	// Root is the mirror root directory.
	Root string `json:"root"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step finished. Zero while running.
	FinishedAt time.Time `json:"finished_at"`

	// Pages lists every stored file in the order it was written.
	Pages []StoredPage `json:"pages"`

	// Failures lists URLs that could not be fetched or stored.
	Failures []Failure `json:"failures,omitempty"`

	// Skipped counts URLs rejected by filters or already visited.
	Skipped int `json:"skipped"`

	// ConvertedFiles counts HTML files changed by link conversion.
	ConvertedFiles int `json:"converted_files"`

	// Canceled is true when the run was interrupted and the mirror is partial.
	Canceled bool `json:"canceled"`

	// Error holds the fatal error message of a run that aborted, if any.
	Error string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps"`
}

// NewMirrorReport creates a report for a run seeded with baseURL.
func NewMirrorReport(baseURL string) *MirrorReport {
	return &MirrorReport{
		ID:             uuid.NewString(),
		BaseURL:        baseURL,
		StartedAt:      time.Now(),
		Pages:          make([]StoredPage, 0),
		PerformedSteps: make([]string, 0),
	}
}

// AddPage records a stored file.
func (r *MirrorReport) AddPage(p StoredPage) {
	r.Pages = append(r.Pages, p)
}

// AddFailure records a failed URL.
func (r *MirrorReport) AddFailure(f Failure) {
	r.Failures = append(r.Failures, f)
}

// TotalBytes returns the sum of all stored file sizes.
func (r *MirrorReport) TotalBytes() int64 {
	var total int64
	for _, p := range r.Pages {
		total += p.Size
	}
	return total
}

// Duration returns how long the run took, or has taken so far.
func (r *MirrorReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finish stamps FinishedAt.
func (r *MirrorReport) Finish() {
	r.FinishedAt = time.Now()
}
