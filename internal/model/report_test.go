package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewMirrorReport(t *testing.T) {
	t.Parallel()

	report := NewMirrorReport("https://example.com/")

	t.Run("sets base URL", func(t *testing.T) {
		t.Parallel()
		if report.BaseURL != "https://example.com/" {
			t.Errorf("got %q, expected https://example.com/", report.BaseURL)
		}
	})

	t.Run("assigns a UUID", func(t *testing.T) {
		t.Parallel()
		if _, err := uuid.Parse(report.ID); err != nil {
			t.Errorf("expected a valid UUID, got %q: %v", report.ID, err)
		}
	})

	t.Run("sets start timestamp", func(t *testing.T) {
		t.Parallel()
		if report.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
		if time.Since(report.StartedAt) > time.Second {
			t.Error("StartedAt is too old")
		}
	})

	t.Run("initializes slices", func(t *testing.T) {
		t.Parallel()
		if report.Pages == nil || report.PerformedSteps == nil {
			t.Error("expected Pages and PerformedSteps to be non-nil")
		}
	})

	t.Run("IDs are unique", func(t *testing.T) {
		t.Parallel()
		if NewMirrorReport("https://example.com/").ID == report.ID {
			t.Error("expected distinct IDs")
		}
	})
}

func TestMirrorReport_Totals(t *testing.T) {
	t.Parallel()

	report := NewMirrorReport("https://example.com/")
	report.AddPage(StoredPage{URL: "https://example.com/", Size: 100})
	report.AddPage(StoredPage{URL: "https://example.com/a.png", Size: 2048})
	report.AddFailure(Failure{URL: "https://example.com/missing", StatusCode: 404, Reason: "404 Not Found"})

	if got := report.TotalBytes(); got != 2148 {
		t.Errorf("TotalBytes() = %d, want 2148", got)
	}
	if len(report.Failures) != 1 {
		t.Errorf("expected 1 failure, got %d", len(report.Failures))
	}
}

func TestMirrorReport_Duration(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	report := &MirrorReport{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	if got := report.Duration(); got != 90*time.Second {
		t.Errorf("Duration() = %v, want 1m30s", got)
	}

	running := &MirrorReport{StartedAt: time.Now()}
	if running.Duration() < 0 {
		t.Error("expected non-negative duration for running report")
	}
}
