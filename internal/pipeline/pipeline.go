package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/gowget/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// report from previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; per-URL problems
	// belong in the report and do not produce an error.
	Do(ctx context.Context, report *model.MirrorReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps run in order until one fails or the run is canceled.
	steps []Step

	// finalSteps always run after steps, with a context that is never canceled.
	finalSteps []Step

	logger *slog.Logger

	// continueOnError keeps running steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The error is still recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalStep appends a step that runs after the main steps even when
// one of them failed or the run was canceled.
func (p *Pipeline) AddFinalStep(step Step) {
	p.finalSteps = append(p.finalSteps, step)
}

// Execute runs the main steps in sequence, stamps report.FinishedAt and then
// runs the final steps.
//
// Cancellation is checked before each main step. A canceled run sets
// report.Canceled and is not an error: the partial mirror stays on disk.
// The first step error is returned unless continueOnError is set; errors of
// final steps are returned only when the main steps succeeded.
func (p *Pipeline) Execute(ctx context.Context, report *model.MirrorReport) error {
	err := p.runSteps(ctx, report)
	report.Finish()

	finalCtx := context.WithoutCancel(ctx)
	var finalErrs []error
	for _, step := range p.finalSteps {
		if stepErr := p.runStep(finalCtx, step, report); stepErr != nil {
			finalErrs = append(finalErrs, stepErr)
		}
	}

	if err != nil {
		return err
	}
	return errors.Join(finalErrs...)
}

func (p *Pipeline) runSteps(ctx context.Context, report *model.MirrorReport) error {
	var errs []error
	for _, step := range p.steps {
		if ctx.Err() != nil {
			p.logger.Warn("pipeline canceled",
				"step", step.Name(),
				"reason", context.Cause(ctx),
			)
			report.Canceled = true
			break
		}

		if err := p.runStep(ctx, step, report); err != nil {
			if !p.continueOnError {
				return err
			}
			errs = append(errs, err)
		}

		if report.Canceled {
			p.logger.Warn("run canceled, skipping remaining steps", "after", step.Name())
			break
		}
	}
	return errors.Join(errs...)
}

// runStep executes one step and records its outcome in the report.
func (p *Pipeline) runStep(ctx context.Context, step Step, report *model.MirrorReport) error {
	p.logger.Info("executing step",
		"step", step.Name(),
		"url", report.BaseURL,
	)

	if err := step.Do(ctx, report); err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"url", report.BaseURL,
			"error", err,
		)
		if report.Error == "" {
			report.Error = err.Error()
		}
		return err
	}

	p.logger.Debug("step completed",
		"step", step.Name(),
		"url", report.BaseURL,
	)
	report.PerformedSteps = append(report.PerformedSteps, step.Name())
	return nil
}

// StepCount returns the number of steps in the pipeline, final steps included.
func (p *Pipeline) StepCount() int {
	return len(p.steps) + len(p.finalSteps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalSteps {
		names = append(names, step.Name())
	}
	return names
}
