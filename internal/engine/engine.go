// Package engine drives the sequential application-submission loop: one
// vacancy at a time, outcome classification, ledger updates, deliberate
// pacing, and an early halt when the platform reports its daily limit.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/avolkov/hh-autoapply/internal/hh"
	"github.com/avolkov/hh-autoapply/internal/letter"
)

// Ledger is the subset of the application ledger the engine mutates.
type Ledger interface {
	// Record stores a confirmed submission for the vacancy.
	Record(ctx context.Context, id string) error
	// AppliedToday returns the number of applications recorded today.
	AppliedToday() int
}

// ConfirmFunc asks the user whether to submit n applications.
type ConfirmFunc func(n int) bool

// Report aggregates the results of one run.
type Report struct {
	// Processed is the number of vacancies the loop reached.
	Processed int
	// Succeeded is the number of confirmed submissions.
	Succeeded int
	// Outcomes counts every non-success outcome by kind.
	Outcomes map[hh.Outcome]int
}

// Engine submits applications for candidate vacancies strictly one at a
// time. Sequential issuance is deliberate: the platform enforces per-account
// rate and daily limits, so concurrency would only raise error rates.
type Engine struct {
	api      hh.API
	ledger   Ledger
	letters  letter.Generator
	resumeID string
	dailyCap int
	limiter  *rate.Limiter
	confirm  ConfirmFunc
	out      io.Writer
	logger   *slog.Logger
}

// Option is a function that configures an Engine.
type Option func(*Engine)

// WithSubmitDelay sets the minimum pause between submissions. Zero disables
// pacing.
func WithSubmitDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			e.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// WithDailyCap sets the advisory daily application cap used for the
// pre-flight warning. The platform itself remains the enforcer.
func WithDailyCap(n int) Option {
	return func(e *Engine) {
		e.dailyCap = n
	}
}

// WithConfirm sets the hook asked before bulk submission.
func WithConfirm(f ConfirmFunc) Option {
	return func(e *Engine) {
		e.confirm = f
	}
}

// WithOutput sets the writer for user-facing progress and the final tally.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.out = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine with the observed platform defaults: a 3 second
// pause between submissions and a 200/day advisory cap. Without an explicit
// confirm hook every run proceeds unprompted.
func New(api hh.API, ledger Ledger, letters letter.Generator, resumeID string, opts ...Option) *Engine {
	e := &Engine{
		api:      api,
		ledger:   ledger,
		letters:  letters,
		resumeID: resumeID,
		dailyCap: 200,
		limiter:  rate.NewLimiter(rate.Every(3*time.Second), 1),
		confirm:  func(int) bool { return true },
		out:      os.Stdout,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run submits an application for each vacancy in order and returns the
// aggregate report. The loop halts early when the platform reports the
// daily limit, when authentication breaks mid-run, or when the context is
// cancelled; in every case records already written stand and the report
// covers what was processed.
func (e *Engine) Run(ctx context.Context, vacancies []hh.Vacancy) (*Report, error) {
	report := &Report{Outcomes: make(map[hh.Outcome]int)}

	e.checkResume(ctx)
	e.printRecentApplications(ctx)

	if len(vacancies) == 0 {
		fmt.Fprintln(e.out, "No suitable vacancies found")
		return report, nil
	}

	e.printCandidates(vacancies)

	if e.dailyCap > 0 && e.ledger.AppliedToday() >= e.dailyCap {
		fmt.Fprintf(e.out, "Warning: %d applications already sent today (cap %d), the platform will likely reject more\n",
			e.ledger.AppliedToday(), e.dailyCap)
	}

	if !e.confirm(len(vacancies)) {
		fmt.Fprintln(e.out, "Cancelled")
		return report, nil
	}

	var runErr error

	for _, v := range vacancies {
		// The limiter starts with one free token, so only submissions after
		// the first wait out the delay. Failed submissions pace too.
		if err := e.limiter.Wait(ctx); err != nil {
			e.logger.Info("run interrupted", slog.String("vacancy_id", v.ID))
			break
		}

		report.Processed++
		fmt.Fprintf(e.out, "\n%d/%d: %s\n", report.Processed, len(vacancies), v.Name)
		fmt.Fprintf(e.out, "Employer: %s\n", v.Employer.Name)

		message := e.letters.Generate(v)

		outcome, applicationID, err := e.api.Apply(ctx, v.ID, e.resumeID, message)
		if err != nil {
			// Authentication broke mid-run; further submissions cannot
			// succeed. Stop, keep the report, surface the error.
			e.logger.Error("submission failed",
				slog.String("vacancy_id", v.ID),
				slog.String("error", err.Error()),
			)
			runErr = fmt.Errorf("engine: apply to vacancy %s: %w", v.ID, err)
			break
		}

		if outcome == hh.OutcomeSuccess {
			report.Succeeded++
			fmt.Fprintf(e.out, "Success! Application ID: %s\n", applicationID)
			e.logger.Info("application submitted",
				slog.String("vacancy_id", v.ID),
				slog.String("application_id", applicationID),
			)

			if rerr := e.ledger.Record(ctx, v.ID); rerr != nil {
				// The in-memory record keeps this run consistent; the next
				// run may resubmit and be deduplicated by the platform.
				e.logger.Error("ledger write failed",
					slog.String("vacancy_id", v.ID),
					slog.String("error", rerr.Error()),
				)
			}
			continue
		}

		report.Outcomes[outcome]++
		fmt.Fprintln(e.out, outcome.Message())

		if outcome.Terminal() {
			fmt.Fprintln(e.out, "\nDaily hh.ru limit reached. Try again tomorrow.")
			break
		}
	}

	e.printReport(report)
	return report, runErr
}

// checkResume warns when the linked resume is not published. Advisory only:
// submissions may still go through, so the run continues either way.
func (e *Engine) checkResume(ctx context.Context) {
	resume, err := e.api.Resume(ctx, e.resumeID)
	if err != nil {
		e.logger.Warn("resume status check failed", slog.String("error", err.Error()))
		return
	}

	fmt.Fprintf(e.out, "Resume status: %s (%s)\n", resume.Status.Name, resume.Status.ID)
	if resume.Status.ID != hh.ResumeStatusPublished {
		fmt.Fprintln(e.out, "Warning: resume is not published, applications may fail")
		e.logger.Warn("resume not published", slog.String("status", resume.Status.ID))
	}
}

// printRecentApplications shows the existing application total and the most
// recent entries before submitting new ones.
func (e *Engine) printRecentApplications(ctx context.Context) {
	list, err := e.api.Negotiations(ctx, 5)
	if err != nil {
		e.logger.Warn("fetch applications failed", slog.String("error", err.Error()))
		return
	}

	fmt.Fprintf(e.out, "\nTotal applications so far: %d\n", list.Found)
	for i, n := range list.Items {
		fmt.Fprintf(e.out, "  %d. %s - %s\n", i+1, n.Vacancy.Name, formatCreatedAt(n.CreatedAt))
	}
}

// formatCreatedAt renders the platform's created_at timestamp compactly,
// falling back to the raw prefix when it does not parse.
func formatCreatedAt(raw string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02.01.2006 15:04")
		}
	}
	if len(raw) > 16 {
		return raw[:16]
	}
	return raw
}

// printCandidates lists the first candidates so the user knows what the
// confirmation covers.
func (e *Engine) printCandidates(vacancies []hh.Vacancy) {
	fmt.Fprintf(e.out, "\nVacancies to apply to (%d):\n", len(vacancies))

	const preview = 10
	for i, v := range vacancies {
		if i == preview {
			fmt.Fprintf(e.out, "  ... and %d more\n", len(vacancies)-preview)
			break
		}
		fmt.Fprintf(e.out, "  %d. %s - %s (%s)\n", i+1, v.Name, v.Employer.Name, v.Area.Name)
	}
}

// printReport prints the final tally.
func (e *Engine) printReport(r *Report) {
	fmt.Fprintln(e.out, "\nDone!")
	fmt.Fprintf(e.out, "Vacancies processed: %d\n", r.Processed)
	fmt.Fprintf(e.out, "Successful applications: %d\n", r.Succeeded)

	if len(r.Outcomes) > 0 {
		fmt.Fprintln(e.out, "\nError statistics:")
		for outcome, count := range r.Outcomes {
			fmt.Fprintf(e.out, "  %s: %d\n", outcome, count)
		}
	}
}
