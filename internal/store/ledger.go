package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultLedgerFile is the applied-vacancies file name used when none is
// configured.
const DefaultLedgerFile = "applied_vacancies.json"

// timestampLayout is the persisted submission time format, local time.
const timestampLayout = "2006-01-02 15:04:05"

// dateLayout is the prefix of timestampLayout used for daily counting.
const dateLayout = "2006-01-02"

// Ledger tracks which vacancies have already been applied to. Presence of an
// ID is the idempotence guarantee; the value is the submission timestamp.
// The ledger also derives the applied-today counter from timestamp date
// prefixes. It is not safe for concurrent use; the submission loop is the
// single owner.
type Ledger struct {
	backend Backend
	name    string
	applied map[string]string
	today   int
	now     func() time.Time
	logger  *slog.Logger
}

// LedgerOption is a function that configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock sets the time source, letting tests pin the current day.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithLedgerLogger sets the structured logger.
func WithLedgerLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// NewLedger creates a ledger on the given backend. An empty name falls back
// to DefaultLedgerFile. Call Load before use.
func NewLedger(backend Backend, name string, opts ...LedgerOption) *Ledger {
	if name == "" {
		name = DefaultLedgerFile
	}

	l := &Ledger{
		backend: backend,
		name:    name,
		applied: make(map[string]string),
		now:     time.Now,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads the persisted mapping and counts the entries dated today.
// A missing file yields an empty ledger.
func (l *Ledger) Load(ctx context.Context) error {
	l.applied = make(map[string]string)
	l.today = 0

	data, err := l.backend.Read(ctx, l.name)
	if errors.Is(err, ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &l.applied); err != nil {
		return fmt.Errorf("store: decode ledger %s: %w", l.name, err)
	}

	today := l.now().Format(dateLayout)
	for _, ts := range l.applied {
		if strings.HasPrefix(ts, today) {
			l.today++
		}
	}

	l.logger.Info("ledger loaded",
		slog.Int("applied_total", len(l.applied)),
		slog.Int("applied_today", l.today),
	)
	return nil
}

// Contains reports whether an application for the vacancy was already
// recorded.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.applied[id]
	return ok
}

// Len returns the total number of recorded applications.
func (l *Ledger) Len() int {
	return len(l.applied)
}

// AppliedToday returns the number of recorded applications dated today.
func (l *Ledger) AppliedToday() int {
	return l.today
}

// Record stores the submission timestamp for a vacancy and rewrites the
// ledger file synchronously. Call it only after a confirmed 201: recording
// a failed submission would block the legitimate retry on a later run.
// A persistence error leaves the in-memory record in place so the current
// run stays consistent; the caller decides whether to log and continue.
func (l *Ledger) Record(ctx context.Context, id string) error {
	if _, ok := l.applied[id]; ok {
		return nil
	}

	l.applied[id] = l.now().Format(timestampLayout)
	l.today++

	data, err := json.MarshalIndent(l.applied, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode ledger: %w", err)
	}

	if err := l.backend.Write(ctx, l.name, data); err != nil {
		return fmt.Errorf("store: persist ledger: %w", err)
	}
	return nil
}
