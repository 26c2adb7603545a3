// Package session owns the live ledger of a running server.
//
// A Session goes through create-empty, Load, then any number of
// mutate-and-save cycles. Every mutation is followed by a full snapshot save.
// Operations are serialized: one runs to completion before the next starts.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/ledger"
	"github.com/mmynk/carpool/internal/metrics"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/snapshot"
	"github.com/mmynk/carpool/internal/storage"
)

// SnapshotFilename is the name used when the ledger is exported as CSV.
const SnapshotFilename = "trips.csv"

// Settings are the mutable defaults of a session.
type Settings struct {
	// DefaultFare applies to new trips that do not name a fare. Changing it
	// never touches existing legs.
	DefaultFare int64
	Currency    string
}

// Options configures a new Session.
type Options struct {
	Policy   ledger.Policy
	Settings Settings
	// Location decides what "today" means for period views. Defaults to UTC.
	Location *time.Location
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Session couples a ledger.Store with the backend it is persisted to.
type Session struct {
	mu       sync.Mutex
	store    *ledger.Store
	backend  storage.Store
	settings Settings
	loc      *time.Location
	now      func() time.Time
}

// New creates an empty session. Call Load to read the persisted snapshot.
func New(backend storage.Store, opts Options) *Session {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		store:    ledger.NewStore(opts.Policy),
		backend:  backend,
		settings: opts.Settings,
		loc:      opts.Location,
		now:      opts.Now,
	}
}

// Roster returns the configured participants and drivers.
func (s *Session) Roster() models.Roster {
	return s.store.Policy().Roster
}

// Policy returns the rules new and edited legs are validated against.
func (s *Session) Policy() ledger.Policy {
	return s.store.Policy()
}

// Today returns the current calendar date in the session's location.
func (s *Session) Today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

// Load replaces the in-memory ledger with the backend's snapshot.
// A malformed snapshot leaves the current ledger untouched.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.backend.LoadSnapshot(ctx)
	if err != nil {
		return &ledger.PersistenceError{Op: "load", Backend: s.backend.Name(), Err: err}
	}
	if err := s.replace(table); err != nil {
		return err
	}

	metrics.Legs.Set(float64(s.store.Len()))
	slog.Info("Snapshot loaded", "backend", s.backend.Name(), "count", s.store.Len())
	return nil
}

// ImportCSV restores the ledger from a CSV backup and saves it.
// The file is decoded completely before the ledger is touched.
func (s *Session) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := snapshot.ReadCSV(r)
	if err != nil {
		return 0, &ledger.ImportFormatError{Problems: []ledger.RowProblem{{Reason: err.Error()}}}
	}
	if err := s.replace(table); err != nil {
		return 0, err
	}

	slog.Info("Snapshot imported", "count", s.store.Len())
	return s.store.Len(), s.save(ctx)
}

// ExportCSV writes the whole ledger, in insertion order, as CSV.
func (s *Session) ExportCSV(w io.Writer) error {
	s.mu.Lock()
	rows := snapshot.FormatRows(s.store.Snapshot())
	s.mu.Unlock()

	return snapshot.WriteCSV(w, rows)
}

// BackupName returns the file name for a backup taken at t.
func BackupName(t time.Time) string {
	return fmt.Sprintf("trips_%s.csv", t.Format("2006-01-02_1504"))
}

// Save writes the current ledger to the backend.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

// AddTrip records one leg or a round trip and saves. A nil fare uses the
// session's default fare.
func (s *Session) AddTrip(ctx context.Context, trip ledger.NewTrip, fare *int64) ([]models.TripLeg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip.FarePerLeg = s.settings.DefaultFare
	if fare != nil {
		trip.FarePerLeg = *fare
	}

	legs, err := s.store.AddRoundTrip(trip)
	if err != nil {
		return nil, err
	}

	slog.Info("Trip recorded", "legs", len(legs), "driver", trip.Driver, "date", trip.Date.String())
	return legs, s.save(ctx)
}

// UpdateLeg edits one leg and saves.
func (s *Session) UpdateLeg(ctx context.Context, id int64, upd ledger.LegUpdate) (models.TripLeg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leg, err := s.store.Update(id, upd)
	if err != nil {
		return models.TripLeg{}, err
	}

	slog.Info("Leg updated", "leg_id", id)
	return leg, s.save(ctx)
}

// RemoveLegs deletes the legs with the given ids. Unknown ids are ignored;
// nothing is saved when no leg was removed.
func (s *Session) RemoveLegs(ctx context.Context, ids ...int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.Remove(ids...)
	if removed == 0 {
		return 0, nil
	}

	slog.Info("Legs removed", "count", removed)
	return removed, s.save(ctx)
}

// Get returns one leg.
func (s *Session) Get(id int64) (models.TripLeg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Legs returns the legs matching f, sorted.
func (s *Session) Legs(f ledger.Filter) []models.TripLeg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List(f)
}

// Summary aggregates the legs matching f over period. A zero asOf means today.
func (s *Session) Summary(f ledger.Filter, period calculator.Period, asOf civil.Date) calculator.Summary {
	if asOf == (civil.Date{}) {
		asOf = s.Today()
	}
	legs := s.Legs(f)
	return calculator.SummarizePeriod(legs, s.Roster(), period, asOf)
}

// Settings returns the current defaults.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetDefaultFare changes the fare applied to future trips.
func (s *Session) SetDefaultFare(fare int64) error {
	if fare < 0 {
		return &ledger.ValidationError{Field: "default_fare", Value: fmt.Sprint(fare), Reason: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.DefaultFare = fare
	slog.Info("Default fare changed", "fare", fare)
	return nil
}

// History lists recent saves when the backend keeps a log of them.
func (s *Session) History(ctx context.Context, limit int) ([]storage.SaveRecord, bool, error) {
	h, ok := s.backend.(storage.History)
	if !ok {
		return nil, false, nil
	}
	saves, err := h.ListSaves(ctx, limit)
	if err != nil {
		return nil, true, &ledger.PersistenceError{Op: "list", Backend: s.backend.Name(), Err: err}
	}
	return saves, true, nil
}

// Backend returns the name of the storage backend.
func (s *Session) Backend() string {
	return s.backend.Name()
}

func (s *Session) replace(table snapshot.Table) error {
	legs, err := snapshot.Decode(table, snapshot.DecodeOptions{DefaultFare: s.settings.DefaultFare})
	if err != nil {
		return err
	}
	return s.store.ReplaceAll(legs)
}

// save must be called with mu held. A failed save keeps the in-memory
// ledger as it is.
func (s *Session) save(ctx context.Context) error {
	start := time.Now()
	rows := snapshot.FormatRows(s.store.Snapshot())
	err := s.backend.SaveSnapshot(ctx, rows)
	metrics.ObserveSave(s.backend.Name(), err, len(rows))
	if err != nil {
		slog.Error("Snapshot save failed", "backend", s.backend.Name(), "error", err)
		return &ledger.PersistenceError{Op: "save", Backend: s.backend.Name(), Err: err}
	}
	slog.Debug("Snapshot saved", "backend", s.backend.Name(), "count", len(rows),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
