// Package ingest runs one batch of raw match rows through normalization,
// sequencing and the statistics pipeline, then appends the result to the ledger.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pable/go-match-stats/internal/aggregator"
	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/parser"
	"github.com/pable/go-match-stats/internal/storage"
)

// Summary describes a finished ingestion run.
type Summary struct {
	Run  model.IngestRun
	Rows []model.PlayerStatRow

	// FirstMatchID and LastMatchID bound the ids assigned in this run.
	// Both are -1 when nothing was appended.
	FirstMatchID int64
	LastMatchID  int64
}

// Service ingests batches into a ledger. Callers must not run two
// ingestions against the same ledger at once.
type Service struct {
	ledger storage.Ledger
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(ledger storage.Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, log: logger.Sugar(), now: time.Now}
}

// IngestFile reads a .csv or .xlsx batch and ingests it.
func (s *Service) IngestFile(ctx context.Context, path string) (*Summary, error) {
	raw, err := parser.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.IngestBatch(ctx, raw, filepath.Base(path))
}

// IngestBatch normalizes raw rows, drops matches already in the ledger,
// computes statistics rows and appends them in one transaction.
//
// Malformed rows are skipped and logged. Ledger errors abort the run and
// nothing is persisted.
func (s *Service) IngestBatch(ctx context.Context, raw []parser.RawRow, source string) (*Summary, error) {
	run := model.IngestRun{
		RunID:       uuid.NewString(),
		Source:      source,
		StartedAt:   s.now().UTC().Truncate(time.Second),
		MatchesRead: len(raw),
	}
	log := s.log.With("run_id", run.RunID, "source", source)

	records := make([]model.MatchRecord, 0, len(raw))
	for _, r := range raw {
		rec, err := parser.Normalize(r)
		if err != nil {
			log.Warnw("skipping row", "row", r.Line, "reason", err.Error())
			run.MatchesSkipped++
			continue
		}
		records = append(records, rec)
	}

	fresh, dups, err := s.splitKnown(ctx, records)
	if err != nil {
		return nil, err
	}
	for _, rec := range dups {
		log.Infow("skipping duplicate match", "row", rec.Line,
			"player1", rec.Player1, "player2", rec.Player2, "date", storage.FormatDate(rec.Date))
	}
	run.MatchesDuplicate = len(dups)

	lastID, err := s.ledger.MaxMatchID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read max match id: %w", err)
	}
	matches := aggregator.Sequence(fresh, lastID)

	rows, err := aggregator.NewPipeline(s.ledger, log.Desugar()).Process(ctx, matches)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}

	if err := s.ledger.Append(ctx, run, rows); err != nil {
		return nil, fmt.Errorf("append ledger: %w", err)
	}
	run.RowsAppended = len(rows)

	sum := &Summary{Run: run, Rows: rows, FirstMatchID: -1, LastMatchID: -1}
	if len(matches) > 0 {
		sum.FirstMatchID = matches[0].MatchID
		sum.LastMatchID = matches[len(matches)-1].MatchID
	}
	log.Infow("ingestion finished",
		"read", run.MatchesRead,
		"skipped", run.MatchesSkipped,
		"duplicates", run.MatchesDuplicate,
		"rows", run.RowsAppended,
	)
	return sum, nil
}

// splitKnown separates records already in the ledger, or repeated earlier in
// the batch, from the new ones. Both keep input order.
func (s *Service) splitKnown(ctx context.Context, records []model.MatchRecord) (fresh, dups []model.MatchRecord, err error) {
	keys := make([]string, len(records))
	for i := range records {
		keys[i] = records[i].SourceKey
	}
	known, err := s.ledger.KnownSourceKeys(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("check known matches: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if known[rec.SourceKey] || seen[rec.SourceKey] {
			dups = append(dups, rec)
			continue
		}
		seen[rec.SourceKey] = true
		fresh = append(fresh, rec)
	}
	return fresh, dups, nil
}
