// Package engine runs the drift scan: rank the facts, resolve each
// fact's verification sources, dispatch, reconcile, and account for the
// verification budget.
//
// A scan is one sequential pass. There is no parallelism and no
// mid-scan cancellation beyond the context handed to each verification
// call; the budget (item count, cumulative verification cost) is the
// only mechanism that bounds work, and it is checked before each fact
// is processed.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/driftwatch/internal/fix"
	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/pending"
	"github.com/roach88/driftwatch/internal/schema"
	"github.com/roach88/driftwatch/internal/scorer"
	"github.com/roach88/driftwatch/internal/verify"
)

// Budget bounds one scan pass. Zero fields mean unlimited.
type Budget struct {
	// MaxItems caps how many facts are checked.
	MaxItems int
	// MaxCost caps the cumulative verification cost (scorer units).
	MaxCost float64
}

// StopReason explains why a scan ended before exhausting the fact list.
type StopReason string

const (
	StopNone   StopReason = ""
	StopLimit  StopReason = "item limit reached"
	StopBudget StopReason = "cost budget exhausted"
)

// Options configure one scan pass.
type Options struct {
	// Interactive permits the implicit user_confirm fallback for facts
	// whose verify mode is human.
	Interactive bool
	// MemoryFile names the originating file recorded on queue entries.
	MemoryFile string
	Budget     Budget
}

// Report summarizes one scan pass.
type Report struct {
	// Results holds one entry per reconciled fact, in scan order.
	Results []fix.Result
	// Checked counts facts that reached a verification source.
	Checked int
	// SpentCost is the cumulative verification cost consumed.
	SpentCost float64
	// Queued lists keys handed to the pending queue.
	Queued []string
	// Skipped lists keys with no checkable source and no queue.
	Skipped []string
	// Stopped is set when a budget ended the pass early.
	Stopped StopReason
}

// Scanner wires the pieces a scan needs. Pending may be nil, in which
// case uncheckable facts are skipped instead of queued; Schema may be
// nil, in which case no fact has configured sources.
type Scanner struct {
	Registry *verify.Registry
	Schema   *schema.Schema
	Pending  *pending.Queue
	Log      *zap.Logger
}

// Scan runs one pass over the facts at the given date. Facts are
// processed in priority order; mutations happen in place through the
// fact pointers, so the caller persists the documents afterwards.
func (s *Scanner) Scan(ctx context.Context, facts []*memory.Fact, today time.Time, opts Options) (*Report, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	report := &Report{}
	ranked := scorer.Rank(facts, today)
	log.Debug("scan ranked facts", zap.Int("count", len(ranked)))

	for _, f := range ranked {
		if opts.Budget.MaxItems > 0 && report.Checked >= opts.Budget.MaxItems {
			report.Stopped = StopLimit
			log.Info("scan stopped", zap.String("reason", string(StopLimit)), zap.Int("checked", report.Checked))
			break
		}
		cost := scorer.VerifyCost(f.VerifyMode)
		if opts.Budget.MaxCost > 0 && report.SpentCost+cost > opts.Budget.MaxCost {
			report.Stopped = StopBudget
			log.Info("scan stopped",
				zap.String("reason", string(StopBudget)),
				zap.Float64("spent", report.SpentCost),
				zap.Float64("budget", opts.Budget.MaxCost))
			break
		}

		sourceIDs := s.sourcesFor(f, opts.Interactive)
		drift, claimed := s.Registry.Dispatch(ctx, sourceIDs, f.Value)
		if !claimed {
			if err := s.handleUnchecked(f, opts, report); err != nil {
				return nil, err
			}
			continue
		}

		result := fix.Apply(f, drift, today)
		report.Results = append(report.Results, result)
		report.Checked++
		report.SpentCost += cost
		log.Info("fact reconciled",
			zap.String("key", f.Key),
			zap.String("verdict", string(drift.Verdict)),
			zap.String("action", string(result.Action)))
	}

	return report, nil
}

// sourcesFor resolves the ordered source identifier list for a fact.
// The interactive fallback is modeled as an explicit extra entry
// appended to the list, so registry dispatch stays the single authority
// on verification order.
func (s *Scanner) sourcesFor(f *memory.Fact, interactive bool) []string {
	var ids []string
	if s.Schema != nil {
		ids = s.Schema.SourcesFor(f.Key)
	}
	if interactive && f.VerifyMode == memory.VerifyHuman && !contains(ids, verify.UserConfirmID) {
		ids = append(append([]string(nil), ids...), verify.UserConfirmID)
	}
	return ids
}

func (s *Scanner) handleUnchecked(f *memory.Fact, opts Options, report *Report) error {
	if s.Pending == nil {
		report.Skipped = append(report.Skipped, f.Key)
		return nil
	}
	added, err := s.Pending.Add(pending.Entry{
		ItemID:       f.ID,
		Key:          f.Key,
		CurrentValue: f.Value,
		VerifyMode:   string(f.VerifyMode),
		SourceFile:   opts.MemoryFile,
		Evidence:     "no checkable source",
	})
	if err != nil {
		return err
	}
	if added {
		report.Queued = append(report.Queued, f.Key)
	} else {
		// Already queued from an earlier pass; first enqueue wins.
		report.Skipped = append(report.Skipped, f.Key)
	}
	return nil
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
