package cartsync

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xenking/storefront-cart/internal/localstore"
	"github.com/xenking/storefront-cart/internal/session"
)

// MergeFailure records one guest line that could not be migrated.
type MergeFailure struct {
	ProductID string
	Err       error
}

// MergeReport is the per-line outcome log of a guest-to-authenticated
// merge. The merge is intentionally non-atomic: a partial migration is an
// accepted outcome, and the report exists for diagnostics.
type MergeReport struct {
	Attempted int
	Migrated  []string
	Failed    []MergeFailure
}

// onSessionChange triggers the merge when the session transitions from
// guest to authenticated, once hydration has completed.
func (m *Manager) onSessionChange(snap session.Snapshot) {
	if !snap.Authenticated {
		return
	}

	m.mu.Lock()
	ready := m.hydrated && !m.merged
	m.mu.Unlock()
	if !ready {
		return
	}

	ctx := zctx.Base(context.Background(), m.lg)
	if _, err := m.MergeCarts(ctx); err != nil {
		m.lg.Warn("Cart merge failed", zap.Error(err))
	}
}

// MergeCarts migrates the persisted guest cart into the authenticated
// remote cart, line by line. Each line failure is logged and skipped. The
// guest storage entry is deleted unconditionally afterwards, and the
// authenticated cart is refetched to become the source of truth. The merge
// runs at most once per session; later calls return the first report.
func (m *Manager) MergeCarts(ctx context.Context) (*MergeReport, error) {
	if !m.session.Authenticated() {
		return nil, errors.New("merge requires an authenticated session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.merged {
		return m.lastMerge, nil
	}
	// Marked before the attempt so a failing merge never re-runs on every
	// subsequent login tick.
	m.merged = true

	ctx, span := m.tracer.Start(ctx, "cartsync.merge")
	defer span.End()

	lg := zctx.From(ctx)
	report := &MergeReport{}

	guest, err := localstore.LoadCart(ctx, m.store, localstore.KeyGuestCart)
	if err != nil {
		lg.Warn("Guest cart unreadable, skipping line migration", zap.Error(err))
	}
	if guest != nil {
		for _, l := range guest.Lines {
			report.Attempted++
			if _, err := m.remote.AddItem(ctx, l.Product.ID, l.Quantity, l.Color, l.Size); err != nil {
				report.Failed = append(report.Failed, MergeFailure{ProductID: l.Product.ID, Err: err})
				lg.Warn("Cart line migration failed",
					zap.String("product_id", l.Product.ID),
					zap.Int("quantity", l.Quantity),
					zap.Error(err),
				)
				continue
			}
			report.Migrated = append(report.Migrated, l.Product.ID)
		}
	}

	// Unconditional: the guest cart is gone even if every line failed.
	if err := m.store.Delete(ctx, localstore.KeyGuestCart); err != nil {
		lg.Warn("Guest cart delete failed", zap.Error(err))
	}

	server, err := m.remote.FetchCart(ctx)
	if err != nil {
		m.lastMerge = report
		span.SetAttributes(mergeAttributes(report)...)
		return report, errors.Wrap(err, "refetch cart after merge")
	}
	_ = m.state.Replace(server)
	m.saveBackup(ctx)

	lg.Info("Guest cart merged",
		zap.Int("attempted", report.Attempted),
		zap.Int("migrated", len(report.Migrated)),
		zap.Int("failed", len(report.Failed)),
	)

	m.lastMerge = report
	span.SetAttributes(mergeAttributes(report)...)
	return report, nil
}

// LastMergeReport returns the report of the completed merge, or nil if the
// merge has not run.
func (m *Manager) LastMergeReport() *MergeReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMerge
}

func mergeAttributes(r *MergeReport) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("merge.attempted", r.Attempted),
		attribute.Int("merge.migrated", len(r.Migrated)),
		attribute.Int("merge.failed", len(r.Failed)),
	}
}
