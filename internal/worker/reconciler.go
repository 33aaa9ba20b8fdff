package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-booking/internal/ledger"
)

// ShowtimeSource lists the showtimes worth reconciling.
type ShowtimeSource interface {
	ActiveIDs(ctx context.Context) ([]uint64, error)
}

// Reconciler repairs a single showtime's cached counter.
type Reconciler interface {
	Reconcile(ctx context.Context, showtimeID uint64) (ledger.ReconcileResult, error)
}

// Stats summarises one reconciliation sweep.
type Stats struct {
	Checked  int
	Repaired int
	Failed   int
}

// ReconcileWorker periodically recomputes available seats of every
// active showtime from its bookings.
type ReconcileWorker struct {
	source      ShowtimeSource
	ledger      Reconciler
	interval    time.Duration
	concurrency int
	log         *logrus.Entry
}

func NewReconcileWorker(source ShowtimeSource, l Reconciler, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		source:      source,
		ledger:      l,
		interval:    interval,
		concurrency: 4,
		log:         logrus.WithField("component", "reconcile-worker"),
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (w *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval.String()).Info("reconcile worker started")
	w.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep reconciles every active showtime once.  A failing showtime is
// logged and does not stop the others.
func (w *ReconcileWorker) Sweep(ctx context.Context) Stats {
	ids, err := w.source.ActiveIDs(ctx)
	if err != nil {
		w.log.WithError(err).Error("list active showtimes failed")
		return Stats{Failed: 1}
	}

	var repaired, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := w.ledger.Reconcile(gctx, id)
			if err != nil {
				failed.Add(1)
				w.log.WithError(err).WithField("showtime_id", id).Error("reconcile failed")
				return nil
			}
			if res.Repaired {
				repaired.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	st := Stats{Checked: len(ids), Repaired: int(repaired.Load()), Failed: int(failed.Load())}
	entry := w.log.WithFields(logrus.Fields{"checked": st.Checked, "repaired": st.Repaired, "failed": st.Failed})
	if st.Repaired > 0 || st.Failed > 0 {
		entry.Warn("reconcile sweep finished with corrections")
	} else {
		entry.Debug("reconcile sweep finished")
	}
	return st
}
