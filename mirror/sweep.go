package mirror

import (
	"context"
	"time"
)

const sweepBatch = 100

// sweepLoop periodically re-enqueues records whose latest state never
// reached the ledger. The sweep is idempotent and safe to run alongside
// live traffic: it only ever schedules the current snapshot, so a stale
// intermediate state can never be replayed.
func (m *Mirror) sweepLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep scans for pending-mirror records and schedules them once more.
// Exposed so operators (and tests) can force a pass.
func (m *Mirror) Sweep() {
	recs, err := m.store.PendingMirror(context.Background(), sweepBatch)
	if err != nil {
		m.log.Errorw("mirror sweep scan failed", "error", err)
		return
	}
	for _, rec := range recs {
		m.Enqueue(rec.Email, rec.Revision)
	}
	if len(recs) > 0 {
		m.log.Infow("mirror sweep scheduled", "records", len(recs))
	}
}
