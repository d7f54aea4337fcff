package orderbook

import "time"

// runPruner is the GoodForDay background task of spec §4.4.6. It computes
// the next local 16:00 boundary, waits on a timer for that deadline with a
// 100ms tolerance, and on wake cancels every resting GoodForDay order. A
// timed-receive on the shutdown channel is the idiomatic Go equivalent of
// the reference design's condition-variable-with-deadline wait (spec §9).
func (e *Engine) runPruner() {
	defer e.wg.Done()

	for {
		d := nextBoundaryIn(e.now(), 16, 0, 100*time.Millisecond)

		timer := time.NewTimer(d)
		select {
		case <-e.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		select {
		case <-e.stopCh:
			return
		default:
		}

		e.pruneGoodForDay()
	}
}

func (e *Engine) pruneGoodForDay() {
	e.mu.Lock()
	ids := make([]OrderID, 0)
	for id, entry := range e.orders {
		if entry.order.otype == GoodForDay {
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.CancelOrder(id)
	}
}

// nextBoundaryIn computes the duration from now until the next local
// hour:minute boundary, plus tolerance. If now is exactly at the boundary
// (within tolerance) it still schedules the next day's occurrence, matching
// the reference source's unconditional "next" semantics.
func nextBoundaryIn(now time.Time, hour, minute int, tolerance time.Duration) time.Duration {
	boundary := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !boundary.After(now) {
		boundary = boundary.AddDate(0, 0, 1)
	}
	return boundary.Sub(now) + tolerance
}
