package realtime

import "fmt"

// processTick processes one complete tick
func (d *Dispatcher) processTick() {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	// Phase 1: Collect messages atomically
	batch, tick := d.collect()

	// Phase 2: Sort for deterministic order
	sortEnvelopes(batch)

	// Phase 3: Dispatch in order, isolating failures per message
	for _, env := range batch {
		if err := d.dispatchOne(env.Msg); err != nil {
			d.report(&DispatchError{Tick: tick, SequenceNum: env.SequenceNum, Msg: env.Msg, Err: err})
		}
	}

	d.batchMu.Lock()
	d.tickNum++
	d.batchMu.Unlock()
}

// collect atomically retrieves and clears the batch.
func (d *Dispatcher) collect() ([]Envelope, uint64) {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()

	batch := d.batch
	d.batch = make([]Envelope, 0, cap(d.batch))
	return batch, d.tickNum
}

func (d *Dispatcher) dispatchOne(msg any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	_, err = d.target.Dispatch(msg)
	return err
}
