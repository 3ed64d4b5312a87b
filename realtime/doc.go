// Package realtime feeds a store from a fixed-rate tick loop.
//
// Messages sent to a Dispatcher are queued and applied at the next tick
// boundary rather than immediately:
//   - Messages are batched and dispatched at fixed tick boundaries
//   - Ordering is deterministic: priority first, then submission order
//   - Exactly one goroutine dispatches, so the store never sees
//     ErrReducerInFlight from concurrent senders
//
// # Example Usage
//
//	st, _ := storex.New(reducer)
//	d := realtime.NewDispatcher(st, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	d.Start(ctx)
//	defer d.Stop()
//	d.Send(storex.NewAction("player/move", dir))
//
// # Ordering Guarantees
//
// Messages within a tick are ordered by:
//  1. Priority (higher priority dispatched first)
//  2. Sequence number (FIFO for same priority)
//
// Given the same sequence of Send calls, the store goes through the same
// states regardless of timing or which goroutine sent what.
//
// # Failures
//
// A message the store rejects, or whose reducer panics, does not stop the
// tick. The failure is reported on Errors() as a *DispatchError and the
// remaining messages of the batch still run.
//
// # Use Cases
//
//   - Game loops (60 FPS game state)
//   - Simulations with a fixed time-step
//   - Reproducible test scenarios (see Flush)
package realtime
