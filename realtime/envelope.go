package realtime

import "sort"

// Envelope adds sequencing metadata for deterministic ordering.
type Envelope struct {
	Msg         any
	SequenceNum uint64
	Priority    int
}

// sortEnvelopes orders a batch deterministically.
// Stable sort preserves insertion order for equal priorities.
func sortEnvelopes(batch []Envelope) {
	sort.SliceStable(batch, func(i, j int) bool {
		// Primary: Higher priority first
		if batch[i].Priority != batch[j].Priority {
			return batch[i].Priority > batch[j].Priority
		}
		// Secondary: Earlier sequence number first (FIFO)
		return batch[i].SequenceNum < batch[j].SequenceNum
	})
}
