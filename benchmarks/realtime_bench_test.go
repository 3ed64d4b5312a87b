package benchmarks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/comalice/storex/realtime"
)

// Realtime dispatcher benchmarks:
// - Tick Processing: time to sort and dispatch one batch
// - Send: cost of queueing from many goroutines
// - Latency: end-to-end time from Send to applied state at a fast tick rate

func BenchmarkRealtimeFlush(b *testing.B) {
	for _, batch := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("batch_%d", batch), func(b *testing.B) {
			st, err := NewCounterStore(0)
			if err != nil {
				b.Fatal(err)
			}
			d := realtime.NewDispatcher(st, realtime.Config{MaxMessagesPerTick: batch})
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				for j := 0; j < batch; j++ {
					_ = d.SendWithPriority(tick, j%3)
				}
				b.StartTimer()
				d.Flush()
			}
			if st.GetState() != b.N*batch {
				b.Fatalf("state %d, want %d", st.GetState(), b.N*batch)
			}
			b.ReportMetric(float64(batch), "msgs/tick")
		})
	}
}

func BenchmarkRealtimeSendParallel(b *testing.B) {
	st, err := NewCounterStore(0)
	if err != nil {
		b.Fatal(err)
	}
	d := realtime.NewDispatcher(st, realtime.Config{MaxMessagesPerTick: 1 << 20})
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := d.Send(tick); err != nil {
				d.Flush()
			}
		}
	})
}

func BenchmarkRealtimeLatency(b *testing.B) {
	st, err := NewCounterStore(0)
	if err != nil {
		b.Fatal(err)
	}
	var mu sync.Mutex
	applied := sync.NewCond(&mu)
	_, _ = st.Subscribe(func() {
		mu.Lock()
		applied.Broadcast()
		mu.Unlock()
	})

	d := realtime.NewDispatcher(st, realtime.Config{TickRate: time.Millisecond})
	if err := d.Start(context.Background()); err != nil {
		b.Fatal(err)
	}
	defer d.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		want := st.GetState() + 1
		_ = d.Send(tick)
		mu.Lock()
		for st.GetState() < want {
			applied.Wait()
		}
		mu.Unlock()
	}
}
