package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/comalice/storex"
)

// Logger logs every message before and after it passes down the chain.
// A nil logger uses the standard logger.
func Logger[S any](logger *log.Logger) storex.Middleware[S] {
	if logger == nil {
		logger = log.Default()
	}
	return func(api storex.API[S]) func(next storex.Dispatcher) storex.Dispatcher {
		return func(next storex.Dispatcher) storex.Dispatcher {
			return func(msg any) (any, error) {
				label := describe(msg)
				logger.Printf("dispatch %s", label)
				start := time.Now()
				result, err := next(msg)
				if err != nil {
					logger.Printf("dispatch %s failed after %v: %v", label, time.Since(start), err)
					return result, err
				}
				logger.Printf("dispatch %s done in %v", label, time.Since(start))
				return result, nil
			}
		}
	}
}

// describe names a message for logs and metric labels.
func describe(msg any) string {
	if a, ok := storex.AsAction(msg); ok {
		return fmt.Sprintf("%q", a.Type)
	}
	return fmt.Sprintf("%T", msg)
}
