package board

import (
	"sync/atomic"
	"time"
)

var lastTimestamp int64

// nextTimestamp returns a process-wide strictly increasing nanosecond stamp so
// that downstream consumers can order changes from every board.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}
