// Package globaltime is the process clock. Tests freeze it to get stable
// report timestamps.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// Freeze pins the clock to t until the returned restore func is called.
func Freeze(t time.Time) (restore func()) {
	mu.Lock()
	previous := nowFunc
	nowFunc = func() time.Time { return t }
	mu.Unlock()

	return func() {
		mu.Lock()
		nowFunc = previous
		mu.Unlock()
	}
}
