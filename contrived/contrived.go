// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package contrived injects deliberate failures so clients can exercise
// their error handling.
package contrived

import "sync"

// Message is returned to clients with every contrived failure.
const Message = "(note: do not report this contrived error)"

// Injector flags every Nth call. The zero value never fires.
type Injector struct {
	mu        sync.Mutex
	count     int
	threshold int
}

// New returns an injector firing every n calls; n <= 0 disables it.
func New(n int) *Injector {
	return &Injector{threshold: n}
}

// Next counts one admitted request and reports whether it must fail.
func (i *Injector) Next() bool {
	if i == nil || i.threshold <= 0 {
		return false
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.count++
	if i.count >= i.threshold {
		i.count = 0
		return true
	}
	return false
}
