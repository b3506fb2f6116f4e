// Package safego launches background goroutines that survive panics.
package safego

import "log/slog"

// Go runs fn on a new goroutine, recovering and logging any panic under the
// given name instead of taking the process down. Long-lived loops started at
// boot (stats collectors, cache sweepers) go through here so a panic shows up
// in the logs as a named failure rather than a silently dead goroutine.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background goroutine panicked", "name", name, "panic", r)
			}
		}()
		fn()
	}()
}
