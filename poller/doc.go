// Package poller runs the registry poll loop: every interval it logs a debug line.
// The loop holds no state and stops only when its context is cancelled.
package poller
