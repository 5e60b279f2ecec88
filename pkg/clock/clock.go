// Package clock provides the time capability injected into the scoring
// engine. Everything below the orchestrator boundary stays a pure function
// of its inputs; only the orchestrator asks a Clock for "now".
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// systemClock reads the wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by the wall clock.
func System() Clock { return systemClock{} }

// fixedClock always reports the same instant.
type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

// Fixed returns a Clock frozen at t. Intended for deterministic tests.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }
