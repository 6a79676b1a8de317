// Package application holds what the use-case packages share.
package application

import "time"

// Clock interface supaya gampang ditest; stream durations are measured with it.
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
