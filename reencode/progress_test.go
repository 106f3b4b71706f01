package reencode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressReportsAtIntervals(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 100, 10)
	tracker.Start()

	tracker.Increment(5)
	assert.Empty(t, out.String(), "below the interval nothing is printed")

	tracker.Increment(5)
	assert.Contains(t, out.String(), "10/100")

	tracker.Finish()
	assert.Contains(t, out.String(), "100/100 (100.0%)")
}

func TestProgressCapsAtTotal(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 10, 1)
	tracker.Start()

	tracker.Increment(50)
	assert.Contains(t, out.String(), "10/10")
}

func TestProgressIgnoredBeforeStart(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 10, 1)

	tracker.Increment(5)
	tracker.Finish()
	assert.Empty(t, out.String())
	assert.Zero(t, tracker.Elapsed())
}
