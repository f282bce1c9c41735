package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCountersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		IncSearch()
		IncSolution("available_room")
		IncBooking("confirmed")
		IncBooking("conflict")
		IncShortage()
		IncReconciliation()
		ObserveSearchDuration(0.05)
	})
}
