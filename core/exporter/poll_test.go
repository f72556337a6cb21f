package exporter

import (
	"testing"

	"cad-exporter/core/models"

	"github.com/stretchr/testify/assert"
)

func active() *models.TranslationStatus {
	return &models.TranslationStatus{RequestState: models.TranslationActive}
}

func TestPollMachineDoneWithResults(t *testing.T) {
	m := NewPollMachine(90)
	assert.Equal(t, PollSubmitted, m.State)
	assert.False(t, m.Terminal())

	m = m.Observe(active())
	assert.Equal(t, PollPolling, m.State)
	assert.Equal(t, 1, m.Attempt)

	m = m.Observe(active())
	assert.Equal(t, PollPolling, m.State)

	m = m.Observe(&models.TranslationStatus{
		RequestState:          models.TranslationDone,
		ResultExternalDataIDs: []string{"ext-1"},
	})
	assert.Equal(t, PollDone, m.State)
	assert.True(t, m.Terminal())
	assert.Equal(t, 3, m.Attempt)
	assert.Equal(t, []string{"ext-1"}, m.ResultIDs)
}

func TestPollMachineDoneWithoutResults(t *testing.T) {
	m := NewPollMachine(90).Observe(&models.TranslationStatus{RequestState: models.TranslationDone})
	assert.Equal(t, PollDone, m.State)
	assert.Empty(t, m.ResultIDs)
}

func TestPollMachineFailed(t *testing.T) {
	m := NewPollMachine(90)
	m = m.Observe(active())
	m = m.Observe(&models.TranslationStatus{
		RequestState:  models.TranslationFailed,
		FailureReason: "geometry error",
	})
	assert.Equal(t, PollFailed, m.State)
	assert.True(t, m.Terminal())
	assert.Equal(t, "geometry error", m.Reason)
}

func TestPollMachineTimesOutAtCeiling(t *testing.T) {
	m := NewPollMachine(90)
	for i := 0; i < 89; i++ {
		m = m.Observe(active())
		assert.Equal(t, PollPolling, m.State, "attempt %d must keep polling", i+1)
	}
	m = m.Observe(active())
	assert.Equal(t, PollTimedOut, m.State)
	assert.True(t, m.Terminal())
	assert.Equal(t, 90, m.Attempt)
}

func TestPollMachineDoneOnFinalAttempt(t *testing.T) {
	m := NewPollMachine(2)
	m = m.Observe(active())
	m = m.Observe(&models.TranslationStatus{
		RequestState:          models.TranslationDone,
		ResultExternalDataIDs: []string{"ext-9"},
	})
	assert.Equal(t, PollDone, m.State)
}

func TestPollMachineValueSemantics(t *testing.T) {
	m := NewPollMachine(90)
	_ = m.Observe(active())
	assert.Equal(t, PollSubmitted, m.State)
	assert.Equal(t, 0, m.Attempt)
}
