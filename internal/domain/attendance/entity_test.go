package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePresenceStatus(t *testing.T) {
	s, err := ParsePresenceStatus(" Remote ")
	require.NoError(t, err)
	assert.Equal(t, StatusRemote, s)

	_, err = ParsePresenceStatus("late")
	assert.ErrorIs(t, err, ErrCorruptFact)
}

func TestCountsAsWorked(t *testing.T) {
	assert.True(t, StatusPresent.CountsAsWorked())
	assert.True(t, StatusRemote.CountsAsWorked())
	for _, s := range []PresenceStatus{StatusAbsent, StatusSickLeave, StatusVacation, StatusDayOff} {
		assert.False(t, s.CountsAsWorked(), s)
	}
}
