package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayOfTruncatesToUTCMidnight(t *testing.T) {
	got := DayOf(time.Date(2026, 8, 31, 23, 59, 59, 999, time.UTC))
	require.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), got)
}

func TestDayOfCollapsesTimesOnTheSameDay(t *testing.T) {
	morning := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 31, 22, 30, 0, 0, time.UTC)
	require.Equal(t, DayOf(morning), DayOf(evening))
}
