package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpiryCandidateQueryComparesAtDayGranularity(t *testing.T) {
	cutoff := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	query, args, err := expiryCandidateQuery(cutoff)
	require.NoError(t, err)

	// A tender whose opening date is "202608241030" must qualify for a
	// 2026-08-24 cutoff; casting to date before comparing makes the SQL
	// agree with the day-granularity re-verification.
	require.Contains(t, query, "end_date::date <= $1")
	require.Contains(t, query, "bid_close_date::date <= $2")
	require.Contains(t, query, "opening_date::date <= $3")
	require.Len(t, args, 3)
	for _, arg := range args {
		require.Equal(t, cutoff, arg)
	}
}
