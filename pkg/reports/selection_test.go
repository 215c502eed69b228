package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestResolveAllDropsFuturePeriods(t *testing.T) {
	available := []Period{
		{2023, 12},
		{2024, 5},
		{2024, 6},
		{2024, 7},  // future month
		{2025, 1},  // future year
	}

	got := Selection{All: true}.Resolve(testNow, available)
	require.Equal(t, []Period{{2023, 12}, {2024, 5}, {2024, 6}}, got)
}

func TestResolveCurrentMonth(t *testing.T) {
	got := Selection{CurrentMonth: true}.Resolve(testNow, nil)
	require.Equal(t, []Period{{2024, 6}}, got)
}

func TestResolvePreviousMonth(t *testing.T) {
	got := Selection{PreviousMonth: true}.Resolve(testNow, nil)
	require.Equal(t, []Period{{2024, 5}}, got)
}

func TestResolvePreviousMonthAcrossYearBoundary(t *testing.T) {
	january := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	got := Selection{PreviousMonth: true}.Resolve(january, nil)
	require.Equal(t, []Period{{2023, 12}}, got)
}

func TestResolveExplicitYearCoversPastMonths(t *testing.T) {
	got := Selection{Year: 2024}.Resolve(testNow, nil)
	require.Len(t, got, 6) // January through June
	require.Equal(t, Period{2024, 1}, got[0])
	require.Equal(t, Period{2024, 6}, got[5])
}

func TestResolveExplicitYearAndMonth(t *testing.T) {
	got := Selection{Year: 2023, Month: 3}.Resolve(testNow, nil)
	require.Equal(t, []Period{{2023, 3}}, got)
}

func TestResolveFutureExplicitPairIsDropped(t *testing.T) {
	got := Selection{Year: 2024, Month: 12}.Resolve(testNow, nil)
	require.Empty(t, got)
}

func TestResolveEmptySelection(t *testing.T) {
	got := Selection{}.Resolve(testNow, nil)
	require.Empty(t, got)
}

func TestPeriodFromFilename(t *testing.T) {
	p, err := periodFromFilename("PurchasedArticles-byPurchaseDate-2024-05-tester.csv")
	require.NoError(t, err)
	require.Equal(t, Period{2024, 5}, p)

	_, err = periodFromFilename("SomeOtherExport.csv")
	require.ErrorIs(t, err, ErrUnparsableFilename)

	_, err = periodFromFilename("PurchasedArticles-byPurchaseDate-garbage.csv")
	require.ErrorIs(t, err, ErrUnparsableFilename)
}
