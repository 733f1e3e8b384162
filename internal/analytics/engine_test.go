package analytics

import (
	"testing"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return testNow.AddDate(0, 0, -days)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestFilterByWindowBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	cutoff := domain.WindowWeek.Cutoff(testNow)
	issues := []domain.Issue{
		{ID: 1, CreatedAt: cutoff},
		{ID: 2, CreatedAt: cutoff.Add(-time.Microsecond)},
		{ID: 3, CreatedAt: testNow},
	}

	filtered := FilterByWindow(issues, domain.WindowWeek, AllDimensions, testNow)

	require.Len(t, filtered, 2)
	assert.Equal(t, domain.IssueID(1), filtered[0].ID)
	assert.Equal(t, domain.IssueID(3), filtered[1].ID)
}

func TestFilterByWindowRestrictsDimension(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{ID: 1, College: "COCIS", CreatedAt: daysAgo(1)},
		{ID: 2, College: "CEDAT", CreatedAt: daysAgo(1)},
		{ID: 3, College: "COCIS", CreatedAt: daysAgo(60)},
	}

	filtered := FilterByWindow(issues, domain.WindowMonth, "COCIS", testNow)
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.IssueID(1), filtered[0].ID)

	assert.Len(t, FilterByWindow(issues, domain.WindowMonth, AllDimensions, testNow), 2)
	assert.Len(t, FilterByWindow(issues, domain.WindowMonth, "", testNow), 2)
	assert.Len(t, FilterByWindow(issues, domain.WindowQuarter, "COCIS", testNow), 2)
}

func TestFilterByWindowEmptyInputYieldsEmptyCollection(t *testing.T) {
	t.Parallel()

	filtered := FilterByWindow(nil, domain.WindowYear, AllDimensions, testNow)
	require.NotNil(t, filtered)
	assert.Empty(t, filtered)

	filtered = FilterByWindow([]domain.Issue{{ID: 1, CreatedAt: daysAgo(400)}, {ID: 2}}, domain.WindowYear, AllDimensions, testNow)
	require.NotNil(t, filtered)
	assert.Empty(t, filtered)
}

func TestDistributionsOfEmptyInputAreZeroFilled(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusDistribution{}, StatusDistributionOf(nil))
	assert.Equal(t, PriorityDistribution{}, PriorityDistributionOf([]domain.Issue{}))

	rows := StatusRows(StatusDistributionOf(nil))
	require.Len(t, rows, 4)
	assert.Equal(t, []ReportRow{
		{Label: "Pending", Value: 0},
		{Label: "In Progress", Value: 0},
		{Label: "Resolved", Value: 0},
		{Label: "Closed", Value: 0},
	}, rows)
}

func TestDistributionsCountKnownValuesOnly(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{Status: domain.StatusPending, Priority: domain.PriorityLow},
		{Status: domain.StatusPending, Priority: domain.PriorityUrgent},
		{Status: domain.StatusClosed, Priority: domain.PriorityUrgent},
		{Status: "archived", Priority: "critical"},
	}

	assert.Equal(t, StatusDistribution{Pending: 2, Closed: 1}, StatusDistributionOf(issues))
	assert.Equal(t, PriorityDistribution{Low: 1, Urgent: 2}, PriorityDistributionOf(issues))
}

func TestDimensionBreakdownUsesUnknownBucketAndFirstAppearanceOrder(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{College: "CEDAT"},
		{},
		{College: "COCIS"},
		{College: "CEDAT"},
		{},
	}

	assert.Equal(t, []DimensionCount{
		{Dimension: "CEDAT", Count: 2},
		{Dimension: UnknownDimension, Count: 2},
		{Dimension: "COCIS", Count: 1},
	}, DimensionBreakdown(issues))
	assert.Empty(t, DimensionBreakdown(nil))
}

func TestResolutionRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ResolutionRate(nil))
	assert.Equal(t, 0, ResolutionRate([]domain.Issue{}))

	issues := []domain.Issue{
		{Status: domain.StatusResolved},
		{Status: domain.StatusClosed},
		{Status: domain.StatusPending},
	}
	assert.Equal(t, 67, ResolutionRate(issues))

	issues = append(issues, domain.Issue{Status: domain.StatusInProgress}, domain.Issue{Status: domain.StatusPending}, domain.Issue{Status: domain.StatusPending}, domain.Issue{Status: domain.StatusPending}, domain.Issue{Status: domain.StatusPending})
	// 2 of 8 finished.
	assert.Equal(t, 25, ResolutionRate(issues))
}

func TestAverageResolutionDays(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		issues []domain.Issue
		want   int
	}{
		{name: "empty", issues: nil, want: 0},
		{name: "no finished issues", issues: []domain.Issue{{Status: domain.StatusPending, CreatedAt: daysAgo(3)}}, want: 0},
		{
			name: "resolved at wins over updated at",
			issues: []domain.Issue{
				{Status: domain.StatusResolved, CreatedAt: daysAgo(10), ResolvedAt: timePtr(daysAgo(6)), UpdatedAt: daysAgo(1)},
			},
			want: 4,
		},
		{
			name: "falls back to updated at",
			issues: []domain.Issue{
				{Status: domain.StatusClosed, CreatedAt: daysAgo(10), UpdatedAt: daysAgo(8)},
			},
			want: 2,
		},
		{
			name: "per issue rounding then mean rounding",
			issues: []domain.Issue{
				{Status: domain.StatusResolved, CreatedAt: daysAgo(3), ResolvedAt: timePtr(daysAgo(3).Add(36 * time.Hour))},
				{Status: domain.StatusResolved, CreatedAt: daysAgo(3), ResolvedAt: timePtr(daysAgo(3).Add(24 * time.Hour))},
			},
			// 1.5 days rounds to 2, 1 day stays 1; mean 1.5 rounds to 2.
			want: 2,
		},
		{
			name: "missing dates are skipped",
			issues: []domain.Issue{
				{Status: domain.StatusResolved},
				{Status: domain.StatusResolved, CreatedAt: daysAgo(5), UpdatedAt: daysAgo(2)},
			},
			want: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AverageResolutionDays(tc.issues))
		})
	}
}

func TestResolutionTimeByDimensionOmitsCollegesWithoutFinishedIssues(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{College: "COCIS", Status: domain.StatusResolved, CreatedAt: daysAgo(6), ResolvedAt: timePtr(daysAgo(2))},
		{College: "CEDAT", Status: domain.StatusPending, CreatedAt: daysAgo(6)},
		{College: "COCIS", Status: domain.StatusClosed, CreatedAt: daysAgo(6), ResolvedAt: timePtr(daysAgo(4))},
		{Status: domain.StatusClosed, CreatedAt: daysAgo(9), UpdatedAt: daysAgo(2)},
	}

	assert.Equal(t, ResolutionTimeSummary{PerDimension: []DimensionAverage{
		{Dimension: "COCIS", AverageDays: 3},
		{Dimension: UnknownDimension, AverageDays: 7},
	}}, ResolutionTimeByDimension(issues))
}

func TestTrendSeriesWeekWithoutDataHasEightZeroDays(t *testing.T) {
	t.Parallel()

	series := TrendSeries(nil, domain.WindowWeek, testNow)

	require.Len(t, series, 8)
	assert.Equal(t, "2026-02-07", series[0].Date)
	assert.Equal(t, "2026-02-14", series[7].Date)
	for i, point := range series {
		assert.Zero(t, point.Created, "day %d", i)
		assert.Zero(t, point.Resolved, "day %d", i)
		if i > 0 {
			assert.Less(t, series[i-1].Date, point.Date)
		}
	}
}

func TestTrendSeriesLengthDoesNotDependOnData(t *testing.T) {
	t.Parallel()

	sparse := []domain.Issue{{Status: domain.StatusPending, CreatedAt: daysAgo(3)}}
	for _, window := range domain.Windows {
		empty := TrendSeries(nil, window, testNow)
		withData := TrendSeries(sparse, window, testNow)
		assert.Len(t, withData, len(empty), "window %s", window)
	}

	assert.Len(t, TrendSeries(nil, domain.WindowMonth, testNow), 32)
	assert.Len(t, TrendSeries(nil, domain.WindowQuarter, testNow), 93)
	assert.Len(t, TrendSeries(nil, domain.WindowYear, testNow), 366)
}

func TestTrendSeriesCountsCreatedAndResolvedPerDay(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{Status: domain.StatusPending, CreatedAt: daysAgo(0)},
		{Status: domain.StatusResolved, CreatedAt: daysAgo(2), ResolvedAt: timePtr(daysAgo(1))},
		{Status: domain.StatusClosed, CreatedAt: daysAgo(2), UpdatedAt: daysAgo(0)},
		// Resolved date set but status still open: not counted as resolved.
		{Status: domain.StatusInProgress, CreatedAt: daysAgo(1), ResolvedAt: timePtr(daysAgo(0))},
		// Outside the window entirely.
		{Status: domain.StatusResolved, CreatedAt: daysAgo(30), ResolvedAt: timePtr(daysAgo(20))},
	}

	series := TrendSeries(issues, domain.WindowWeek, testNow)
	require.Len(t, series, 8)

	assert.Equal(t, TrendPoint{Date: "2026-02-12", Created: 2, Resolved: 0}, series[5])
	assert.Equal(t, TrendPoint{Date: "2026-02-13", Created: 1, Resolved: 1}, series[6])
	assert.Equal(t, TrendPoint{Date: "2026-02-14", Created: 1, Resolved: 1}, series[7])
}

func TestTrendSeriesUsesLocalCalendarDate(t *testing.T) {
	t.Parallel()

	kampala := time.FixedZone("EAT", 3*60*60)
	now := time.Date(2026, 2, 14, 9, 0, 0, 0, kampala)
	issues := []domain.Issue{
		// 22:30 UTC on the 13th is 01:30 on the 14th in Kampala.
		{Status: domain.StatusPending, CreatedAt: time.Date(2026, 2, 13, 22, 30, 0, 0, time.UTC)},
	}

	series := TrendSeries(issues, domain.WindowWeek, now)
	require.Len(t, series, 8)
	assert.Equal(t, TrendPoint{Date: "2026-02-14", Created: 1}, series[7])
	assert.Zero(t, series[6].Created)
}

func TestPriorityIssuesIsUnionWithoutDuplicates(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{ID: 1, Status: domain.StatusPending, Priority: domain.PriorityLow, CreatedAt: daysAgo(10)},
		{ID: 2, Status: domain.StatusPending, Priority: domain.PriorityLow, CreatedAt: daysAgo(2)},
		{ID: 3, Status: domain.StatusResolved, Priority: domain.PriorityHigh, CreatedAt: daysAgo(1)},
		{ID: 4, Status: domain.StatusPending, Priority: domain.PriorityUrgent, CreatedAt: daysAgo(30)},
		{ID: 5, Status: domain.StatusInProgress, Priority: domain.PriorityMedium, CreatedAt: daysAgo(30)},
		{ID: 6, Status: domain.StatusPending, Priority: domain.PriorityMedium},
	}

	flagged := PriorityIssues(issues, testNow)

	ids := make([]domain.IssueID, 0, len(flagged))
	for _, issue := range flagged {
		ids = append(ids, issue.ID)
	}
	assert.Equal(t, []domain.IssueID{1, 3, 4}, ids)
}

func TestRoundTripExample(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{ID: 1, Status: domain.StatusPending, CreatedAt: testNow},
		{ID: 2, Status: domain.StatusResolved, CreatedAt: daysAgo(2), ResolvedAt: timePtr(daysAgo(1))},
	}

	summary := Aggregate(issues, Selection{Window: domain.WindowWeek}, testNow)

	assert.Equal(t, StatusDistribution{Pending: 1, Resolved: 1}, summary.Status)
	assert.Equal(t, 50, summary.ResolutionRate)
	assert.Equal(t, 1, summary.AverageResolutionDays)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, AllDimensions, summary.Dimension)
}

func TestAggregateIsIdempotent(t *testing.T) {
	t.Parallel()

	issues := []domain.Issue{
		{ID: 1, Status: domain.StatusPending, Priority: domain.PriorityHigh, College: "COCIS", CreatedAt: daysAgo(9), AssignedTo: int64Ptr(4)},
		{ID: 2, Status: domain.StatusResolved, Priority: domain.PriorityLow, CreatedAt: daysAgo(2), ResolvedAt: timePtr(daysAgo(1))},
		{ID: 3, Status: domain.StatusClosed, Priority: domain.PriorityMedium, College: "CEDAT", CreatedAt: daysAgo(20), UpdatedAt: daysAgo(3)},
	}
	original := make([]domain.Issue, len(issues))
	copy(original, issues)

	sel := Selection{Window: domain.WindowMonth, Dimension: AllDimensions}
	first := Aggregate(issues, sel, testNow)
	second := Aggregate(issues, sel, testNow)

	assert.Equal(t, first, second)
	assert.Equal(t, original, issues)
	assert.Len(t, first.Unassigned, 2)
	assert.Len(t, first.PriorityIssues, 1)
}
