package app_test

import (
	"math"
	"testing"

	"brainbuzz/internal/app"
	"brainbuzz/internal/domain"
)

func TestComputeStatisticsBuckets(t *testing.T) {
	attempts := []domain.Attempt{
		{Score: 5, TotalPoints: 100},
		{Score: 15, TotalPoints: 100},
		{Score: 95, TotalPoints: 100},
		{Score: 100, TotalPoints: 100},
	}
	stats := app.ComputeStatistics(attempts)

	if stats.SubmittedCount != 4 {
		t.Fatalf("expected 4 submissions, got %d", stats.SubmittedCount)
	}
	if stats.AverageScore != 53.75 {
		t.Fatalf("expected average 53.75, got %v", stats.AverageScore)
	}
	want := map[string]int{"0-9": 1, "10-19": 1, "90-100": 2}
	for _, label := range app.BucketLabels {
		if stats.ScoreBuckets[label] != want[label] {
			t.Fatalf("bucket %s = %d, want %d", label, stats.ScoreBuckets[label], want[label])
		}
	}
	if len(stats.ScoreBuckets) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(stats.ScoreBuckets))
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := app.ComputeStatistics(nil)
	if stats.SubmittedCount != 0 || stats.AverageScore != 0 {
		t.Fatalf("expected zero statistics, got %+v", stats)
	}
	if len(stats.ScoreBuckets) != 10 {
		t.Fatalf("expected all 10 buckets present, got %d", len(stats.ScoreBuckets))
	}
	for label, n := range stats.ScoreBuckets {
		if n != 0 {
			t.Fatalf("bucket %s should be empty, got %d", label, n)
		}
	}
}

func TestComputeStatisticsRecomputesPercentage(t *testing.T) {
	attempts := []domain.Attempt{
		// stored percentage is stale; score/totalPoints wins
		{Score: 2, TotalPoints: 3, Percentage: 10},
		// zero total falls back to the stored percentage
		{Score: 0, TotalPoints: 0, Percentage: 40},
	}
	stats := app.ComputeStatistics(attempts)

	if stats.ScoreBuckets["60-69"] != 1 || stats.ScoreBuckets["40-49"] != 1 {
		t.Fatalf("unexpected buckets %+v", stats.ScoreBuckets)
	}
	if stats.AverageScore != 53.33 {
		t.Fatalf("expected average 53.33, got %v", stats.AverageScore)
	}
}

func TestComputeStatisticsNonFinitePercentages(t *testing.T) {
	attempts := []domain.Attempt{
		{TotalPoints: 0, Percentage: math.NaN()},
		{TotalPoints: 0, Percentage: math.Inf(1)},
		{Score: 1, TotalPoints: 2},
	}
	stats := app.ComputeStatistics(attempts)

	if stats.SubmittedCount != 3 {
		t.Fatalf("expected 3 submissions, got %d", stats.SubmittedCount)
	}
	if stats.AverageScore != 50 {
		t.Fatalf("expected non-finite values excluded from average, got %v", stats.AverageScore)
	}
	if stats.ScoreBuckets["0-9"] != 2 || stats.ScoreBuckets["50-59"] != 1 {
		t.Fatalf("expected non-finite values bucketed as 0, got %+v", stats.ScoreBuckets)
	}

	total := 0
	for _, n := range stats.ScoreBuckets {
		total += n
	}
	if total != stats.SubmittedCount {
		t.Fatalf("bucket counts %d do not sum to submissions %d", total, stats.SubmittedCount)
	}
}

func TestBucketForClampsAndEdges(t *testing.T) {
	cases := map[float64]string{
		-12:    "0-9",
		0:      "0-9",
		9.99:   "0-9",
		10:     "10-19",
		89.999: "80-89",
		90:     "90-100",
		100:    "90-100",
		140:    "90-100",
	}
	for p, want := range cases {
		if got := app.BucketFor(p); got != want {
			t.Fatalf("BucketFor(%v) = %s, want %s", p, got, want)
		}
	}
}

func TestComputeStatisticsDoesNotMutate(t *testing.T) {
	attempts := []domain.Attempt{{Score: 1, TotalPoints: 4, Percentage: 99}}
	_ = app.ComputeStatistics(attempts)
	if attempts[0].Percentage != 99 {
		t.Fatalf("aggregation mutated stored percentage")
	}
}
