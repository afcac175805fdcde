package app

import (
	"math"
	"strconv"

	"brainbuzz/internal/domain"
)

// BucketLabels lists the score histogram buckets in ascending order.
// The top bucket spans 90 through 100 so a perfect score lands in it.
var BucketLabels = []string{
	"0-9", "10-19", "20-29", "30-39", "40-49",
	"50-59", "60-69", "70-79", "80-89", "90-100",
}

// EffectivePercentage recomputes the percentage from score and totalPoints and
// falls back to the stored value only when totalPoints is zero.
func EffectivePercentage(a domain.Attempt) float64 {
	if a.TotalPoints > 0 {
		return float64(a.Score) / float64(a.TotalPoints) * 100
	}
	return a.Percentage
}

// BucketFor returns the histogram label for a percentage. Non-finite values count as 0.
func BucketFor(percentage float64) string {
	if math.IsNaN(percentage) || math.IsInf(percentage, 0) {
		percentage = 0
	}
	percentage = math.Max(0, math.Min(100, percentage))
	if percentage >= 90 {
		return BucketLabels[len(BucketLabels)-1]
	}
	lower := int(math.Floor(percentage/10)) * 10
	return strconv.Itoa(lower) + "-" + strconv.Itoa(lower+9)
}

// ComputeStatistics aggregates attempts of a single quiz. It never mutates its input.
func ComputeStatistics(attempts []domain.Attempt) domain.Statistics {
	buckets := make(map[string]int, len(BucketLabels))
	for _, label := range BucketLabels {
		buckets[label] = 0
	}

	sum, valid := 0.0, 0
	for _, a := range attempts {
		p := EffectivePercentage(a)
		if !math.IsNaN(p) && !math.IsInf(p, 0) {
			sum += p
			valid++
		}
		buckets[BucketFor(p)]++
	}

	average := 0.0
	if valid > 0 {
		average = math.Round(sum/float64(valid)*100) / 100
	}
	return domain.Statistics{
		SubmittedCount: len(attempts),
		AverageScore:   average,
		ScoreBuckets:   buckets,
	}
}
