package correlation

import "math"

// Strength is the qualitative size of |r|
type Strength string

const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
	StrengthVeryWeak Strength = "very weak"
)

// Direction is the sign of r
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// Pearson returns the correlation coefficient of xs and ys rounded to two
// decimals. It is 0 when there are fewer than two pairs or either series
// has no variance. Extra elements of the longer series are ignored.
func Pearson(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n < 2 {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	r = math.Max(-1, math.Min(1, r))
	return round2(r)
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// avoid reporting -0
		return 0
	}
	return r
}

// Classify maps r to a strength by |r| and a direction by sign
func Classify(r float64) (Strength, Direction) {
	var s Strength
	switch abs := math.Abs(r); {
	case abs >= 0.7:
		s = StrengthStrong
	case abs >= 0.4:
		s = StrengthModerate
	case abs >= 0.2:
		s = StrengthWeak
	default:
		s = StrengthVeryWeak
	}

	switch {
	case r > 0:
		return s, DirectionPositive
	case r < 0:
		return s, DirectionNegative
	}
	return s, DirectionNeutral
}
