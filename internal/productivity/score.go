package productivity

import "math"

// weights in tenths: 0.5, 0.3 and 0.2
const (
	taskWeight  = 5
	focusWeight = 3
	habitWeight = 2

	// tasks completed per day at which the task component saturates
	taskSaturation = 10
	// focus minutes per day at which the focus component saturates
	focusSaturation = 120

	sleepBaselineHours = 6
	sleepBoostPerHour  = 4
	stepsPerBoostPoint = 2000
	maxStepsBoost      = 10
)

// ScoreInput holds the signals of one day
type ScoreInput struct {
	TasksCompleted int
	FocusMinutes   int
	HabitsScore    int

	// Wearable is nil when no sample was available
	Wearable *Wearable
}

// Wearable is the part of a wearable sample that adjusts the score
type Wearable struct {
	Steps      int
	SleepHours float64
}

// Score computes the composite 0-100 productivity score
func Score(in ScoreInput) int {
	taskComponent := min(100, in.TasksCompleted*100/taskSaturation)
	focusComponent := min(100, int(math.Round(float64(in.FocusMinutes)/focusSaturation*100)))
	habits := clamp(in.HabitsScore, 0, 100)

	// weights are in tenths; +5 rounds half up
	weighted := taskComponent*taskWeight + focusComponent*focusWeight + habits*habitWeight
	score := (weighted + 5) / 10

	if w := in.Wearable; w != nil {
		sleepBoost := max(0, int(math.Round((w.SleepHours-sleepBaselineHours)*sleepBoostPerHour)))
		stepsBoost := min(maxStepsBoost, w.Steps/stepsPerBoostPoint)
		score += sleepBoost + max(0, stepsBoost)
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
