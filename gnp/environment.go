package gnp

// Environment is the reset/step contract FitGymnasium drives a Network
// against. Observations are indexable by non-negative integer feature index;
// rewards are real-valued. Implementations may wrap an external RL-style
// environment or the built-in CartPole simulator.
type Environment interface {
	// Reset starts a new episode from the given seed, returning the initial
	// observation and an opaque info value.
	Reset(seed int64) (observation []float64, info any)
	// Step applies action and returns the resulting observation, reward,
	// and whether the episode has terminated.
	Step(action int) (observation []float64, reward float64, terminated bool)
}

// ResetFunc and StepFunc let a 4-tuple (observation, reward, terminated,
// truncated) environment be adapted to Environment via GymAdapter. truncated
// is informational only: GymAdapter discards it and reports terminated alone.
type ResetFunc func(seed int64) (observation []float64, info any)
type StepFunc func(action int) (observation []float64, reward float64, terminated bool, truncated bool)

// GymAdapter wraps a reset/step pair following the common 4-tuple RL
// environment convention into the Environment interface.
type GymAdapter struct {
	ResetFn ResetFunc
	StepFn  StepFunc
}

func (g *GymAdapter) Reset(seed int64) ([]float64, any) {
	return g.ResetFn(seed)
}

func (g *GymAdapter) Step(action int) ([]float64, float64, bool) {
	obs, reward, terminated, _ := g.StepFn(action)
	return obs, reward, terminated
}
