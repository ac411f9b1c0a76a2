package dice

import "go.uber.org/zap"

// Roller wraps a Source and a logger. Every check it performs is logged at
// debug level so a battle can be replayed from its log.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger is replaced by zap.NewNop().
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Intn lets a Roller stand in wherever a Source is expected.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// Chance rolls a percentile check with hundredth-of-a-percent resolution.
//
// Postcondition: percent <= 0 always fails without consuming randomness;
// percent >= 100 always succeeds without consuming randomness.
func (r *Roller) Chance(label string, percent float64) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	roll := r.src.Intn(10000)
	ok := float64(roll) < percent*100
	r.logger.Debug("chance roll",
		zap.String("check", label),
		zap.Float64("percent", percent),
		zap.Int("roll", roll),
		zap.Bool("success", ok),
	)
	return ok
}

// Between returns a uniformly chosen value in [lo, hi] at 1/1000 resolution.
//
// Precondition: lo <= hi.
func (r *Roller) Between(label string, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	roll := r.src.Intn(1001)
	v := lo + (hi-lo)*float64(roll)/1000
	r.logger.Debug("range roll",
		zap.String("check", label),
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("value", v),
	)
	return v
}

// Amount rolls a and logs the faces.
//
// Postcondition: a.Min() <= result <= a.Max().
func (r *Roller) Amount(label string, a Amount) int {
	total, faces := a.Roll(r.src)
	if !a.IsFlat() {
		r.logger.Debug("dice roll",
			zap.String("check", label),
			zap.String("expression", a.Raw),
			zap.Ints("dice", faces),
			zap.Int("modifier", a.Modifier),
			zap.Int("total", total),
		)
	}
	return total
}
