package scoring

// Question heuristics.
const (
	questionTooEasyRate   = 0.85
	questionTooHardRate   = 0.15
	questionSweetSpotLow  = 0.35
	questionSweetSpotHigh = 0.75
	questionMinTextLen    = 20
	questionMaxTextLen    = 1000
	optionMaxLen          = 300
	explanationMinLen     = 30
)

// Problem heuristics.
const (
	problemTooEasyRate      = 0.70
	problemTooHardRate      = 0.05
	problemSweetSpotLow     = 0.20
	problemSweetSpotHigh    = 0.60
	problemMinTitleLen      = 5
	problemMaxTitleLen      = 150
	problemMinDescLen       = 50
	problemMinTestCases     = 3
	problemMinHiddenPortion = 0.30
)

// expectedSolveBands is the solve rate that fits each difficulty.
var expectedSolveBands = map[string][2]float64{
	DifficultyEasy:   {0.50, 0.90},
	DifficultyMedium: {0.25, 0.60},
	DifficultyHard:   {0.05, 0.35},
}

// QuestionStats is what the migrator knows about an ephemeral aptitude question.
type QuestionStats struct {
	Text         string
	Options      []string
	Explanation  string
	AttemptCount int
	CorrectCount int
}

// SuccessRate is correct/attempts, 0 without attempts.
func (q QuestionStats) SuccessRate() float64 {
	return rate(q.CorrectCount, q.AttemptCount)
}

// ProblemStats is what the migrator knows about an ephemeral coding problem.
type ProblemStats struct {
	Title           string
	Description     string
	Difficulty      string
	Hints           []string
	TestCases       int
	HiddenTestCases int
	Validated       bool
	TotalAttempts   int
	SolvedCount     int
}

// SolveRate is solved/attempts, 0 without attempts.
func (p ProblemStats) SolveRate() float64 {
	return rate(p.SolvedCount, p.TotalAttempts)
}

func rate(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// IsExtremeQuestionRate reports a success rate outside the useful band.
func IsExtremeQuestionRate(r float64) bool {
	return r > questionTooEasyRate || r < questionTooHardRate
}

// IsExtremeProblemRate reports a solve rate outside the useful band.
func IsExtremeProblemRate(r float64) bool {
	return r > problemTooEasyRate || r < problemTooHardRate
}

// QuestionQuality scores an aptitude question in [0, 1].
func QuestionQuality(q QuestionStats) float64 {
	score := 1.0
	r := q.SuccessRate()

	switch {
	case r > questionTooEasyRate:
		score *= 0.6
	case r < questionTooHardRate:
		score *= 0.6
	case r >= questionSweetSpotLow && r <= questionSweetSpotHigh:
		score *= 1.2
	}
	score *= sampleConfidence(q.AttemptCount, 50, 100)

	if n := len(q.Text); n < questionMinTextLen {
		score *= 0.7
	} else if n > questionMaxTextLen {
		score *= 0.8
	}

	if len(q.Options) < 2 {
		score *= 0.5
	} else {
		for _, o := range q.Options {
			if len(o) == 0 || len(o) > optionMaxLen {
				score *= 0.85
				break
			}
		}
	}

	switch n := len(q.Explanation); {
	case n == 0:
		score *= 0.8
	case n < explanationMinLen:
		score *= 0.9
	}

	return clamp01(score)
}

// ProblemQuality scores a coding problem in [0, 1].
func ProblemQuality(p ProblemStats) float64 {
	score := 1.0
	r := p.SolveRate()

	switch {
	case r > problemTooEasyRate:
		score *= 0.6
	case r < problemTooHardRate:
		score *= 0.5
	case r >= problemSweetSpotLow && r <= problemSweetSpotHigh:
		score *= 1.2
	}
	score *= sampleConfidence(p.TotalAttempts, 30, 60)

	if n := len(p.Title); n < problemMinTitleLen || n > problemMaxTitleLen {
		score *= 0.8
	}
	if len(p.Description) < problemMinDescLen {
		score *= 0.7
	}

	if p.TestCases < problemMinTestCases {
		score *= 0.6
	}
	if p.TestCases > 0 && rate(p.HiddenTestCases, p.TestCases) < problemMinHiddenPortion {
		score *= 0.8
	}
	if !p.Validated {
		score *= 0.3
	}
	if len(p.Hints) == 0 {
		score *= 0.9
	}

	if band, ok := expectedSolveBands[NormalizeDifficulty(p.Difficulty)]; ok && r >= band[0] && r <= band[1] {
		score *= 1.1
	}

	return clamp01(score)
}

// sampleConfidence rewards larger samples.
func sampleConfidence(attempts, good, great int) float64 {
	switch {
	case attempts >= great:
		return 1.15
	case attempts >= good:
		return 1.1
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return Round2(v)
}
