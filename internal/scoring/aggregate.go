package scoring

import "math"

const (
	strengthRatio    = 0.70
	improvementRatio = 0.50
	overallBenchmark = 70.0
)

// Contribution is one component's share of the final result. Components that were
// disabled or never attempted contribute 0/0.
type Contribution struct {
	Component    Component
	Score        float64
	MaxScore     float64
	Strengths    []string
	Improvements []string
}

// Aggregate is the computed content of a result record.
type Aggregate struct {
	Contributions       map[Component]Contribution
	TotalScore          float64
	TotalMaxScore       float64
	Percentage          float64
	Strengths           []string
	AreasForImprovement []string
}

var componentFeedback = map[Component]struct{ strength, improvement string }{
	ComponentAptitude: {
		strength:    "Strong quantitative and logical reasoning in the aptitude test",
		improvement: "Practice aptitude topics to improve speed and accuracy",
	},
	ComponentMachineTest: {
		strength:    "Solid problem solving and coding skills in the machine test",
		improvement: "Work on data structures and algorithms to solve more coding problems",
	},
	ComponentAIInterview: {
		strength:    "Clear and confident communication in the AI interview",
		improvement: "Prepare structured answers to common interview questions",
	},
}

// AggregateResult sums the contributions and derives rule-based feedback.
func AggregateResult(contributions []Contribution) Aggregate {
	agg := Aggregate{
		Contributions:       make(map[Component]Contribution, len(contributions)),
		Strengths:           []string{},
		AreasForImprovement: []string{},
	}

	for _, c := range contributions {
		agg.Contributions[c.Component] = c
		agg.TotalScore += c.Score
		agg.TotalMaxScore += c.MaxScore

		if c.MaxScore > 0 {
			ratio := c.Score / c.MaxScore
			fb := componentFeedback[c.Component]
			if ratio >= strengthRatio && fb.strength != "" {
				agg.Strengths = append(agg.Strengths, fb.strength)
			} else if ratio < improvementRatio && fb.improvement != "" {
				agg.AreasForImprovement = append(agg.AreasForImprovement, fb.improvement)
			}
		}
		agg.Strengths = append(agg.Strengths, c.Strengths...)
		agg.AreasForImprovement = append(agg.AreasForImprovement, c.Improvements...)
	}

	agg.TotalScore = Round2(agg.TotalScore)
	agg.TotalMaxScore = Round2(agg.TotalMaxScore)
	if agg.TotalMaxScore > 0 {
		agg.Percentage = Round2(100 * agg.TotalScore / agg.TotalMaxScore)
	}

	if agg.Percentage >= overallBenchmark {
		agg.Strengths = append(agg.Strengths, "Overall performance meets the placement readiness benchmark")
	} else {
		agg.AreasForImprovement = append(agg.AreasForImprovement, "Overall performance is below the placement readiness benchmark; keep practising every stage")
	}
	return agg
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percentage returns 100*part/whole rounded to two decimals, 0 when whole is 0.
func Percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return Round2(100 * part / whole)
}
