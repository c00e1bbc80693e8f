package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateResult_Totals(t *testing.T) {
	agg := AggregateResult([]Contribution{
		{Component: ComponentAptitude, Score: 8, MaxScore: 10},
		{Component: ComponentMachineTest, Score: 150, MaxScore: 200},
		{Component: ComponentAIInterview, Score: 80, MaxScore: 100},
	})

	assert.Equal(t, 238.0, agg.TotalScore)
	assert.Equal(t, 310.0, agg.TotalMaxScore)
	assert.InDelta(t, 76.77, agg.Percentage, 0.001)
	assert.Len(t, agg.Contributions, 3)
}

func TestAggregateResult_ZeroMax(t *testing.T) {
	agg := AggregateResult([]Contribution{
		{Component: ComponentAptitude},
		{Component: ComponentMachineTest},
	})

	assert.Zero(t, agg.TotalScore)
	assert.Zero(t, agg.TotalMaxScore)
	assert.Zero(t, agg.Percentage)
	// Components with no max produce no per-component feedback, only the overall line.
	assert.Empty(t, agg.Strengths)
	assert.Len(t, agg.AreasForImprovement, 1)
}

func TestAggregateResult_Feedback(t *testing.T) {
	agg := AggregateResult([]Contribution{
		{Component: ComponentAptitude, Score: 9, MaxScore: 10},
		{Component: ComponentMachineTest, Score: 40, MaxScore: 100},
		{
			Component:    ComponentAIInterview,
			Score:        60,
			MaxScore:     100,
			Strengths:    []string{"Explains trade-offs well"},
			Improvements: []string{"Give more concrete examples"},
		},
	})

	assert.Equal(t, []string{
		componentFeedback[ComponentAptitude].strength,
		"Explains trade-offs well",
	}, agg.Strengths)
	assert.Equal(t, []string{
		componentFeedback[ComponentMachineTest].improvement,
		"Give more concrete examples",
		"Overall performance is below the placement readiness benchmark; keep practising every stage",
	}, agg.AreasForImprovement)
}

func TestAggregateResult_OverallStrength(t *testing.T) {
	agg := AggregateResult([]Contribution{
		{Component: ComponentMachineTest, Score: 70, MaxScore: 100},
	})

	assert.Equal(t, 70.0, agg.Percentage)
	assert.Contains(t, agg.Strengths, "Overall performance meets the placement readiness benchmark")
	assert.Contains(t, agg.Strengths, componentFeedback[ComponentMachineTest].strength)
	assert.Empty(t, agg.AreasForImprovement)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 0.0, Percentage(5, 0))
	assert.Equal(t, 100.0, Percentage(10, 10))
}
