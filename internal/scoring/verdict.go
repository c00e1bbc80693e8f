package scoring

// CaseOutcome is the judged result of a single test case.
type CaseOutcome string

const (
	CasePassed       CaseOutcome = "PASSED"
	CaseWrongAnswer  CaseOutcome = "WRONG_ANSWER"
	CaseTimeout      CaseOutcome = "TIME_LIMIT_EXCEEDED"
	CaseRuntimeError CaseOutcome = "RUNTIME_ERROR"
	CaseCompileError CaseOutcome = "COMPILATION_ERROR"
)

// SubmissionStatus is the overall classification of a code submission.
type SubmissionStatus string

const (
	StatusCompileError SubmissionStatus = "COMPILATION_ERROR"
	StatusRuntimeError SubmissionStatus = "RUNTIME_ERROR"
	StatusTimeout      SubmissionStatus = "TIME_LIMIT_EXCEEDED"
	StatusAccepted     SubmissionStatus = "ACCEPTED"
	StatusPartial      SubmissionStatus = "PARTIALLY_ACCEPTED"
	StatusFailed       SubmissionStatus = "WRONG_ANSWER"
)

// Verdict summarises a submission.
type Verdict struct {
	Status SubmissionStatus
	Passed int
	Total  int
	Score  float64 // 0-100
}

// ClassifySubmission applies the priority compile error > runtime error > timeout >
// all pass > partial pass > fail. total is the number of test cases of the problem,
// which exceeds len(outcomes) when execution stopped at a compile error.
func ClassifySubmission(outcomes []CaseOutcome, total int) Verdict {
	v := Verdict{Total: total}
	var compileErr, runtimeErr, timeout bool
	for _, o := range outcomes {
		switch o {
		case CasePassed:
			v.Passed++
		case CaseCompileError:
			compileErr = true
		case CaseRuntimeError:
			runtimeErr = true
		case CaseTimeout:
			timeout = true
		}
	}

	switch {
	case compileErr:
		v.Status = StatusCompileError
	case runtimeErr:
		v.Status = StatusRuntimeError
	case timeout:
		v.Status = StatusTimeout
	case total > 0 && v.Passed == total:
		v.Status = StatusAccepted
	case v.Passed > 0:
		v.Status = StatusPartial
	default:
		v.Status = StatusFailed
	}

	v.Score = Percentage(float64(v.Passed), float64(total))
	return v
}

// CounterDelta says which quality counter a submission increments besides the total.
func (v Verdict) CounterDelta() (solved, partial, failed int) {
	switch {
	case v.Total > 0 && v.Passed == v.Total:
		return 1, 0, 0
	case v.Passed > 0:
		return 0, 1, 0
	default:
		return 0, 0, 1
	}
}

// ScoredSubmission is the part of a code submission needed for best-of crediting.
type ScoredSubmission struct {
	ProblemID uint
	Score     float64
}

// ProblemPoints is a problem's weight in the machine test.
type ProblemPoints struct {
	ProblemID uint
	Points    float64
}

// BestScores keeps the highest score per problem; submission order does not matter.
func BestScores(subs []ScoredSubmission) map[uint]float64 {
	best := make(map[uint]float64)
	for _, s := range subs {
		if cur, ok := best[s.ProblemID]; !ok || s.Score > cur {
			best[s.ProblemID] = s.Score
		}
	}
	return best
}

// MachineTestCredit scales each problem's best score by its points.
func MachineTestCredit(problems []ProblemPoints, best map[uint]float64) (earned, maxScore float64) {
	for _, p := range problems {
		maxScore += p.Points
		earned += best[p.ProblemID] / 100 * p.Points
	}
	return Round2(earned), Round2(maxScore)
}
