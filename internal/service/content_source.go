package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/scoring"
)

const defaultProblemPoints = 100

// QuestionSource produces the aptitude questions of a drive the first time they are needed.
type QuestionSource interface {
	DrawQuestions(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralQuestion, error)
}

// ProblemSource produces the coding problems of a drive the first time they are needed.
type ProblemSource interface {
	DrawProblems(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralProblem, error)
}

type difficultyMix struct {
	difficulty string
	count      int
}

// planMix caps the configured difficulty counts at total, taking easy first. Whatever
// the buckets leave uncovered is drawn without a difficulty filter. A zero total means
// the buckets define the size.
func planMix(total, easy, medium, hard int) ([]difficultyMix, int) {
	if total <= 0 {
		total = max(easy, 0) + max(medium, 0) + max(hard, 0)
	}
	remaining := total
	var mix []difficultyMix
	for _, m := range []difficultyMix{
		{scoring.DifficultyEasy, easy},
		{scoring.DifficultyMedium, medium},
		{scoring.DifficultyHard, hard},
	} {
		if n := min(m.count, remaining); n > 0 {
			mix = append(mix, difficultyMix{m.difficulty, n})
			remaining -= n
		}
	}
	return mix, total
}

// drawMix draws every bucket of mix and tops the selection up to total from
// unfiltered draws, so a bank short on one difficulty still fills the drive.
func drawMix[T any](mix []difficultyMix, total int, draw func(difficulty string, n int) ([]T, error), id func(T) uint) ([]T, error) {
	seen := make(map[uint]bool)
	picked := make([]T, 0, total)
	add := func(items []T) {
		for _, it := range items {
			if len(picked) == total {
				return
			}
			if !seen[id(it)] {
				seen[id(it)] = true
				picked = append(picked, it)
			}
		}
	}

	for _, m := range mix {
		items, err := draw(m.difficulty, m.count)
		if err != nil {
			return nil, fmt.Errorf("draw %s: %w", m.difficulty, err)
		}
		add(items)
	}
	if len(picked) < total {
		items, err := draw("", total+len(picked))
		if err != nil {
			return nil, fmt.Errorf("top up: %w", err)
		}
		add(items)
	}

	rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked, nil
}

type bankQuestionSource struct {
	bank repository.BankRepository
}

func NewBankQuestionSource(bank repository.BankRepository) QuestionSource {
	return &bankQuestionSource{bank: bank}
}

func (s *bankQuestionSource) DrawQuestions(_ context.Context, drive *model.MockDrive) ([]model.EphemeralQuestion, error) {
	cfg := drive.Aptitude
	mix, total := planMix(cfg.QuestionCount, cfg.EasyCount, cfg.MediumCount, cfg.HardCount)
	picked, err := drawMix(mix, total, s.bank.DrawQuestions, func(q model.BankQuestion) uint { return q.ID })
	if err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}

	out := make([]model.EphemeralQuestion, 0, len(picked))
	for i, q := range picked {
		bankID := q.ID
		out = append(out, model.EphemeralQuestion{
			MockDriveID:          drive.ID,
			SourceBankQuestionID: &bankID,
			Text:                 q.Text,
			Options:              append([]string(nil), q.Options...),
			CorrectOption:        q.CorrectOption,
			Explanation:          q.Explanation,
			Difficulty:           scoring.NormalizeDifficulty(q.Difficulty),
			Tags:                 append([]string(nil), q.Tags...),
			OrderIndex:           i,
		})
	}
	return out, nil
}

type bankProblemSource struct {
	bank repository.BankRepository
}

func NewBankProblemSource(bank repository.BankRepository) ProblemSource {
	return &bankProblemSource{bank: bank}
}

func (s *bankProblemSource) DrawProblems(_ context.Context, drive *model.MockDrive) ([]model.EphemeralProblem, error) {
	cfg := drive.MachineTest
	mix, total := planMix(cfg.ProblemCount, cfg.EasyCount, cfg.MediumCount, cfg.HardCount)
	picked, err := drawMix(mix, total, s.bank.DrawProblems, func(p model.BankProblem) uint { return p.ID })
	if err != nil {
		return nil, fmt.Errorf("problems: %w", err)
	}

	out := make([]model.EphemeralProblem, 0, len(picked))
	for i, p := range picked {
		bankID := p.ID
		out = append(out, model.EphemeralProblem{
			MockDriveID:         drive.ID,
			SourceBankProblemID: &bankID,
			Title:               p.Title,
			Description:         p.Description,
			Difficulty:          scoring.NormalizeDifficulty(p.Difficulty),
			Tags:                append([]string(nil), p.Tags...),
			Hints:               append([]string(nil), p.Hints...),
			TestCases:           append([]model.TestCase(nil), p.TestCases...),
			TestCasesValidated:  p.TestCasesValidated,
			Points:              problemPoints(p.Points, cfg.DefaultPoints),
			OrderIndex:          i,
		})
	}
	return out, nil
}

func problemPoints(points, drivePoints float64) float64 {
	switch {
	case points > 0:
		return points
	case drivePoints > 0:
		return drivePoints
	default:
		return defaultProblemPoints
	}
}
