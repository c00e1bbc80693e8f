package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/lshigami/mockdrive/config"
	"github.com/lshigami/mockdrive/internal/generator"
	"github.com/lshigami/mockdrive/internal/judge"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
)

// NewQuestionSource picks the configured question source.
func NewQuestionSource(cfg *config.Config, bank repository.BankRepository, gen generator.Generator) QuestionSource {
	bankSource := NewBankQuestionSource(bank)
	if cfg.Content.Source != config.ContentSourceGenerated {
		return bankSource
	}
	return NewGeneratedQuestionSource(gen, bankSource)
}

// NewProblemSource picks the configured problem source.
func NewProblemSource(cfg *config.Config, bank repository.BankRepository, gen generator.Generator, executor judge.Executor) ProblemSource {
	bankSource := NewBankProblemSource(bank)
	if cfg.Content.Source != config.ContentSourceGenerated {
		return bankSource
	}
	return NewGeneratedProblemSource(gen, executor, bankSource, cfg)
}

// withTopUp adds an unfiltered bucket for the part of total the mix leaves uncovered.
func withTopUp(mix []difficultyMix, total int) []difficultyMix {
	for _, m := range mix {
		total -= m.count
	}
	if total > 0 {
		mix = append(mix, difficultyMix{count: total})
	}
	return mix
}

func mixLabel(difficulty string) string {
	if difficulty == "" {
		return "mixed"
	}
	return difficulty
}

type generatedQuestionSource struct {
	gen      generator.Generator
	fallback QuestionSource
}

// NewGeneratedQuestionSource writes fresh questions for every drive. When generation
// fails or comes up short the whole draw falls back to fallback.
func NewGeneratedQuestionSource(gen generator.Generator, fallback QuestionSource) QuestionSource {
	return &generatedQuestionSource{gen: gen, fallback: fallback}
}

func (s *generatedQuestionSource) DrawQuestions(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralQuestion, error) {
	out, err := s.generate(ctx, drive)
	if err == nil {
		return out, nil
	}
	log.Warn().Err(err).Uint("driveID", drive.ID).Msg("Question generation failed; drawing from the bank")
	return s.fallback.DrawQuestions(ctx, drive)
}

func (s *generatedQuestionSource) generate(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralQuestion, error) {
	cfg := drive.Aptitude
	mix, total := planMix(cfg.QuestionCount, cfg.EasyCount, cfg.MediumCount, cfg.HardCount)

	seen := make(map[string]bool)
	out := make([]model.EphemeralQuestion, 0, total)
	for _, m := range withTopUp(mix, total) {
		qs, err := s.gen.GenerateQuestions(ctx, generator.QuestionRequest{
			Difficulty: m.difficulty,
			Count:      m.count,
			JobTitle:   drive.Interview.JobTitle,
		})
		if err != nil {
			return nil, fmt.Errorf("generate %s questions: %w", mixLabel(m.difficulty), err)
		}

		kept := 0
		for _, q := range qs {
			if kept == m.count {
				break
			}
			key := scoring.NormalizeText(q.Text)
			if !usableQuestion(q) || seen[key] {
				continue
			}
			seen[key] = true
			difficulty := m.difficulty
			if difficulty == "" {
				difficulty = q.Difficulty
			}
			out = append(out, model.EphemeralQuestion{
				MockDriveID:   drive.ID,
				Text:          strings.TrimSpace(q.Text),
				Options:       q.Options,
				CorrectOption: q.CorrectOption,
				Explanation:   q.Explanation,
				Difficulty:    scoring.NormalizeDifficulty(difficulty),
				Tags:          q.Tags,
			})
			kept++
		}
		if kept < m.count {
			return nil, fmt.Errorf("generated %d usable %s questions, need %d", kept, mixLabel(m.difficulty), m.count)
		}
	}

	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	for i := range out {
		out[i].OrderIndex = i
	}
	return out, nil
}

// usableQuestion needs text, at least two distinct options and a correct option among them.
func usableQuestion(q generator.Question) bool {
	if strings.TrimSpace(q.Text) == "" || len(q.Options) < 2 {
		return false
	}
	distinct := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" || distinct[o] {
			return false
		}
		distinct[o] = true
	}
	return distinct[q.CorrectOption]
}

type generatedProblemSource struct {
	gen        generator.Generator
	executor   judge.Executor
	fallback   ProblemSource
	languageID int
	language   string
	limits     judge.Limits
}

// NewGeneratedProblemSource writes fresh problems for every drive and runs each
// reference solution through the judge. A problem whose reference solution fails its
// own cases is discarded; one the judge could not check is kept unvalidated.
func NewGeneratedProblemSource(gen generator.Generator, executor judge.Executor, fallback ProblemSource, cfg *config.Config) ProblemSource {
	return &generatedProblemSource{
		gen:        gen,
		executor:   executor,
		fallback:   fallback,
		languageID: cfg.Content.ReferenceLanguageID,
		language:   cfg.Content.ReferenceLanguage,
		limits: judge.Limits{
			CPUTimeSeconds: cfg.Judge.CPUTimeLimit,
			MemoryKB:       cfg.Judge.MemoryKB,
		},
	}
}

func (s *generatedProblemSource) DrawProblems(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralProblem, error) {
	out, err := s.generate(ctx, drive)
	if err == nil {
		return out, nil
	}
	log.Warn().Err(err).Uint("driveID", drive.ID).Msg("Problem generation failed; drawing from the bank")
	return s.fallback.DrawProblems(ctx, drive)
}

func (s *generatedProblemSource) generate(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralProblem, error) {
	cfg := drive.MachineTest
	mix, total := planMix(cfg.ProblemCount, cfg.EasyCount, cfg.MediumCount, cfg.HardCount)

	seen := make(map[string]bool)
	out := make([]model.EphemeralProblem, 0, total)
	for _, m := range withTopUp(mix, total) {
		ps, err := s.gen.GenerateProblems(ctx, generator.ProblemRequest{
			Difficulty: m.difficulty,
			Count:      m.count,
			Language:   s.language,
		})
		if err != nil {
			return nil, fmt.Errorf("generate %s problems: %w", mixLabel(m.difficulty), err)
		}

		kept := 0
		for _, p := range ps {
			if kept == m.count {
				break
			}
			key := scoring.NormalizeText(p.Title)
			if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" || len(p.TestCases) == 0 || seen[key] {
				continue
			}
			validated, ok := s.verify(ctx, drive.ID, p)
			if !ok {
				continue
			}
			seen[key] = true
			difficulty := m.difficulty
			if difficulty == "" {
				difficulty = p.Difficulty
			}
			out = append(out, model.EphemeralProblem{
				MockDriveID:        drive.ID,
				Title:              strings.TrimSpace(p.Title),
				Description:        p.Description,
				Difficulty:         scoring.NormalizeDifficulty(difficulty),
				Tags:               p.Tags,
				Hints:              p.Hints,
				TestCases:          testCases(p.TestCases),
				TestCasesValidated: validated,
				Points:             problemPoints(0, cfg.DefaultPoints),
			})
			kept++
		}
		if kept < m.count {
			return nil, fmt.Errorf("generated %d usable %s problems, need %d", kept, mixLabel(m.difficulty), m.count)
		}
	}

	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	for i := range out {
		out[i].OrderIndex = i
	}
	return out, nil
}

// verify runs the reference solution against every case. It reports whether the
// cases are validated and whether the problem is usable at all.
func (s *generatedProblemSource) verify(ctx context.Context, driveID uint, p generator.Problem) (validated, usable bool) {
	if strings.TrimSpace(p.ReferenceSolution) == "" {
		return false, true
	}
	for i, tc := range p.TestCases {
		res, err := s.executor.Execute(ctx, judge.Request{
			SourceCode:     p.ReferenceSolution,
			LanguageID:     s.languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Limits:         s.limits,
		})
		if err != nil {
			log.Warn().Err(err).Uint("driveID", driveID).Str("title", p.Title).Msg("Could not validate generated problem; keeping it unvalidated")
			return false, true
		}
		if res.Outcome != scoring.CasePassed {
			log.Warn().Uint("driveID", driveID).Str("title", p.Title).Int("case", i).Str("outcome", string(res.Outcome)).Msg("Reference solution fails its own test case; discarding problem")
			return false, false
		}
	}
	return true, true
}

// testCases converts generated cases and makes sure at least one is visible.
func testCases(cases []generator.TestCase) []model.TestCase {
	out := make([]model.TestCase, 0, len(cases))
	for _, tc := range cases {
		out = append(out, model.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, IsHidden: tc.IsHidden})
	}
	if !slices.ContainsFunc(out, func(tc model.TestCase) bool { return !tc.IsHidden }) {
		out[0].IsHidden = false
	}
	return out
}
