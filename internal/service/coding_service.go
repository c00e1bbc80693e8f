package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/mockdrive/config"
	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/judge"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CodingService interface {
	ComponentScorer
	GetProblems(ctx context.Context, attemptID uint, candidate Candidate) (*dto.MachineTestResponse, error)
	Submit(ctx context.Context, attemptID, problemID uint, candidate Candidate, req dto.SubmitCodeRequest) (*dto.CodeSubmissionResponse, error)
}

type codingService struct {
	db             *gorm.DB
	guard          *AttemptGuard
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	attemptRepo    repository.AttemptRepository
	source         ProblemSource
	executor       judge.Executor
	limits         judge.Limits
	clock          Clock
	drives         *keyedMutex
}

func NewCodingService(
	db *gorm.DB,
	guard *AttemptGuard,
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	attemptRepo repository.AttemptRepository,
	source ProblemSource,
	executor judge.Executor,
	cfg *config.Config,
	clock Clock,
) CodingService {
	return &codingService{
		db:             db,
		guard:          guard,
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		attemptRepo:    attemptRepo,
		source:         source,
		executor:       executor,
		limits: judge.Limits{
			CPUTimeSeconds: cfg.Judge.CPUTimeLimit,
			MemoryKB:       cfg.Judge.MemoryKB,
		},
		clock:  clock,
		drives: newKeyedMutex(),
	}
}

func (s *codingService) GetProblems(ctx context.Context, attemptID uint, candidate Candidate) (*dto.MachineTestResponse, error) {
	attempt, drive, err := s.loadOpen(attemptID, candidate)
	if err != nil {
		return nil, err
	}

	problems, err := s.materialize(ctx, drive)
	if err != nil {
		return nil, err
	}

	if attempt.MachineTestStartedAt == nil {
		if err := s.attemptRepo.MarkMachineTestStarted(attempt.ID, s.clock.Now()); err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to mark machine test started")
			return nil, apperror.Internal(err, "failed to start machine test")
		}
	}

	best, err := s.bestScores(attempt.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MachineTestResponse{
		AttemptID:       attempt.ID,
		DurationMinutes: drive.MachineTest.DurationMinutes,
		Problems:        make([]dto.ProblemDTO, 0, len(problems)),
	}
	for _, p := range problems {
		item := dto.ProblemDTO{
			ID:              p.ID,
			Title:           p.Title,
			Description:     p.Description,
			Difficulty:      p.Difficulty,
			Hints:           append([]string(nil), p.Hints...),
			Points:          p.Points,
			OrderIndex:      p.OrderIndex,
			SampleTestCases: []dto.VisibleTestCaseDTO{},
			HiddenTestCount: model.HiddenCount(p.TestCases),
		}
		for _, tc := range p.TestCases {
			if !tc.IsHidden {
				item.SampleTestCases = append(item.SampleTestCases, dto.VisibleTestCaseDTO{
					Input:          tc.Input,
					ExpectedOutput: tc.ExpectedOutput,
				})
			}
		}
		if score, ok := best[p.ID]; ok {
			item.BestScore = &score
		}
		resp.Problems = append(resp.Problems, item)
	}
	return resp, nil
}

func (s *codingService) Submit(ctx context.Context, attemptID, problemID uint, candidate Candidate, req dto.SubmitCodeRequest) (*dto.CodeSubmissionResponse, error) {
	attempt, drive, err := s.loadOpen(attemptID, candidate)
	if err != nil {
		return nil, err
	}

	problem, err := s.problemRepo.FindByIDAndDrive(problemID, drive.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("problemID", problemID).Msg("Failed to load problem")
		}
		return nil, lookupErr(err, "problem", problemID)
	}
	if len(problem.TestCases) == 0 {
		return nil, apperror.InvalidState("problem %d has no test cases", problem.ID)
	}

	// No lock or transaction is held while the sandbox runs.
	results, outcomes, compileOutput, err := s.runTestCases(ctx, problem, req)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("problemID", problem.ID).Msg("Code execution failed")
		return nil, apperror.External(err, "code execution failed for problem %d; the submission was not recorded", problem.ID)
	}
	verdict := scoring.ClassifySubmission(outcomes, len(problem.TestCases))

	// Judging can outlast the deadline.
	if _, _, err := s.guard.LoadActive(attempt.ID, candidate); err != nil {
		return nil, err
	}

	submission := &model.CodeSubmission{
		AttemptID:     attempt.ID,
		ProblemID:     problem.ID,
		LanguageID:    req.LanguageID,
		SourceCode:    req.SourceCode,
		Status:        string(verdict.Status),
		PassedCount:   verdict.Passed,
		TotalCount:    verdict.Total,
		Score:         verdict.Score,
		Results:       results,
		CompileOutput: compileOutput,
	}
	solved, partial, failed := verdict.CounterDelta()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.submissionRepo.WithTx(tx).CreateCodeSubmission(submission); err != nil {
			return fmt.Errorf("create code submission: %w", err)
		}
		if err := s.problemRepo.WithTx(tx).RecordOutcome(problem.ID, solved, partial, failed); err != nil {
			return fmt.Errorf("record problem outcome: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("problemID", problem.ID).Msg("Submit code: transaction failed")
		return nil, apperror.Internal(err, "failed to store code submission")
	}

	best, err := s.bestScores(attempt.ID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("attemptID", attempt.ID).
		Uint("problemID", problem.ID).
		Str("status", submission.Status).
		Float64("score", submission.Score).
		Msg("Code submission judged")
	return toCodeSubmissionResponse(submission, best[problem.ID]), nil
}

// runTestCases judges every case in order and stops at the first compile error.
func (s *codingService) runTestCases(ctx context.Context, problem *model.EphemeralProblem, req dto.SubmitCodeRequest) ([]model.TestCaseResult, []scoring.CaseOutcome, string, error) {
	results := make([]model.TestCaseResult, 0, len(problem.TestCases))
	outcomes := make([]scoring.CaseOutcome, 0, len(problem.TestCases))
	for i, tc := range problem.TestCases {
		res, err := s.executor.Execute(ctx, judge.Request{
			SourceCode:     req.SourceCode,
			LanguageID:     req.LanguageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Limits:         s.limits,
		})
		if err != nil {
			return nil, nil, "", fmt.Errorf("test case %d: %w", i, err)
		}

		outcomes = append(outcomes, res.Outcome)
		results = append(results, model.TestCaseResult{
			Index:    i,
			Outcome:  string(res.Outcome),
			IsHidden: tc.IsHidden,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Time:     res.Time,
			MemoryKB: res.MemoryKB,
		})
		if res.Outcome == scoring.CaseCompileError {
			return results, outcomes, res.CompileOutput, nil
		}
	}
	return results, outcomes, "", nil
}

// Contribution credits the best score per problem scaled by its points. An attempt
// without submissions contributes 0/0.
func (s *codingService) Contribution(_ context.Context, attempt *model.MockDriveAttempt, drive *model.MockDrive) (scoring.Contribution, error) {
	c := scoring.Contribution{Component: scoring.ComponentMachineTest}
	if !drive.MachineTest.Enabled {
		return c, nil
	}

	subs, err := s.submissionRepo.FindCodeSubmissionsByAttempt(attempt.ID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to load code submissions for scoring")
		return c, apperror.Internal(err, "failed to load code submissions")
	}
	if len(subs) == 0 {
		return c, nil
	}

	problems, err := s.problemRepo.FindByDrive(drive.ID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Failed to load problems for scoring")
		return c, apperror.Internal(err, "failed to load problems")
	}

	points := make([]scoring.ProblemPoints, 0, len(problems))
	for _, p := range problems {
		points = append(points, scoring.ProblemPoints{ProblemID: p.ID, Points: p.Points})
	}
	c.Score, c.MaxScore = scoring.MachineTestCredit(points, scoring.BestScores(scored(subs)))
	return c, nil
}

// loadOpen admits machine test calls until the interview has been started.
func (s *codingService) loadOpen(attemptID uint, candidate Candidate) (*model.MockDriveAttempt, *model.MockDrive, error) {
	attempt, drive, err := s.guard.LoadActive(attemptID, candidate)
	if err != nil {
		return nil, nil, err
	}
	if err := s.guard.RequireReached(attempt, drive, scoring.ComponentMachineTest); err != nil {
		return nil, nil, err
	}
	if attempt.InterviewSessionID != nil {
		return nil, nil, apperror.InvalidState("machine test of attempt %d is closed once the interview has started", attempt.ID)
	}
	return attempt, drive, nil
}

func (s *codingService) materialize(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralProblem, error) {
	unlock := s.drives.Lock(drive.ID)
	defer unlock()

	problems, err := s.problemRepo.FindByDrive(drive.ID)
	if err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Failed to load problems")
		return nil, apperror.Internal(err, "failed to load problems")
	}
	if len(problems) > 0 {
		return problems, nil
	}

	drawn, err := s.source.DrawProblems(ctx, drive)
	if err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Failed to draw problems")
		return nil, apperror.Internal(err, "failed to prepare problems")
	}
	if len(drawn) == 0 {
		return nil, apperror.InvalidState("no coding problems are available for mock drive %d", drive.ID)
	}
	if err := s.problemRepo.CreateBatch(drawn); err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Failed to store problems")
		return nil, apperror.Internal(err, "failed to store problems")
	}
	log.Info().Uint("driveID", drive.ID).Int("count", len(drawn)).Msg("Problems materialized")
	return s.problemRepo.FindByDrive(drive.ID)
}

func (s *codingService) bestScores(attemptID uint) (map[uint]float64, error) {
	subs, err := s.submissionRepo.FindCodeSubmissionsByAttempt(attemptID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Failed to load code submissions")
		return nil, apperror.Internal(err, "failed to load code submissions")
	}
	return scoring.BestScores(scored(subs)), nil
}

func scored(subs []model.CodeSubmission) []scoring.ScoredSubmission {
	out := make([]scoring.ScoredSubmission, 0, len(subs))
	for _, sub := range subs {
		out = append(out, scoring.ScoredSubmission{ProblemID: sub.ProblemID, Score: sub.Score})
	}
	return out
}

func toCodeSubmissionResponse(sub *model.CodeSubmission, best float64) *dto.CodeSubmissionResponse {
	resp := &dto.CodeSubmissionResponse{
		ID:            sub.ID,
		AttemptID:     sub.AttemptID,
		ProblemID:     sub.ProblemID,
		Status:        sub.Status,
		PassedCount:   sub.PassedCount,
		TotalCount:    sub.TotalCount,
		Score:         sub.Score,
		BestScore:     best,
		CompileOutput: sub.CompileOutput,
		Results:       make([]dto.TestCaseResultDTO, 0, len(sub.Results)),
		SubmittedAt:   sub.SubmittedAt,
	}
	for _, r := range sub.Results {
		item := dto.TestCaseResultDTO{
			Index:    r.Index,
			Outcome:  r.Outcome,
			IsHidden: r.IsHidden,
			Time:     r.Time,
			MemoryKB: r.MemoryKB,
		}
		if !r.IsHidden {
			item.Stdout = r.Stdout
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}
