package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ComponentScorer reports one component's share of the final result.
type ComponentScorer interface {
	Contribution(ctx context.Context, attempt *model.MockDriveAttempt, drive *model.MockDrive) (scoring.Contribution, error)
}

type ResultService interface {
	// Finalize completes the attempt and stores its result exactly once. Calling it
	// again returns the stored result unchanged.
	Finalize(ctx context.Context, attempt *model.MockDriveAttempt, drive *model.MockDrive) (*dto.ResultResponse, error)
	GetResult(ctx context.Context, attemptID uint, candidate Candidate) (*dto.ResultResponse, error)
}

type resultService struct {
	db          *gorm.DB
	attemptRepo repository.AttemptRepository
	resultRepo  repository.ResultRepository
	guard       *AttemptGuard
	scorers     []ComponentScorer
	clock       Clock
}

func NewResultService(
	db *gorm.DB,
	attemptRepo repository.AttemptRepository,
	resultRepo repository.ResultRepository,
	guard *AttemptGuard,
	aptitude AptitudeService,
	coding CodingService,
	interview InterviewService,
	clock Clock,
) ResultService {
	return &resultService{
		db:          db,
		attemptRepo: attemptRepo,
		resultRepo:  resultRepo,
		guard:       guard,
		scorers:     []ComponentScorer{aptitude, coding, interview},
		clock:       clock,
	}
}

var errAttemptNotCompletable = errors.New("attempt is no longer in progress")

func (s *resultService) Finalize(ctx context.Context, attempt *model.MockDriveAttempt, drive *model.MockDrive) (*dto.ResultResponse, error) {
	existing, err := s.resultRepo.FindByAttempt(attempt.ID)
	if err == nil {
		return toResultResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Finalize: failed to look up result")
		return nil, apperror.Internal(err, "failed to look up result")
	}
	if attempt.Status == model.AttemptStatusAbandoned {
		return nil, apperror.InvalidState("attempt %d was abandoned and has no result", attempt.ID)
	}

	// Scores are gathered before any write; a collaborator failure leaves the attempt in progress.
	contributions := make([]scoring.Contribution, 0, len(s.scorers))
	for _, scorer := range s.scorers {
		c, err := scorer.Contribution(ctx, attempt, drive)
		if err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Finalize: failed to score component")
			return nil, err
		}
		contributions = append(contributions, c)
	}
	agg := scoring.AggregateResult(contributions)

	result := &model.MockDriveResult{
		AttemptID:           attempt.ID,
		MockDriveID:         drive.ID,
		CandidateID:         attempt.CandidateID,
		AptitudeScore:       agg.Contributions[scoring.ComponentAptitude].Score,
		AptitudeMaxScore:    agg.Contributions[scoring.ComponentAptitude].MaxScore,
		MachineTestScore:    agg.Contributions[scoring.ComponentMachineTest].Score,
		MachineTestMaxScore: agg.Contributions[scoring.ComponentMachineTest].MaxScore,
		InterviewScore:      agg.Contributions[scoring.ComponentAIInterview].Score,
		InterviewMaxScore:   agg.Contributions[scoring.ComponentAIInterview].MaxScore,
		TotalScore:          agg.TotalScore,
		TotalMaxScore:       agg.TotalMaxScore,
		Percentage:          agg.Percentage,
		Strengths:           agg.Strengths,
		AreasForImprovement: agg.AreasForImprovement,
	}

	var stored *model.MockDriveResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		attempts := s.attemptRepo.WithTx(tx)
		results := s.resultRepo.WithTx(tx)

		ok, err := attempts.Complete(attempt.ID, s.clock.Now())
		if err != nil {
			return err
		}
		if !ok {
			current, err := attempts.FindByID(attempt.ID)
			if err != nil {
				return err
			}
			if current.Status != model.AttemptStatusCompleted {
				return errAttemptNotCompletable
			}
		}

		created, err := results.CreateIfAbsent(result)
		if err != nil {
			return err
		}
		if created {
			stored = result
			return nil
		}
		stored, err = results.FindByAttempt(attempt.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, errAttemptNotCompletable) {
			if rerr := s.guard.refresh(attempt); rerr != nil {
				return nil, rerr
			}
			return nil, apperror.InvalidState("attempt %d is already %s", attempt.ID, strings.ToLower(attempt.Status))
		}
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Finalize: transaction failed")
		return nil, apperror.Internal(err, "failed to finalize attempt %d", attempt.ID)
	}

	attempt.Status = model.AttemptStatusCompleted
	log.Info().
		Uint("attemptID", attempt.ID).
		Uint("driveID", drive.ID).
		Float64("total", stored.TotalScore).
		Float64("totalMax", stored.TotalMaxScore).
		Float64("percentage", stored.Percentage).
		Msg("Attempt completed")
	return toResultResponse(stored), nil
}

func (s *resultService) GetResult(_ context.Context, attemptID uint, candidate Candidate) (*dto.ResultResponse, error) {
	attempt, _, err := s.guard.Load(attemptID, candidate)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusCompleted {
		return nil, apperror.InvalidState("result is only available once attempt %d is completed", attemptID)
	}

	result, err := s.resultRepo.FindByAttempt(attemptID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Uint("attemptID", attemptID).Msg("GetResult: failed to load result")
		}
		return nil, lookupErr(err, "result for attempt", attemptID)
	}
	return toResultResponse(result), nil
}

func toResultResponse(r *model.MockDriveResult) *dto.ResultResponse {
	var resp dto.ResultResponse
	if err := copier.Copy(&resp, r); err != nil {
		log.Warn().Err(err).Uint("attemptID", r.AttemptID).Msg("Failed to copy result into response")
	}
	resp.Aptitude = dto.ComponentScoreDTO{Score: r.AptitudeScore, MaxScore: r.AptitudeMaxScore}
	resp.MachineTest = dto.ComponentScoreDTO{Score: r.MachineTestScore, MaxScore: r.MachineTestMaxScore}
	resp.Interview = dto.ComponentScoreDTO{Score: r.InterviewScore, MaxScore: r.InterviewMaxScore}
	resp.Strengths = append([]string{}, r.Strengths...)
	resp.AreasForImprovement = append([]string{}, r.AreasForImprovement...)
	return &resp
}
