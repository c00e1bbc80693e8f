package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AptitudeService interface {
	ComponentScorer
	GetQuestions(ctx context.Context, attemptID uint, candidate Candidate) (*dto.AptitudeTestResponse, error)
	Submit(ctx context.Context, attemptID uint, candidate Candidate, req dto.SubmitAptitudeRequest) (*dto.AptitudeResultResponse, error)
}

type aptitudeService struct {
	db             *gorm.DB
	guard          *AttemptGuard
	questionRepo   repository.QuestionRepository
	submissionRepo repository.SubmissionRepository
	attemptRepo    repository.AttemptRepository
	source         QuestionSource
	drives         *keyedMutex
}

func NewAptitudeService(
	db *gorm.DB,
	guard *AttemptGuard,
	questionRepo repository.QuestionRepository,
	submissionRepo repository.SubmissionRepository,
	attemptRepo repository.AttemptRepository,
	source QuestionSource,
) AptitudeService {
	return &aptitudeService{
		db:             db,
		guard:          guard,
		questionRepo:   questionRepo,
		submissionRepo: submissionRepo,
		attemptRepo:    attemptRepo,
		source:         source,
		drives:         newKeyedMutex(),
	}
}

var errAptitudeAlreadySubmitted = errors.New("aptitude response already linked")

func (s *aptitudeService) GetQuestions(ctx context.Context, attemptID uint, candidate Candidate) (*dto.AptitudeTestResponse, error) {
	attempt, drive, err := s.loadOpen(attemptID, candidate)
	if err != nil {
		return nil, err
	}

	questions, err := s.materialize(ctx, drive)
	if err != nil {
		return nil, err
	}

	// Exposure is counted on every render.
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	if err := s.questionRepo.IncrementAttempts(ids); err != nil {
		log.Warn().Err(err).Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Failed to record question exposure")
	}

	resp := &dto.AptitudeTestResponse{
		AttemptID:       attempt.ID,
		DurationMinutes: drive.Aptitude.DurationMinutes,
		Questions:       make([]dto.AptitudeQuestionDTO, 0, len(questions)),
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, dto.AptitudeQuestionDTO{
			ID:         q.ID,
			Text:       q.Text,
			Options:    append([]string{}, q.Options...),
			Difficulty: q.Difficulty,
			Tags:       append([]string(nil), q.Tags...),
			OrderIndex: q.OrderIndex,
		})
	}
	return resp, nil
}

func (s *aptitudeService) Submit(ctx context.Context, attemptID uint, candidate Candidate, req dto.SubmitAptitudeRequest) (*dto.AptitudeResultResponse, error) {
	attempt, drive, err := s.loadOpen(attemptID, candidate)
	if err != nil {
		return nil, err
	}

	questions, err := s.materialize(ctx, drive)
	if err != nil {
		return nil, err
	}
	known := make(map[uint]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	answers := make(map[uint]string, len(req.Answers))
	for _, a := range req.Answers {
		if !known[a.QuestionID] {
			return nil, apperror.InvalidState("question %d is not part of mock drive %d", a.QuestionID, drive.ID)
		}
		answers[a.QuestionID] = a.SelectedOption
	}

	answered := make([]scoring.AnsweredQuestion, 0, len(questions))
	var correctIDs []uint
	for _, q := range questions {
		correct := false
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectOption {
			correct = true
			correctIDs = append(correctIDs, q.ID)
		}
		answered = append(answered, scoring.AnsweredQuestion{
			Difficulty: q.Difficulty,
			Tags:       q.Tags,
			Correct:    correct,
		})
	}

	response := &model.AptitudeResponse{
		AttemptID:      attempt.ID,
		Answers:        datatypes.NewJSONType(answers),
		CorrectCount:   len(correctIDs),
		TotalQuestions: len(questions),
		Percentage:     scoring.Percentage(float64(len(correctIDs)), float64(len(questions))),
		Breakdown:      datatypes.NewJSONType(scoring.ComputeBreakdown(answered)),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.submissionRepo.WithTx(tx).CreateAptitudeResponse(response); err != nil {
			return fmt.Errorf("create aptitude response: %w", err)
		}
		linked, err := s.attemptRepo.WithTx(tx).LinkAptitudeResponse(attempt.ID, response.ID)
		if err != nil {
			return fmt.Errorf("link aptitude response: %w", err)
		}
		if !linked {
			return errAptitudeAlreadySubmitted
		}
		return s.questionRepo.WithTx(tx).IncrementCorrect(correctIDs)
	})
	if err != nil {
		// The unique index on attempt_id also rejects a racing duplicate insert.
		if errors.Is(err, errAptitudeAlreadySubmitted) || s.alreadySubmitted(attempt) {
			return nil, apperror.Conflict("aptitude test for attempt %d was already submitted", attempt.ID)
		}
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Submit aptitude: transaction failed")
		return nil, apperror.Internal(err, "failed to store aptitude response")
	}

	log.Info().
		Uint("attemptID", attempt.ID).
		Int("correct", response.CorrectCount).
		Int("total", response.TotalQuestions).
		Msg("Aptitude test submitted")
	return toAptitudeResult(response), nil
}

// Contribution is correct answers over questions, 0/0 when the stage was skipped.
func (s *aptitudeService) Contribution(_ context.Context, attempt *model.MockDriveAttempt, drive *model.MockDrive) (scoring.Contribution, error) {
	c := scoring.Contribution{Component: scoring.ComponentAptitude}
	if !drive.Aptitude.Enabled || attempt.AptitudeResponseID == nil {
		return c, nil
	}
	response, err := s.submissionRepo.FindAptitudeResponse(*attempt.AptitudeResponseID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to load aptitude response for scoring")
		return c, lookupErr(err, "aptitude response", *attempt.AptitudeResponseID)
	}
	c.Score = float64(response.CorrectCount)
	c.MaxScore = float64(response.TotalQuestions)
	return c, nil
}

func (s *aptitudeService) loadOpen(attemptID uint, candidate Candidate) (*model.MockDriveAttempt, *model.MockDrive, error) {
	attempt, drive, err := s.guard.LoadActive(attemptID, candidate)
	if err != nil {
		return nil, nil, err
	}
	if attempt.AptitudeResponseID != nil {
		return nil, nil, apperror.Conflict("aptitude test for attempt %d was already submitted", attempt.ID)
	}
	if err := s.guard.RequireReached(attempt, drive, scoring.ComponentAptitude); err != nil {
		return nil, nil, err
	}
	return attempt, drive, nil
}

// materialize returns the drive's question set, drawing it from the source on first use.
func (s *aptitudeService) materialize(ctx context.Context, drive *model.MockDrive) ([]model.EphemeralQuestion, error) {
	unlock := s.drives.Lock(drive.ID)
	defer unlock()

	questions, err := s.questionRepo.FindByDrive(drive.ID)
	if err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Failed to load aptitude questions")
		return nil, apperror.Internal(err, "failed to load aptitude questions")
	}
	if len(questions) > 0 {
		return questions, nil
	}

	drawn, err := s.source.DrawQuestions(ctx, drive)
	if err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Failed to draw aptitude questions")
		return nil, apperror.Internal(err, "failed to prepare aptitude questions")
	}
	if len(drawn) == 0 {
		return nil, apperror.InvalidState("no aptitude questions are available for mock drive %d", drive.ID)
	}
	if err := s.questionRepo.CreateBatch(drawn); err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Failed to store aptitude questions")
		return nil, apperror.Internal(err, "failed to store aptitude questions")
	}
	log.Info().Uint("driveID", drive.ID).Int("count", len(drawn)).Msg("Aptitude questions materialized")
	return s.questionRepo.FindByDrive(drive.ID)
}

func (s *aptitudeService) alreadySubmitted(attempt *model.MockDriveAttempt) bool {
	current, err := s.attemptRepo.FindByID(attempt.ID)
	return err == nil && current.AptitudeResponseID != nil
}

func toAptitudeResult(r *model.AptitudeResponse) *dto.AptitudeResultResponse {
	return &dto.AptitudeResultResponse{
		ResponseID:     r.ID,
		AttemptID:      r.AttemptID,
		CorrectCount:   r.CorrectCount,
		TotalQuestions: r.TotalQuestions,
		Percentage:     r.Percentage,
		Breakdown:      r.Breakdown.Data(),
		SubmittedAt:    r.SubmittedAt,
	}
}
