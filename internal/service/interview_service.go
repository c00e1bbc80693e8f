package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/interview"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/retry"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const interviewMaxScore = 100

// InterviewScore is what the engine reads back from a finished interview.
type InterviewScore struct {
	Score        float64
	MaxScore     float64
	HasFeedback  bool
	Strengths    []string
	Improvements []string
}

type InterviewService interface {
	ComponentScorer
	Start(ctx context.Context, attemptID uint, candidate Candidate, req dto.StartInterviewRequest) (*dto.InterviewSessionResponse, error)
	SubmitAnswer(ctx context.Context, attemptID uint, candidate Candidate, req dto.SubmitInterviewAnswerRequest) (*dto.InterviewSessionResponse, error)
	// Score reads the session's feedback. Missing feedback scores 0 out of 100; a
	// transport failure is returned as an ExternalDependency error.
	Score(ctx context.Context, attempt *model.MockDriveAttempt) (InterviewScore, error)
}

type interviewService struct {
	db            *gorm.DB
	guard         *AttemptGuard
	interviewRepo repository.InterviewRepository
	attemptRepo   repository.AttemptRepository
	interviewer   interview.Interviewer
	retry         retry.Config
	clock         Clock
}

func NewInterviewService(
	db *gorm.DB,
	guard *AttemptGuard,
	interviewRepo repository.InterviewRepository,
	attemptRepo repository.AttemptRepository,
	interviewer interview.Interviewer,
	retryCfg retry.Config,
	clock Clock,
) InterviewService {
	return &interviewService{
		db:            db,
		guard:         guard,
		interviewRepo: interviewRepo,
		attemptRepo:   attemptRepo,
		interviewer:   interviewer,
		retry:         retryCfg,
		clock:         clock,
	}
}

func (s *interviewService) Start(ctx context.Context, attemptID uint, candidate Candidate, req dto.StartInterviewRequest) (*dto.InterviewSessionResponse, error) {
	attempt, drive, err := s.guard.LoadActive(attemptID, candidate)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireReached(attempt, drive, scoring.ComponentAIInterview); err != nil {
		return nil, err
	}

	// A second start returns the session already linked to the attempt.
	if existing, err := s.interviewRepo.FindByAttempt(attempt.ID); err == nil {
		if attempt.InterviewSessionID == nil {
			if _, err := s.attemptRepo.LinkInterviewSession(attempt.ID, existing.ID); err != nil {
				log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to link interview session")
				return nil, apperror.Internal(err, "failed to link interview session")
			}
		}
		return toInterviewResponse(existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to look up interview session")
		return nil, apperror.Internal(err, "failed to look up interview session")
	}

	var external *interview.Session
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		external, err = s.interviewer.StartSession(ctx, interview.StartRequest{
			CandidateID: candidate.ID,
			ResumeID:    req.ResumeID,
			JobTitle:    drive.Interview.JobTitle,
			CompanyName: drive.Interview.CompanyName,
		})
		return err
	})
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to start interview session")
		return nil, apperror.External(err, "interview service could not start a session")
	}

	session := &model.InterviewSession{
		AttemptID:         attempt.ID,
		ExternalSessionID: external.ID,
		Status:            model.InterviewStatusInProgress,
		CurrentQuestion:   external.FirstQuestion,
		QuestionCount:     external.QuestionCount,
		StartedAt:         s.clock.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		sessions := s.interviewRepo.WithTx(tx)
		created, err := sessions.CreateIfAbsent(session)
		if err != nil {
			return fmt.Errorf("create interview session: %w", err)
		}
		if !created {
			winner, err := sessions.FindByAttempt(attempt.ID)
			if err != nil {
				return fmt.Errorf("reload interview session: %w", err)
			}
			session = winner
		}
		if _, err := s.attemptRepo.WithTx(tx).LinkInterviewSession(attempt.ID, session.ID); err != nil {
			return fmt.Errorf("link interview session: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Start interview: transaction failed")
		return nil, apperror.Internal(err, "failed to store interview session")
	}

	log.Info().Uint("attemptID", attempt.ID).Uint("sessionID", session.ID).Msg("Interview started")
	return toInterviewResponse(session), nil
}

func (s *interviewService) SubmitAnswer(ctx context.Context, attemptID uint, candidate Candidate, req dto.SubmitInterviewAnswerRequest) (*dto.InterviewSessionResponse, error) {
	attempt, _, err := s.guard.LoadActive(attemptID, candidate)
	if err != nil {
		return nil, err
	}
	if attempt.InterviewSessionID == nil {
		return nil, apperror.InvalidState("interview for attempt %d has not been started", attempt.ID)
	}
	session, err := s.interviewRepo.FindByID(*attempt.InterviewSessionID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to load interview session")
		return nil, lookupErr(err, "interview session", *attempt.InterviewSessionID)
	}
	if session.Status == model.InterviewStatusCompleted {
		return nil, apperror.Conflict("interview for attempt %d is already completed", attempt.ID)
	}

	var ack *interview.AnswerAck
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		ack, err = s.interviewer.SubmitAnswer(ctx, session.ExternalSessionID, candidate.ID, req.Answer)
		return err
	})
	switch {
	case errors.Is(err, interview.ErrSessionCompleted):
		return nil, apperror.Conflict("interview for attempt %d is already completed", attempt.ID)
	case err != nil:
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("sessionID", session.ID).Msg("Failed to submit interview answer")
		return nil, apperror.External(err, "interview service rejected the answer")
	}

	if ack.Completed {
		if err := s.interviewRepo.MarkCompleted(session.ID, ack.AnsweredCount, s.clock.Now()); err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("sessionID", session.ID).Msg("Failed to complete interview session")
			return nil, apperror.Internal(err, "failed to complete interview session")
		}
		session.Status = model.InterviewStatusCompleted
		// Feedback is fetched again at finalization if this attempt fails.
		if _, err := s.loadFeedback(ctx, session, candidate.ID); err != nil {
			log.Warn().Err(err).Uint("attemptID", attempt.ID).Uint("sessionID", session.ID).Msg("Interview feedback not fetched yet")
		}
	} else if err := s.interviewRepo.RecordAnswer(session.ID, ack.AnsweredCount, ack.NextQuestion); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("sessionID", session.ID).Msg("Failed to record interview answer")
		return nil, apperror.Internal(err, "failed to record interview answer")
	}

	fresh, err := s.interviewRepo.FindByID(session.ID)
	if err != nil {
		log.Error().Err(err).Uint("sessionID", session.ID).Msg("Failed to reload interview session")
		return nil, lookupErr(err, "interview session", session.ID)
	}
	return toInterviewResponse(fresh), nil
}

func (s *interviewService) Score(ctx context.Context, attempt *model.MockDriveAttempt) (InterviewScore, error) {
	if attempt.InterviewSessionID == nil {
		return InterviewScore{}, nil
	}
	session, err := s.interviewRepo.FindByID(*attempt.InterviewSessionID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to load interview session for scoring")
		return InterviewScore{}, lookupErr(err, "interview session", *attempt.InterviewSessionID)
	}

	score := InterviewScore{MaxScore: interviewMaxScore}
	if session.Status != model.InterviewStatusCompleted {
		return score, nil
	}

	fb, err := s.loadFeedback(ctx, session, attempt.CandidateID)
	switch {
	case errors.Is(err, interview.ErrNoFeedback):
		log.Warn().Err(err).Uint("attemptID", attempt.ID).Uint("sessionID", session.ID).Msg("Interview has no feedback; scoring 0")
		return score, nil
	case err != nil:
		return InterviewScore{}, err
	}

	score.Score = fb.OverallScore
	score.HasFeedback = true
	score.Strengths = fb.KeyStrengths
	score.Improvements = fb.AreasForImprovement
	return score, nil
}

// Contribution maps Score onto the aggregate. An interview that was never started
// contributes 0/0.
func (s *interviewService) Contribution(ctx context.Context, attempt *model.MockDriveAttempt, drive *model.MockDrive) (scoring.Contribution, error) {
	c := scoring.Contribution{Component: scoring.ComponentAIInterview}
	if !drive.Interview.Enabled || attempt.InterviewSessionID == nil {
		return c, nil
	}
	score, err := s.Score(ctx, attempt)
	if err != nil {
		return c, err
	}
	c.Score = scoring.Round2(score.Score)
	c.MaxScore = score.MaxScore
	c.Strengths = score.Strengths
	c.Improvements = score.Improvements
	return c, nil
}

// loadFeedback returns stored feedback or fetches it from the interviewer and stores it.
func (s *interviewService) loadFeedback(ctx context.Context, session *model.InterviewSession, candidateID uint) (*interview.Feedback, error) {
	if session.HasFeedback {
		return &interview.Feedback{
			OverallScore:        session.OverallScore,
			KeyStrengths:        session.KeyStrengths,
			AreasForImprovement: session.AreasForImprovement,
		}, nil
	}

	var fb *interview.Feedback
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		fb, err = s.interviewer.GetFeedback(ctx, session.ExternalSessionID, candidateID)
		return err
	})
	if errors.Is(err, interview.ErrNoFeedback) {
		return nil, err
	}
	if errors.Is(err, interview.ErrSessionNotFound) {
		// The session was recorded as ours; losing it upstream is a collaborator failure.
		log.Error().Err(err).Uint("sessionID", session.ID).Str("externalSessionID", session.ExternalSessionID).Msg("Interview service lost the session")
		return nil, apperror.External(err, "interview service lost session %d", session.ID)
	}
	if err != nil {
		log.Error().Err(err).Uint("sessionID", session.ID).Msg("Failed to fetch interview feedback")
		return nil, apperror.External(err, "interview service did not return feedback")
	}

	if err := s.interviewRepo.SaveFeedback(session.ID, fb.OverallScore, fb.KeyStrengths, fb.AreasForImprovement); err != nil {
		log.Error().Err(err).Uint("sessionID", session.ID).Msg("Failed to store interview feedback")
		return nil, apperror.Internal(err, "failed to store interview feedback")
	}
	session.HasFeedback = true
	session.OverallScore = fb.OverallScore
	session.KeyStrengths = fb.KeyStrengths
	session.AreasForImprovement = fb.AreasForImprovement
	return fb, nil
}

// call retries transport failures only.
func (s *interviewService) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && !errors.Is(err, interview.ErrUnavailable) {
			return retry.Permanent(err)
		}
		return err
	})
}

func toInterviewResponse(session *model.InterviewSession) *dto.InterviewSessionResponse {
	resp := &dto.InterviewSessionResponse{
		SessionID:       session.ID,
		AttemptID:       session.AttemptID,
		Status:          session.Status,
		CurrentQuestion: session.CurrentQuestion,
		AnsweredCount:   session.AnsweredCount,
		QuestionCount:   session.QuestionCount,
		HasFeedback:     session.HasFeedback,
	}
	if session.HasFeedback {
		score := session.OverallScore
		resp.OverallScore = &score
	}
	return resp
}
