package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService owns the lifecycle of mock drive attempts.
type AttemptService interface {
	Start(ctx context.Context, candidate Candidate, driveID uint) (*dto.StartAttemptResponse, error)
	GetAttempt(ctx context.Context, attemptID uint, candidate Candidate) (*dto.AttemptResponse, error)
	GetStatus(ctx context.Context, attemptID uint, candidate Candidate) (*dto.AttemptStatusResponse, error)
	Advance(ctx context.Context, attemptID uint, candidate Candidate) (*dto.AdvanceResponse, error)
	Abandon(ctx context.Context, attemptID uint, candidate Candidate) (*dto.AttemptResponse, error)
	// Reap expires every IN_PROGRESS attempt past its deadline and returns how many it ended.
	Reap(ctx context.Context) (int, error)
}

type attemptService struct {
	driveRepo   repository.MockDriveRepository
	attemptRepo repository.AttemptRepository
	guard       *AttemptGuard
	results     ResultService
	clock       Clock
}

func NewAttemptService(
	driveRepo repository.MockDriveRepository,
	attemptRepo repository.AttemptRepository,
	guard *AttemptGuard,
	results ResultService,
	clock Clock,
) AttemptService {
	return &attemptService{
		driveRepo:   driveRepo,
		attemptRepo: attemptRepo,
		guard:       guard,
		results:     results,
		clock:       clock,
	}
}

func (s *attemptService) Start(ctx context.Context, candidate Candidate, driveID uint) (*dto.StartAttemptResponse, error) {
	drive, err := s.driveRepo.FindByID(driveID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Uint("driveID", driveID).Msg("Start: failed to load mock drive")
		}
		return nil, lookupErr(err, "mock drive", driveID)
	}
	if candidate.InstitutionID != 0 && drive.InstitutionID != candidate.InstitutionID {
		return nil, apperror.Forbidden("mock drive %d belongs to another institution", driveID)
	}

	existing, err := s.attemptRepo.FindByDriveAndCandidate(driveID, candidate.ID)
	switch {
	case err == nil:
		return s.resume(existing, drive)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Error().Err(err).Uint("driveID", driveID).Uint("candidateID", candidate.ID).Msg("Start: failed to look up attempt")
		return nil, apperror.Internal(err, "failed to look up attempt")
	}

	now := s.clock.Now()
	if err := s.checkEligibility(drive, candidate, now); err != nil {
		return nil, err
	}

	attempt := &model.MockDriveAttempt{
		MockDriveID: drive.ID,
		CandidateID: candidate.ID,
		Status:      model.AttemptStatusInProgress,
		StartedAt:   now,
	}
	created, err := s.attemptRepo.CreateIfAbsent(attempt)
	if err != nil {
		log.Error().Err(err).Uint("driveID", driveID).Uint("candidateID", candidate.ID).Msg("Start: failed to create attempt")
		return nil, apperror.Internal(err, "failed to create attempt")
	}
	if !created {
		// A concurrent start won the insert; converge on its row.
		winner, err := s.attemptRepo.FindByDriveAndCandidate(driveID, candidate.ID)
		if err != nil {
			log.Error().Err(err).Uint("driveID", driveID).Uint("candidateID", candidate.ID).Msg("Start: failed to reload attempt")
			return nil, apperror.Internal(err, "failed to reload attempt")
		}
		return s.resume(winner, drive)
	}

	log.Info().Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Uint("candidateID", candidate.ID).Msg("Attempt started")
	attempt.MockDrive = drive
	return s.startResponse(attempt, drive, false)
}

func (s *attemptService) resume(attempt *model.MockDriveAttempt, drive *model.MockDrive) (*dto.StartAttemptResponse, error) {
	attempt.MockDrive = drive
	switch attempt.Status {
	case model.AttemptStatusCompleted:
		return nil, apperror.Conflict("mock drive %d has already been completed", drive.ID)
	case model.AttemptStatusAbandoned:
		return nil, apperror.Conflict("attempt %d ended (%s) and cannot be restarted", attempt.ID, attempt.EndReason)
	}

	expired, err := s.guard.ExpireIfDue(attempt, drive)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apperror.InvalidState("attempt %d has expired", attempt.ID)
	}
	return s.startResponse(attempt, drive, true)
}

func (s *attemptService) checkEligibility(drive *model.MockDrive, candidate Candidate, now time.Time) error {
	if err := drive.ValidateBudget(); err != nil {
		log.Warn().Err(err).Uint("driveID", drive.ID).Msg("Start: mock drive time budget is inconsistent")
		return apperror.InvalidState("mock drive %d is misconfigured: %v", drive.ID, err)
	}
	if !drive.IsActive(now) {
		switch {
		case drive.Status != model.DriveStatusPublished && drive.Status != model.DriveStatusOngoing:
			return apperror.InvalidState("mock drive %d is %s", drive.ID, drive.Status)
		case now.Before(drive.DriveStart):
			return apperror.InvalidState("mock drive %d has not started yet", drive.ID)
		default:
			return apperror.InvalidState("mock drive %d has ended", drive.ID)
		}
	}

	reg, err := s.driveRepo.FindRegistration(drive.ID, candidate.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Forbidden("candidate %d is not registered for mock drive %d", candidate.ID, drive.ID)
		}
		log.Error().Err(err).Uint("driveID", drive.ID).Uint("candidateID", candidate.ID).Msg("Start: failed to load registration")
		return apperror.Internal(err, "failed to load registration")
	}
	if reg.Status == model.RegistrationStatusCancelled {
		return apperror.InvalidState("registration for mock drive %d was cancelled", drive.ID)
	}
	if !reg.IsEligible {
		reason := reg.EligibilityReason
		if reason == "" {
			reason = "eligibility criteria not met"
		}
		return apperror.Forbidden("candidate is not eligible for mock drive %d: %s", drive.ID, reason)
	}
	if reg.BatchID == nil || reg.Batch == nil {
		return apperror.InvalidState("no batch has been assigned for mock drive %d", drive.ID)
	}
	if !reg.Batch.IsActive(now) {
		return apperror.InvalidState("batch %q is not active right now", reg.Batch.Name)
	}
	return nil
}

func (s *attemptService) GetAttempt(_ context.Context, attemptID uint, candidate Candidate) (*dto.AttemptResponse, error) {
	attempt, drive, err := s.guard.Load(attemptID, candidate)
	if err != nil {
		return nil, err
	}
	if !attempt.IsTerminal() {
		if _, err := s.guard.ExpireIfDue(attempt, drive); err != nil {
			return nil, err
		}
	}
	resp := toAttemptResponse(attempt, drive)
	return &resp, nil
}

func (s *attemptService) GetStatus(_ context.Context, attemptID uint, candidate Candidate) (*dto.AttemptStatusResponse, error) {
	attempt, drive, err := s.guard.Load(attemptID, candidate)
	if err != nil {
		return nil, err
	}
	if !attempt.IsTerminal() {
		if _, err := s.guard.ExpireIfDue(attempt, drive); err != nil {
			return nil, err
		}
	}

	status, err := s.guard.Status(attempt, drive)
	if err != nil {
		return nil, err
	}
	return &dto.AttemptStatusResponse{
		AttemptID:       attempt.ID,
		Status:          attempt.Status,
		ComponentStatus: status,
		Deadline:        deadlineOf(attempt, drive),
	}, nil
}

func (s *attemptService) Advance(ctx context.Context, attemptID uint, candidate Candidate) (*dto.AdvanceResponse, error) {
	attempt, drive, err := s.guard.LoadActive(attemptID, candidate)
	if err != nil {
		return nil, err
	}

	status, err := s.guard.Status(attempt, drive)
	if err != nil {
		return nil, err
	}
	resp := &dto.AdvanceResponse{
		AttemptID:       attempt.ID,
		Status:          attempt.Status,
		ComponentStatus: status,
	}
	if !status.IsCompleted() {
		return resp, nil
	}

	result, err := s.results.Finalize(ctx, attempt, drive)
	if err != nil {
		return nil, err
	}
	resp.Status = model.AttemptStatusCompleted
	resp.Result = result
	return resp, nil
}

func (s *attemptService) Abandon(_ context.Context, attemptID uint, candidate Candidate) (*dto.AttemptResponse, error) {
	attempt, drive, err := s.guard.LoadActive(attemptID, candidate)
	if err != nil {
		return nil, err
	}

	ok, err := s.attemptRepo.Abandon(attempt.ID, s.clock.Now(), model.EndReasonAbandoned)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Abandon: update failed")
		return nil, apperror.Internal(err, "failed to abandon attempt %d", attempt.ID)
	}
	if err := s.guard.refresh(attempt); err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidState("attempt %d is already %s", attempt.ID, strings.ToLower(attempt.Status))
	}

	log.Info().Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Attempt abandoned")
	resp := toAttemptResponse(attempt, drive)
	return &resp, nil
}

func (s *attemptService) Reap(ctx context.Context) (int, error) {
	attempts, err := s.attemptRepo.FindInProgressWithDrive()
	if err != nil {
		log.Error().Err(err).Msg("Reap: failed to list in-progress attempts")
		return 0, apperror.Internal(err, "failed to list in-progress attempts")
	}

	expired := 0
	var errs []error
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		attempt := &attempts[i]
		if attempt.MockDrive == nil {
			continue
		}
		ended, err := s.guard.ExpireIfDue(attempt, attempt.MockDrive)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ended && attempt.EndReason == model.EndReasonExpired {
			expired++
		}
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Int("scanned", len(attempts)).Msg("Reaper expired attempts")
	}
	return expired, errors.Join(errs...)
}

func (s *attemptService) startResponse(attempt *model.MockDriveAttempt, drive *model.MockDrive, resumed bool) (*dto.StartAttemptResponse, error) {
	status, err := s.guard.Status(attempt, drive)
	if err != nil {
		return nil, err
	}
	return &dto.StartAttemptResponse{
		Attempt:         toAttemptResponse(attempt, drive),
		ComponentStatus: status,
		Resumed:         resumed,
	}, nil
}

func toAttemptResponse(attempt *model.MockDriveAttempt, drive *model.MockDrive) dto.AttemptResponse {
	var resp dto.AttemptResponse
	if err := copier.Copy(&resp, attempt); err != nil {
		log.Warn().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to copy attempt into response")
	}
	resp.Deadline = deadlineOf(attempt, drive)
	return resp
}

func deadlineOf(attempt *model.MockDriveAttempt, drive *model.MockDrive) *time.Time {
	d := drive.AttemptDeadline(attempt.StartedAt)
	if d.IsZero() {
		return nil
	}
	return &d
}
