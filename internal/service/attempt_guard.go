package service

import (
	"errors"
	"strings"
	"time"

	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptGuard loads attempts on behalf of a candidate and enforces ownership,
// expiry and stage order. Every candidate-facing service goes through it.
type AttemptGuard struct {
	attemptRepo    repository.AttemptRepository
	submissionRepo repository.SubmissionRepository
	interviewRepo  repository.InterviewRepository
	clock          Clock
}

func NewAttemptGuard(
	attemptRepo repository.AttemptRepository,
	submissionRepo repository.SubmissionRepository,
	interviewRepo repository.InterviewRepository,
	clock Clock,
) *AttemptGuard {
	return &AttemptGuard{
		attemptRepo:    attemptRepo,
		submissionRepo: submissionRepo,
		interviewRepo:  interviewRepo,
		clock:          clock,
	}
}

// Load returns an attempt owned by candidate, in any state.
func (g *AttemptGuard) Load(attemptID uint, candidate Candidate) (*model.MockDriveAttempt, *model.MockDrive, error) {
	attempt, err := g.attemptRepo.FindByIDWithDrive(attemptID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Uint("attemptID", attemptID).Msg("Failed to load attempt")
		}
		return nil, nil, lookupErr(err, "attempt", attemptID)
	}
	if attempt.CandidateID != candidate.ID {
		return nil, nil, apperror.Forbidden("attempt %d belongs to another candidate", attemptID)
	}
	if attempt.MockDrive == nil {
		return nil, nil, apperror.Internal(nil, "attempt %d has no mock drive", attemptID)
	}
	return attempt, attempt.MockDrive, nil
}

// LoadActive is Load restricted to IN_PROGRESS attempts. An attempt past its deadline
// is abandoned as expired on the spot and the call is rejected.
func (g *AttemptGuard) LoadActive(attemptID uint, candidate Candidate) (*model.MockDriveAttempt, *model.MockDrive, error) {
	attempt, drive, err := g.Load(attemptID, candidate)
	if err != nil {
		return nil, nil, err
	}
	if attempt.IsTerminal() {
		return nil, nil, apperror.InvalidState("attempt %d is already %s", attempt.ID, strings.ToLower(attempt.Status))
	}
	expired, err := g.ExpireIfDue(attempt, drive)
	if err != nil {
		return nil, nil, err
	}
	if expired {
		return nil, nil, apperror.InvalidState("attempt %d expired at %s", attempt.ID, drive.AttemptDeadline(attempt.StartedAt).Format(time.RFC3339))
	}
	return attempt, drive, nil
}

// ExpireIfDue abandons attempt when its deadline has passed. It reports whether the
// attempt is now over, whichever writer won the transition, and refreshes attempt.
func (g *AttemptGuard) ExpireIfDue(attempt *model.MockDriveAttempt, drive *model.MockDrive) (bool, error) {
	now := g.clock.Now()
	deadline := drive.AttemptDeadline(attempt.StartedAt)
	if deadline.IsZero() || !now.After(deadline) {
		return false, nil
	}

	ok, err := g.attemptRepo.Abandon(attempt.ID, now, model.EndReasonExpired)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Msg("Failed to expire attempt")
		return false, apperror.Internal(err, "failed to expire attempt %d", attempt.ID)
	}
	if ok {
		log.Info().Uint("attemptID", attempt.ID).Uint("driveID", drive.ID).Time("deadline", deadline).Msg("Attempt expired")
	}
	if err := g.refresh(attempt); err != nil {
		return false, err
	}
	return true, nil
}

func (g *AttemptGuard) refresh(attempt *model.MockDriveAttempt) error {
	fresh, err := g.attemptRepo.FindByID(attempt.ID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to reload attempt")
		return apperror.Internal(err, "failed to reload attempt %d", attempt.ID)
	}
	drive := attempt.MockDrive
	*attempt = *fresh
	attempt.MockDrive = drive
	return nil
}

// Snapshot derives per-component outcomes from the records linked to the attempt.
func (g *AttemptGuard) Snapshot(attempt *model.MockDriveAttempt, drive *model.MockDrive) (scoring.Snapshot, error) {
	var snap scoring.Snapshot

	if drive.Aptitude.Enabled {
		snap.Aptitude = scoring.OutcomePending
		if attempt.AptitudeResponseID != nil {
			snap.Aptitude = scoring.OutcomeSatisfied
		}
	}

	if drive.MachineTest.Enabled {
		snap.MachineTest = scoring.OutcomePending
		if attempt.MachineTestStartedAt != nil {
			snap.MachineTest = scoring.OutcomeInProgress
		}
		n, err := g.submissionRepo.CountCodeSubmissions(attempt.ID)
		if err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to count code submissions")
			return snap, apperror.Internal(err, "failed to read machine test progress")
		}
		// Any submission satisfies the stage, solved or not.
		if n > 0 {
			snap.MachineTest = scoring.OutcomeSatisfied
		}
	}

	if drive.Interview.Enabled {
		snap.AIInterview = scoring.OutcomePending
		if attempt.InterviewSessionID != nil {
			session, err := g.interviewRepo.FindByID(*attempt.InterviewSessionID)
			if err != nil {
				log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to load interview session")
				return snap, lookupErr(err, "interview session", *attempt.InterviewSessionID)
			}
			snap.AIInterview = scoring.OutcomeInProgress
			if session.Status == model.InterviewStatusCompleted {
				snap.AIInterview = scoring.OutcomeSatisfied
			}
		}
	}
	return snap, nil
}

func (g *AttemptGuard) Status(attempt *model.MockDriveAttempt, drive *model.MockDrive) (scoring.ComponentStatus, error) {
	snap, err := g.Snapshot(attempt, drive)
	if err != nil {
		return scoring.ComponentStatus{}, err
	}
	return scoring.ResolveComponentStatus(snap), nil
}

// RequireReached fails unless every enabled component before c is satisfied.
func (g *AttemptGuard) RequireReached(attempt *model.MockDriveAttempt, drive *model.MockDrive, c scoring.Component) error {
	if !componentEnabled(drive, c) {
		return apperror.InvalidState("%s is not part of mock drive %d", c, drive.ID)
	}
	status, err := g.Status(attempt, drive)
	if err != nil {
		return err
	}
	if status.CurrentComponent.Rank() < c.Rank() {
		return apperror.InvalidState("complete %s before starting %s", status.CurrentComponent, c)
	}
	return nil
}

func componentEnabled(drive *model.MockDrive, c scoring.Component) bool {
	switch c {
	case scoring.ComponentAptitude:
		return drive.Aptitude.Enabled
	case scoring.ComponentMachineTest:
		return drive.MachineTest.Enabled
	case scoring.ComponentAIInterview:
		return drive.Interview.Enabled
	}
	return false
}
