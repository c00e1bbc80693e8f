package service

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptService_StartIsIdempotent(t *testing.T) {
	f := newFixture(t, func(d *model.MockDrive) {
		d.Aptitude.Enabled = false
		d.MachineTest.Enabled = false
		d.Interview.Enabled = false
	})
	ctx := context.Background()

	first := f.start(t)
	assert.False(t, first.Resumed)
	assert.Equal(t, model.AttemptStatusInProgress, first.Attempt.Status)
	require.NotNil(t, first.Attempt.Deadline)
	assert.Equal(t, t0.Add(90*time.Minute), first.Attempt.Deadline.UTC())

	f.clock.Advance(5 * time.Minute)
	second, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.Attempt.ID, second.Attempt.ID)

	adv, err := f.attempts.Advance(ctx, first.Attempt.ID, f.candidate)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusCompleted, adv.Status)

	_, err = f.attempts.Start(ctx, f.candidate, f.drive.ID)
	assertKind(t, err, apperror.KindConflict)
}

func TestAttemptService_StartValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown drive", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID+100)
		assertKind(t, err, apperror.KindNotFound)
	})

	t.Run("not registered", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindForbidden)
	})

	t.Run("other institution", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, f.candidate.ID)
		_, err := f.attempts.Start(ctx, Candidate{ID: f.candidate.ID, InstitutionID: 7}, f.drive.ID)
		assertKind(t, err, apperror.KindForbidden)
	})

	t.Run("draft drive", func(t *testing.T) {
		f := newFixture(t, func(d *model.MockDrive) { d.Status = model.DriveStatusDraft })
		f.register(t, f.candidate.ID)
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindInvalidState)
	})

	t.Run("outside drive window", func(t *testing.T) {
		f := newFixture(t, func(d *model.MockDrive) { d.DriveStart = t0.Add(time.Hour) })
		f.register(t, f.candidate.ID)
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindInvalidState)
	})

	t.Run("drive ended", func(t *testing.T) {
		f := newFixture(t, func(d *model.MockDrive) { d.DriveEnd = t0 })
		f.register(t, f.candidate.ID)
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindInvalidState)
		assert.Contains(t, err.Error(), "has ended")
	})

	t.Run("component longer than the drive", func(t *testing.T) {
		f := newFixture(t, func(d *model.MockDrive) { d.MachineTest.DurationMinutes = 120 })
		f.register(t, f.candidate.ID)
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindInvalidState)
		assert.Contains(t, err.Error(), "machine test duration")
	})

	t.Run("batch not active", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, f.candidate.ID)
		f.clock.Advance(5 * time.Hour)
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindInvalidState)
	})

	t.Run("not eligible", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.driveRepo.CreateRegistration(&model.Registration{
			MockDriveID:       f.drive.ID,
			CandidateID:       f.candidate.ID,
			Status:            model.RegistrationStatusRegistered,
			EligibilityReason: "CGPA below 7.0",
		}))
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindForbidden)
		assert.Contains(t, err.Error(), "CGPA below 7.0")
	})

	t.Run("cancelled registration", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.driveRepo.CreateRegistration(&model.Registration{
			MockDriveID: f.drive.ID,
			CandidateID: f.candidate.ID,
			Status:      model.RegistrationStatusCancelled,
			IsEligible:  true,
		}))
		_, err := f.attempts.Start(ctx, f.candidate, f.drive.ID)
		assertKind(t, err, apperror.KindInvalidState)
	})
}

func TestAttemptService_ReapExpiresOverdueAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	started := f.start(t)

	n, err := f.attempts.Reap(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "an attempt inside its time budget is left alone")

	f.clock.Advance(91 * time.Minute)
	n, err = f.attempts.Reap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.attempts.GetAttempt(ctx, started.Attempt.ID, f.candidate)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAbandoned, got.Status)
	assert.Equal(t, model.EndReasonExpired, got.EndReason)

	_, err = f.attempts.Advance(ctx, started.Attempt.ID, f.candidate)
	assertKind(t, err, apperror.KindInvalidState)

	n, err = f.attempts.Reap(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAttemptService_AdvanceAfterDeadlineExpiresAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	started := f.start(t)

	f.clock.Advance(2 * time.Hour)
	_, err := f.attempts.Advance(ctx, started.Attempt.ID, f.candidate)
	assertKind(t, err, apperror.KindInvalidState)

	stored, err := f.attemptRepo.FindByID(started.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAbandoned, stored.Status)
	assert.Equal(t, model.EndReasonExpired, stored.EndReason)

	count, err := f.resultRepo.CountByAttempt(started.Attempt.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAttemptService_Abandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	started := f.start(t)

	abandoned, err := f.attempts.Abandon(ctx, started.Attempt.ID, f.candidate)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAbandoned, abandoned.Status)
	assert.Equal(t, model.EndReasonAbandoned, abandoned.EndReason)
	assert.NotNil(t, abandoned.AbandonedAt)

	_, err = f.attempts.Abandon(ctx, started.Attempt.ID, f.candidate)
	assertKind(t, err, apperror.KindInvalidState)

	_, err = f.attempts.Start(ctx, f.candidate, f.drive.ID)
	assertKind(t, err, apperror.KindConflict)

	_, err = f.results.GetResult(ctx, started.Attempt.ID, f.candidate)
	assertKind(t, err, apperror.KindInvalidState)
}

func TestAttemptService_OtherCandidateIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	started := f.start(t)
	intruder := Candidate{ID: 99, InstitutionID: 1}

	_, err := f.attempts.GetStatus(ctx, started.Attempt.ID, intruder)
	assertKind(t, err, apperror.KindForbidden)
	_, err = f.attempts.Advance(ctx, started.Attempt.ID, intruder)
	assertKind(t, err, apperror.KindForbidden)
	_, err = f.attempts.Abandon(ctx, started.Attempt.ID, intruder)
	assertKind(t, err, apperror.KindForbidden)
	_, err = f.aptitude.GetQuestions(ctx, started.Attempt.ID, intruder)
	assertKind(t, err, apperror.KindForbidden)

	_, err = f.attempts.GetStatus(ctx, started.Attempt.ID+100, f.candidate)
	assertKind(t, err, apperror.KindNotFound)
}

func TestAttemptService_ProgressionNeverRegresses(t *testing.T) {
	f := newFixture(t)
	f.seedQuestions(t, 10)
	f.seedProblem(t, "Echo", 3, 1, 100)
	f.seedProblem(t, "Sum", 3, 1, 100)
	ctx := context.Background()
	started := f.start(t)
	id := started.Attempt.ID
	assert.Equal(t, scoring.ComponentAptitude, started.ComponentStatus.CurrentComponent)

	var seen []scoring.Component
	observe := func() {
		t.Helper()
		status, err := f.attempts.GetStatus(ctx, id, f.candidate)
		require.NoError(t, err)
		seen = append(seen, status.ComponentStatus.CurrentComponent)
	}

	observe()
	f.answerAptitude(t, id, 5)
	observe()
	p := f.problemByTitle(t, id, "Echo")
	observe()
	_, err := f.coding.Submit(ctx, id, p.ID, f.candidate, codeRequest("pass-0"))
	require.NoError(t, err)
	observe()
	f.finishInterview(t, id)
	observe()

	assert.Equal(t, []scoring.Component{
		scoring.ComponentAptitude,
		scoring.ComponentMachineTest,
		scoring.ComponentMachineTest,
		scoring.ComponentAIInterview,
		scoring.ComponentCompleted,
	}, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i].Rank(), seen[i-1].Rank())
	}
}
