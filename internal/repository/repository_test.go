package repository

import (
	"testing"
	"time"

	"github.com/lshigami/mockdrive/internal/dbtest"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptRepository_CreateIfAbsent(t *testing.T) {
	repo := NewAttemptRepository(dbtest.New(t))
	now := time.Now().UTC()

	first := &model.MockDriveAttempt{MockDriveID: 1, CandidateID: 9, Status: model.AttemptStatusInProgress, StartedAt: now}
	created, err := repo.CreateIfAbsent(first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &model.MockDriveAttempt{MockDriveID: 1, CandidateID: 9, Status: model.AttemptStatusInProgress, StartedAt: now}
	created, err = repo.CreateIfAbsent(second)
	require.NoError(t, err)
	assert.False(t, created)

	found, err := repo.FindByDriveAndCandidate(1, 9)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestAttemptRepository_TerminalTransitionsAreConditional(t *testing.T) {
	repo := NewAttemptRepository(dbtest.New(t))
	now := time.Now().UTC()

	attempt := &model.MockDriveAttempt{MockDriveID: 1, CandidateID: 1, Status: model.AttemptStatusInProgress, StartedAt: now}
	_, err := repo.CreateIfAbsent(attempt)
	require.NoError(t, err)

	ok, err := repo.Abandon(attempt.ID, now, model.EndReasonExpired)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Complete(attempt.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "an abandoned attempt cannot complete")

	got, err := repo.FindByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAbandoned, got.Status)
	assert.Equal(t, model.EndReasonExpired, got.EndReason)
	assert.Nil(t, got.CompletedAt)
}

func TestAttemptRepository_LinkAptitudeResponseOnce(t *testing.T) {
	repo := NewAttemptRepository(dbtest.New(t))
	attempt := &model.MockDriveAttempt{MockDriveID: 1, CandidateID: 1, Status: model.AttemptStatusInProgress, StartedAt: time.Now().UTC()}
	_, err := repo.CreateIfAbsent(attempt)
	require.NoError(t, err)

	ok, err := repo.LinkAptitudeResponse(attempt.ID, 11)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.LinkAptitudeResponse(attempt.ID, 12)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AptitudeResponseID)
	assert.Equal(t, uint(11), *got.AptitudeResponseID)
}

func TestQuestionRepository_Counters(t *testing.T) {
	repo := NewQuestionRepository(dbtest.New(t))
	qs := []model.EphemeralQuestion{
		{MockDriveID: 1, Text: "q1", CorrectOption: "a", Difficulty: "easy", OrderIndex: 0},
		{MockDriveID: 1, Text: "q2", CorrectOption: "b", Difficulty: "hard", OrderIndex: 1},
	}
	require.NoError(t, repo.CreateBatch(qs))

	stored, err := repo.FindByDrive(1)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	ids := []uint{stored[0].ID, stored[1].ID}

	for range 4 {
		require.NoError(t, repo.IncrementAttempts(ids))
	}
	require.NoError(t, repo.IncrementCorrect([]uint{ids[0]}))

	stored, err = repo.FindByDrive(1)
	require.NoError(t, err)
	assert.Equal(t, 4, stored[0].AttemptCount)
	assert.Equal(t, 1, stored[0].CorrectCount)
	assert.InDelta(t, 0.25, stored[0].SuccessRate, 1e-9)
	assert.Equal(t, 0.0, stored[1].SuccessRate)
}

func TestQuestionRepository_MigrateAndSoftDelete(t *testing.T) {
	repo := NewQuestionRepository(dbtest.New(t))
	require.NoError(t, repo.CreateBatch([]model.EphemeralQuestion{
		{MockDriveID: 3, Text: "keep", CorrectOption: "a", Difficulty: "easy", OrderIndex: 0},
		{MockDriveID: 3, Text: "drop", CorrectOption: "a", Difficulty: "easy", OrderIndex: 1},
	}))
	stored, err := repo.FindByDrive(3)
	require.NoError(t, err)

	ok, err := repo.MarkMigrated(stored[0].ID, 100, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkMigrated(stored[0].ID, 101, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.SoftDelete([]uint{stored[0].ID, stored[1].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "migrated rows are never deleted")

	remaining, err := repo.FindByDrive(3)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].IsMigrated)
}

func TestProblemRepository_RecordOutcome(t *testing.T) {
	repo := NewProblemRepository(dbtest.New(t))
	require.NoError(t, repo.CreateBatch([]model.EphemeralProblem{
		{MockDriveID: 1, Title: "Two Sum", Description: "d", Difficulty: "easy", Points: 100},
	}))
	problems, err := repo.FindByDrive(1)
	require.NoError(t, err)
	id := problems[0].ID

	require.NoError(t, repo.RecordOutcome(id, 1, 0, 0))
	require.NoError(t, repo.RecordOutcome(id, 0, 1, 0))
	require.NoError(t, repo.RecordOutcome(id, 0, 0, 1))
	require.NoError(t, repo.RecordOutcome(id, 1, 0, 0))

	p, err := repo.FindByIDAndDrive(id, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalAttempts)
	assert.Equal(t, 2, p.SolvedCount)
	assert.Equal(t, 1, p.PartialSolveCount)
	assert.Equal(t, 1, p.FailedCount)
	assert.InDelta(t, 0.5, p.SolveRate, 1e-9)

	_, err = repo.FindByIDAndDrive(id, 2)
	assert.Error(t, err)
}

func TestResultRepository_CreateIfAbsent(t *testing.T) {
	repo := NewResultRepository(dbtest.New(t))

	created, err := repo.CreateIfAbsent(&model.MockDriveResult{AttemptID: 5, MockDriveID: 1, CandidateID: 1, TotalScore: 10})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(&model.MockDriveResult{AttemptID: 5, MockDriveID: 1, CandidateID: 1, TotalScore: 99})
	require.NoError(t, err)
	assert.False(t, created)

	n, err := repo.CountByAttempt(5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByAttempt(5)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.TotalScore)
}
