package service

import (
	"context"
	"testing"

	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestions(d *model.MockDrive) {
	onlyAptitude(d)
	d.Aptitude.QuestionCount = 3
}

func TestAptitudeService_MaterializesOnceAndCountsExposure(t *testing.T) {
	f := newFixture(t, threeQuestions)
	f.seedQuestions(t, 5)
	ctx := context.Background()
	id := f.start(t).Attempt.ID

	first, err := f.aptitude.GetQuestions(ctx, id, f.candidate)
	require.NoError(t, err)
	require.Len(t, first.Questions, 3)
	assert.Equal(t, 30, first.DurationMinutes)

	second, err := f.aptitude.GetQuestions(ctx, id, f.candidate)
	require.NoError(t, err)
	assert.Equal(t, first.Questions, second.Questions, "the drawn set is fixed per drive")

	stored, err := f.questionRepo.FindByDrive(f.drive.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, q := range stored {
		assert.Equal(t, 2, q.AttemptCount)
		assert.NotNil(t, q.SourceBankQuestionID)
	}
}

func TestAptitudeService_SubmitScoresAndUpdatesCounters(t *testing.T) {
	f := newFixture(t, threeQuestions)
	f.seedQuestions(t, 3)
	id := f.start(t).Attempt.ID

	res := f.answerAptitude(t, id, 2)
	assert.Equal(t, 2, res.CorrectCount)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 66.67, res.Percentage)
	assert.Equal(t, 3, res.Breakdown.ByDifficulty["medium"].Total)
	assert.Equal(t, 2, res.Breakdown.ByTopic["Quantitative"].Correct)

	stored, err := f.questionRepo.FindByDrive(f.drive.ID)
	require.NoError(t, err)
	correct := 0
	for _, q := range stored {
		assert.Equal(t, 1, q.AttemptCount)
		correct += q.CorrectCount
		assert.InDelta(t, float64(q.CorrectCount), q.SuccessRate, 0.001)
	}
	assert.Equal(t, 2, correct)

	attempt, err := f.attemptRepo.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, attempt.AptitudeResponseID)
	assert.Equal(t, res.ResponseID, *attempt.AptitudeResponseID)
}

func TestAptitudeService_SecondSubmissionConflicts(t *testing.T) {
	f := newFixture(t, threeQuestions)
	f.seedQuestions(t, 3)
	ctx := context.Background()
	id := f.start(t).Attempt.ID
	f.answerAptitude(t, id, 3)

	_, err := f.aptitude.Submit(ctx, id, f.candidate, dto.SubmitAptitudeRequest{})
	assertKind(t, err, apperror.KindConflict)

	_, err = f.aptitude.GetQuestions(ctx, id, f.candidate)
	assertKind(t, err, apperror.KindConflict)

	stored, err := f.questionRepo.FindByDrive(f.drive.ID)
	require.NoError(t, err)
	for _, q := range stored {
		assert.Equal(t, 1, q.CorrectCount, "a rejected submission is not scored")
	}
}

func TestAptitudeService_RejectsForeignQuestion(t *testing.T) {
	f := newFixture(t, threeQuestions)
	f.seedQuestions(t, 3)
	id := f.start(t).Attempt.ID

	_, err := f.aptitude.Submit(context.Background(), id, f.candidate, dto.SubmitAptitudeRequest{
		Answers: []dto.AptitudeAnswerDTO{{QuestionID: 9999, SelectedOption: "second"}},
	})
	assertKind(t, err, apperror.KindInvalidState)

	attempt, err := f.attemptRepo.FindByID(id)
	require.NoError(t, err)
	assert.Nil(t, attempt.AptitudeResponseID)
}

func TestAptitudeService_EmptyBank(t *testing.T) {
	f := newFixture(t, threeQuestions)
	id := f.start(t).Attempt.ID

	_, err := f.aptitude.GetQuestions(context.Background(), id, f.candidate)
	assertKind(t, err, apperror.KindInvalidState)
}

func TestAptitudeService_DisabledComponent(t *testing.T) {
	f := newFixture(t, onlyInterview)
	id := f.start(t).Attempt.ID

	_, err := f.aptitude.GetQuestions(context.Background(), id, f.candidate)
	assertKind(t, err, apperror.KindInvalidState)
}
