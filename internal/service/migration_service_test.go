package service

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainQuestion = "A train 120 m long passes a pole in 6 seconds. What is its speed in km/h?"

func ephemeralQuestion(driveID uint, order int, text string, attempts, correct int) model.EphemeralQuestion {
	return model.EphemeralQuestion{
		MockDriveID:   driveID,
		Text:          text,
		Options:       []string{"60", "72", "80", "90"},
		CorrectOption: "72",
		Explanation:   "Speed = 120/6 = 20 m/s, and 20 m/s * 18/5 = 72 km/h.",
		Difficulty:    scoring.DifficultyMedium,
		Tags:          []string{"Speed and Distance"},
		OrderIndex:    order,
		AttemptCount:  attempts,
		CorrectCount:  correct,
	}
}

func ephemeralProblem(driveID uint, order int, title string, validated bool) model.EphemeralProblem {
	return model.EphemeralProblem{
		MockDriveID: driveID,
		Title:       title,
		Description: "Given an array of integers and a target, print the indices of the two numbers that add up to the target.",
		Difficulty:  scoring.DifficultyEasy,
		Hints:       []string{"Use a hash map"},
		TestCases: []model.TestCase{
			{Input: "1", ExpectedOutput: "1"},
			{Input: "2", ExpectedOutput: "2"},
			{Input: "3", ExpectedOutput: "3", IsHidden: true},
			{Input: "4", ExpectedOutput: "4", IsHidden: true},
		},
		TestCasesValidated: validated,
		Points:             100,
		OrderIndex:         order,
		TotalAttempts:      40,
		SolvedCount:        24,
	}
}

func skippedReasons(report *dto.MigrationReportResponse) map[uint]string {
	reasons := make(map[uint]string, len(report.Skipped))
	for _, s := range report.Skipped {
		reasons[s.ID] = s.Reason
	}
	return reasons
}

func TestMigrationService_QualityGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	drawnFrom := uint(77)

	questions := []model.EphemeralQuestion{
		ephemeralQuestion(f.drive.ID, 0, trainQuestion, 50, 25),
		ephemeralQuestion(f.drive.ID, 1, "A shopkeeper sells an article at a 20% profit. If the cost is 250, what is the selling price?", 5, 2),
		ephemeralQuestion(f.drive.ID, 2, "What is the next number in the series 2, 6, 12, 20, 30?", 50, 48),
		ephemeralQuestion(f.drive.ID, 3, trainQuestion, 50, 25),
		ephemeralQuestion(f.drive.ID, 4, "Which of the following numbers is divisible by both 3 and 4?", 60, 30),
	}
	questions[4].SourceBankQuestionID = &drawnFrom
	require.NoError(t, f.questionRepo.CreateBatch(questions))

	problems := []model.EphemeralProblem{
		ephemeralProblem(f.drive.ID, 0, "Two Sum", true),
		ephemeralProblem(f.drive.ID, 1, "Unvalidated Sum", false),
	}
	require.NoError(t, f.problemRepo.CreateBatch(problems))

	_, err := f.migration.Migrate(ctx, f.drive.ID, f.migration.Defaults(), false)
	assertKind(t, err, apperror.KindInvalidState)

	f.clock.Advance(9 * time.Hour)
	report, err := f.migration.Migrate(ctx, f.drive.ID, f.migration.Defaults(), false)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 5, report.QuestionsEvaluated)
	assert.Equal(t, 1, report.QuestionsMigrated)
	assert.Equal(t, 2, report.ProblemsEvaluated)
	assert.Equal(t, 1, report.ProblemsMigrated)

	reasons := skippedReasons(report)
	assert.Equal(t, skipFewAttempts, reasons[questions[1].ID])
	assert.Equal(t, skipLowQuality, reasons[questions[2].ID])
	assert.Equal(t, skipDuplicate, reasons[questions[3].ID])
	assert.Equal(t, skipInBank, reasons[questions[4].ID])
	assert.Equal(t, skipLowQuality, reasons[problems[1].ID])

	stored, err := f.questionRepo.FindByDrive(f.drive.ID)
	require.NoError(t, err)
	require.Len(t, stored, 5, "migration never deletes its sources")
	assert.True(t, stored[0].IsMigrated)
	require.NotNil(t, stored[0].MigratedToID)
	assert.Equal(t, 50, stored[0].AttemptCount)
	assert.Equal(t, 25, stored[0].CorrectCount)
	for _, q := range stored[1:] {
		assert.False(t, q.IsMigrated)
	}

	texts, err := f.bankRepo.QuestionTexts()
	require.NoError(t, err)
	assert.Equal(t, []string{trainQuestion}, texts)
	titles, err := f.bankRepo.ProblemTitles()
	require.NoError(t, err)
	assert.Equal(t, []string{"Two Sum"}, titles)

	again, err := f.migration.Migrate(ctx, f.drive.ID, f.migration.Defaults(), false)
	require.NoError(t, err)
	assert.Equal(t, 4, again.QuestionsEvaluated)
	assert.Zero(t, again.QuestionsMigrated)
}

func TestMigrationService_LowSampleIsSkippedRegardlessOfRate(t *testing.T) {
	f := newFixture(t, func(d *model.MockDrive) { d.Status = model.DriveStatusCompleted })
	q := ephemeralQuestion(f.drive.ID, 0, trainQuestion, 5, 2)
	require.NoError(t, f.questionRepo.CreateBatch([]model.EphemeralQuestion{q}))

	report, err := f.migration.Migrate(context.Background(), f.drive.ID, f.migration.Defaults(), false)
	require.NoError(t, err)
	assert.Zero(t, report.QuestionsMigrated)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, skipFewAttempts, report.Skipped[0].Reason)
	assert.Equal(t, 1.0, report.Skipped[0].Quality, "the sample rule applies even to a perfect score")
}

func TestMigrationService_BalancedQuestionOutranksEasyOne(t *testing.T) {
	balanced := scoring.QuestionQuality(questionStats(&model.EphemeralQuestion{
		Text: trainQuestion, Options: []string{"60", "72"}, Explanation: "Speed = 120/6 = 20 m/s, which is 72 km/h.", AttemptCount: 50, CorrectCount: 25,
	}))
	easy := scoring.QuestionQuality(questionStats(&model.EphemeralQuestion{
		Text: trainQuestion, Options: []string{"60", "72"}, Explanation: "Speed = 120/6 = 20 m/s, which is 72 km/h.", AttemptCount: 50, CorrectCount: 48,
	}))
	assert.Greater(t, balanced, easy)
}

func TestMigrationService_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t, func(d *model.MockDrive) { d.Status = model.DriveStatusCompleted })
	require.NoError(t, f.questionRepo.CreateBatch([]model.EphemeralQuestion{
		ephemeralQuestion(f.drive.ID, 0, trainQuestion, 50, 25),
	}))

	report, err := f.migration.Migrate(context.Background(), f.drive.ID, f.migration.Defaults(), true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.QuestionsMigrated)

	texts, err := f.bankRepo.QuestionTexts()
	require.NoError(t, err)
	assert.Empty(t, texts)
	unmigrated, err := f.questionRepo.FindUnmigratedByDrive(f.drive.ID)
	require.NoError(t, err)
	assert.Len(t, unmigrated, 1)
}

func TestMigrationService_Cleanup(t *testing.T) {
	f := newFixture(t, func(d *model.MockDrive) { d.Status = model.DriveStatusCompleted })
	ctx := context.Background()
	questions := []model.EphemeralQuestion{
		ephemeralQuestion(f.drive.ID, 0, trainQuestion, 50, 25),
		ephemeralQuestion(f.drive.ID, 1, "A shopkeeper sells an article at a 20% profit. If the cost is 250, what is the selling price?", 5, 3),
		ephemeralQuestion(f.drive.ID, 2, "What is the next number in the series 2, 6, 12, 20, 30?", 50, 48),
	}
	require.NoError(t, f.questionRepo.CreateBatch(questions))

	report, err := f.migration.Cleanup(ctx, f.drive.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.QuestionsDeleted, "only the extreme question goes when high quality is preserved")
	assert.Equal(t, 2, report.QuestionsKept)

	report, err = f.migration.Cleanup(ctx, f.drive.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.QuestionsDeleted)
	assert.Equal(t, 1, report.QuestionsKept)

	left, err := f.questionRepo.FindByDrive(f.drive.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, questions[0].ID, left[0].ID)
}

func TestMigrationService_RequiresFinishedDrive(t *testing.T) {
	f := newFixture(t)

	_, err := f.migration.Cleanup(context.Background(), f.drive.ID, false)
	assertKind(t, err, apperror.KindInvalidState)
	_, err = f.migration.Migrate(context.Background(), f.drive.ID+1, f.migration.Defaults(), true)
	assertKind(t, err, apperror.KindNotFound)
}
