package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lshigami/mockdrive/config"
	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	kindQuestion = "question"
	kindProblem  = "problem"

	skipInBank          = "already in bank"
	skipFewAttempts     = "insufficient attempts"
	skipLowQuality      = "quality below threshold"
	skipDuplicate       = "duplicate of a bank item"
	skipAlreadyMigrated = "already migrated"
)

// Thresholds gate which ephemeral items are promoted to the bank.
type Thresholds struct {
	MinQuality          float64
	MinQuestionAttempts int
	MinProblemAttempts  int
	Similarity          float64
}

func DefaultThresholds(cfg *config.Config) Thresholds {
	return Thresholds{
		MinQuality:          cfg.Migration.MinQuality,
		MinQuestionAttempts: cfg.Migration.MinQuestionAttempts,
		MinProblemAttempts:  cfg.Migration.MinProblemAttempts,
		Similarity:          cfg.Migration.SimilarityThreshold,
	}
}

type MigrationService interface {
	// Migrate copies good ephemeral content of a finished drive into the permanent bank.
	// Sources are flagged migrated, never deleted. A dry run only reports.
	Migrate(ctx context.Context, driveID uint, th Thresholds, dryRun bool) (*dto.MigrationReportResponse, error)
	// Cleanup soft-deletes un-migrated content with too little data or an extreme rate.
	Cleanup(ctx context.Context, driveID uint, preserveHighQuality bool) (*dto.CleanupReportResponse, error)
	Defaults() Thresholds
}

type migrationService struct {
	db           *gorm.DB
	driveRepo    repository.MockDriveRepository
	questionRepo repository.QuestionRepository
	problemRepo  repository.ProblemRepository
	bankRepo     repository.BankRepository
	defaults     Thresholds
	clock        Clock
}

func NewMigrationService(
	db *gorm.DB,
	driveRepo repository.MockDriveRepository,
	questionRepo repository.QuestionRepository,
	problemRepo repository.ProblemRepository,
	bankRepo repository.BankRepository,
	cfg *config.Config,
	clock Clock,
) MigrationService {
	return &migrationService{
		db:           db,
		driveRepo:    driveRepo,
		questionRepo: questionRepo,
		problemRepo:  problemRepo,
		bankRepo:     bankRepo,
		defaults:     DefaultThresholds(cfg),
		clock:        clock,
	}
}

var errMigratedElsewhere = errors.New("item was migrated by another run")

func (s *migrationService) Defaults() Thresholds {
	return s.defaults
}

func (s *migrationService) Migrate(ctx context.Context, driveID uint, th Thresholds, dryRun bool) (*dto.MigrationReportResponse, error) {
	drive, err := s.finishedDrive(driveID)
	if err != nil {
		return nil, err
	}

	report := &dto.MigrationReportResponse{
		RunID:       uuid.NewString(),
		MockDriveID: drive.ID,
		DryRun:      dryRun,
		Skipped:     []dto.SkippedItemDTO{},
	}
	logger := log.With().Str("runID", report.RunID).Uint("driveID", drive.ID).Bool("dryRun", dryRun).Logger()

	if err := s.migrateQuestions(ctx, drive, th, report); err != nil {
		logger.Error().Err(err).Msg("Question migration failed")
		return nil, apperror.Internal(err, "question migration failed for mock drive %d", drive.ID)
	}
	if err := s.migrateProblems(ctx, drive, th, report); err != nil {
		logger.Error().Err(err).Msg("Problem migration failed")
		return nil, apperror.Internal(err, "problem migration failed for mock drive %d", drive.ID)
	}

	for _, skipped := range report.Skipped {
		logger.Info().
			Str("kind", skipped.Kind).
			Uint("id", skipped.ID).
			Str("reason", skipped.Reason).
			Float64("quality", skipped.Quality).
			Msg("Content skipped")
	}
	logger.Info().
		Int("questionsEvaluated", report.QuestionsEvaluated).
		Int("questionsMigrated", report.QuestionsMigrated).
		Int("problemsEvaluated", report.ProblemsEvaluated).
		Int("problemsMigrated", report.ProblemsMigrated).
		Msg("Content migration finished")
	return report, nil
}

func (s *migrationService) migrateQuestions(ctx context.Context, drive *model.MockDrive, th Thresholds, report *dto.MigrationReportResponse) error {
	questions, err := s.questionRepo.FindUnmigratedByDrive(drive.ID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	bankTexts, err := s.bankRepo.QuestionTexts()
	if err != nil {
		return fmt.Errorf("load bank questions: %w", err)
	}
	for i := range bankTexts {
		bankTexts[i] = scoring.NormalizeText(bankTexts[i])
	}

	for i := range questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := &questions[i]
		report.QuestionsEvaluated++

		quality := scoring.QuestionQuality(questionStats(q))
		skip := func(reason string) {
			report.Skipped = append(report.Skipped, dto.SkippedItemDTO{Kind: kindQuestion, ID: q.ID, Reason: reason, Quality: quality})
		}
		switch {
		case q.SourceBankQuestionID != nil:
			skip(skipInBank)
			continue
		case q.AttemptCount < th.MinQuestionAttempts:
			skip(skipFewAttempts)
			continue
		case quality < th.MinQuality:
			skip(skipLowQuality)
			continue
		}
		text := scoring.NormalizeText(q.Text)
		if scoring.FindDuplicate(text, bankTexts, th.Similarity) >= 0 {
			skip(skipDuplicate)
			continue
		}

		if !report.DryRun {
			err := s.db.Transaction(func(tx *gorm.DB) error {
				banked := &model.BankQuestion{
					Text:              q.Text,
					Options:           append([]string{}, q.Options...),
					CorrectOption:     q.CorrectOption,
					Explanation:       q.Explanation,
					Difficulty:        scoring.NormalizeDifficulty(q.Difficulty),
					Topic:             scoring.TopicFor(q.Difficulty, q.Tags),
					Tags:              append([]string{}, q.Tags...),
					QualityScore:      quality,
					SourceEphemeralID: &q.ID,
					SourceDriveID:     &drive.ID,
				}
				if err := s.bankRepo.WithTx(tx).CreateQuestion(banked); err != nil {
					return err
				}
				ok, err := s.questionRepo.WithTx(tx).MarkMigrated(q.ID, banked.ID, s.clock.Now())
				if err != nil {
					return err
				}
				if !ok {
					return errMigratedElsewhere
				}
				return nil
			})
			if errors.Is(err, errMigratedElsewhere) {
				skip(skipAlreadyMigrated)
				continue
			}
			if err != nil {
				return fmt.Errorf("migrate question %d: %w", q.ID, err)
			}
		}
		bankTexts = append(bankTexts, text)
		report.QuestionsMigrated++
	}
	return nil
}

func (s *migrationService) migrateProblems(ctx context.Context, drive *model.MockDrive, th Thresholds, report *dto.MigrationReportResponse) error {
	problems, err := s.problemRepo.FindUnmigratedByDrive(drive.ID)
	if err != nil {
		return fmt.Errorf("load problems: %w", err)
	}
	bankTitles, err := s.bankRepo.ProblemTitles()
	if err != nil {
		return fmt.Errorf("load bank problems: %w", err)
	}
	for i := range bankTitles {
		bankTitles[i] = scoring.NormalizeText(bankTitles[i])
	}

	for i := range problems {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := &problems[i]
		report.ProblemsEvaluated++

		quality := scoring.ProblemQuality(problemStats(p))
		skip := func(reason string) {
			report.Skipped = append(report.Skipped, dto.SkippedItemDTO{Kind: kindProblem, ID: p.ID, Reason: reason, Quality: quality})
		}
		switch {
		case p.SourceBankProblemID != nil:
			skip(skipInBank)
			continue
		case p.TotalAttempts < th.MinProblemAttempts:
			skip(skipFewAttempts)
			continue
		case quality < th.MinQuality:
			skip(skipLowQuality)
			continue
		}
		title := scoring.NormalizeText(p.Title)
		if scoring.FindDuplicate(title, bankTitles, th.Similarity) >= 0 {
			skip(skipDuplicate)
			continue
		}

		if !report.DryRun {
			err := s.db.Transaction(func(tx *gorm.DB) error {
				banked := &model.BankProblem{
					Title:              p.Title,
					Description:        p.Description,
					Difficulty:         scoring.NormalizeDifficulty(p.Difficulty),
					Topic:              scoring.TopicFor(p.Difficulty, p.Tags),
					Tags:               append([]string{}, p.Tags...),
					Hints:              append([]string{}, p.Hints...),
					TestCases:          append([]model.TestCase{}, p.TestCases...),
					TestCasesValidated: p.TestCasesValidated,
					Points:             p.Points,
					QualityScore:       quality,
					SourceEphemeralID:  &p.ID,
					SourceDriveID:      &drive.ID,
				}
				if err := s.bankRepo.WithTx(tx).CreateProblem(banked); err != nil {
					return err
				}
				ok, err := s.problemRepo.WithTx(tx).MarkMigrated(p.ID, banked.ID, s.clock.Now())
				if err != nil {
					return err
				}
				if !ok {
					return errMigratedElsewhere
				}
				return nil
			})
			if errors.Is(err, errMigratedElsewhere) {
				skip(skipAlreadyMigrated)
				continue
			}
			if err != nil {
				return fmt.Errorf("migrate problem %d: %w", p.ID, err)
			}
		}
		bankTitles = append(bankTitles, title)
		report.ProblemsMigrated++
	}
	return nil
}

func (s *migrationService) Cleanup(ctx context.Context, driveID uint, preserveHighQuality bool) (*dto.CleanupReportResponse, error) {
	drive, err := s.finishedDrive(driveID)
	if err != nil {
		return nil, err
	}
	th := s.defaults

	questions, err := s.questionRepo.FindUnmigratedByDrive(drive.ID)
	if err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Cleanup: failed to load questions")
		return nil, apperror.Internal(err, "failed to load questions")
	}
	problems, err := s.problemRepo.FindUnmigratedByDrive(drive.ID)
	if err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Cleanup: failed to load problems")
		return nil, apperror.Internal(err, "failed to load problems")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var questionIDs, problemIDs []uint
	for i := range questions {
		q := &questions[i]
		stats := questionStats(q)
		worthless := q.AttemptCount < th.MinQuestionAttempts || scoring.IsExtremeQuestionRate(stats.SuccessRate())
		if worthless && !(preserveHighQuality && scoring.QuestionQuality(stats) >= th.MinQuality) {
			questionIDs = append(questionIDs, q.ID)
		}
	}
	for i := range problems {
		p := &problems[i]
		stats := problemStats(p)
		worthless := p.TotalAttempts < th.MinProblemAttempts || scoring.IsExtremeProblemRate(stats.SolveRate())
		if worthless && !(preserveHighQuality && scoring.ProblemQuality(stats) >= th.MinQuality) {
			problemIDs = append(problemIDs, p.ID)
		}
	}

	var questionsDeleted, problemsDeleted int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if questionsDeleted, err = s.questionRepo.WithTx(tx).SoftDelete(questionIDs); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if problemsDeleted, err = s.problemRepo.WithTx(tx).SoftDelete(problemIDs); err != nil {
			return fmt.Errorf("delete problems: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Uint("driveID", drive.ID).Msg("Cleanup: transaction failed")
		return nil, apperror.Internal(err, "failed to clean up content of mock drive %d", drive.ID)
	}

	report := &dto.CleanupReportResponse{
		MockDriveID:      drive.ID,
		QuestionsDeleted: int(questionsDeleted),
		ProblemsDeleted:  int(problemsDeleted),
		QuestionsKept:    len(questions) - int(questionsDeleted),
		ProblemsKept:     len(problems) - int(problemsDeleted),
	}
	log.Info().
		Uint("driveID", drive.ID).
		Bool("preserveHighQuality", preserveHighQuality).
		Int("questionsDeleted", report.QuestionsDeleted).
		Int("problemsDeleted", report.ProblemsDeleted).
		Msg("Content cleanup finished")
	return report, nil
}

// finishedDrive loads a drive that no longer admits candidates.
func (s *migrationService) finishedDrive(driveID uint) (*model.MockDrive, error) {
	drive, err := s.driveRepo.FindByID(driveID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Uint("driveID", driveID).Msg("Failed to load mock drive")
		}
		return nil, lookupErr(err, "mock drive", driveID)
	}
	if !drive.IsOver(s.clock.Now()) {
		return nil, apperror.InvalidState("mock drive %d is still open to candidates", driveID)
	}
	return drive, nil
}

func questionStats(q *model.EphemeralQuestion) scoring.QuestionStats {
	return scoring.QuestionStats{
		Text:         q.Text,
		Options:      q.Options,
		Explanation:  q.Explanation,
		AttemptCount: q.AttemptCount,
		CorrectCount: q.CorrectCount,
	}
}

func problemStats(p *model.EphemeralProblem) scoring.ProblemStats {
	return scoring.ProblemStats{
		Title:           p.Title,
		Description:     p.Description,
		Difficulty:      p.Difficulty,
		Hints:           p.Hints,
		TestCases:       len(p.TestCases),
		HiddenTestCases: model.HiddenCount(p.TestCases),
		Validated:       p.TestCasesValidated,
		TotalAttempts:   p.TotalAttempts,
		SolvedCount:     p.SolvedCount,
	}
}
