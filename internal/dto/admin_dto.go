package dto

type MigrateContentRequest struct {
	DryRun              bool     `json:"dry_run"`
	MinQuality          *float64 `json:"min_quality" binding:"omitempty,gte=0,lte=1"`
	MinQuestionAttempts *int     `json:"min_question_attempts" binding:"omitempty,gte=0"`
	MinProblemAttempts  *int     `json:"min_problem_attempts" binding:"omitempty,gte=0"`
}

type CleanupContentRequest struct {
	PreserveHighQuality bool `json:"preserve_high_quality"`
}

type SkippedItemDTO struct {
	Kind    string  `json:"kind"` // "question", "problem"
	ID      uint    `json:"id"`
	Reason  string  `json:"reason"`
	Quality float64 `json:"quality"`
}

type MigrationReportResponse struct {
	RunID              string           `json:"run_id"`
	MockDriveID        uint             `json:"mock_drive_id"`
	DryRun             bool             `json:"dry_run"`
	QuestionsEvaluated int              `json:"questions_evaluated"`
	QuestionsMigrated  int              `json:"questions_migrated"`
	ProblemsEvaluated  int              `json:"problems_evaluated"`
	ProblemsMigrated   int              `json:"problems_migrated"`
	Skipped            []SkippedItemDTO `json:"skipped"`
}

type CleanupReportResponse struct {
	MockDriveID      uint `json:"mock_drive_id"`
	QuestionsDeleted int  `json:"questions_deleted"`
	ProblemsDeleted  int  `json:"problems_deleted"`
	QuestionsKept    int  `json:"questions_kept"`
	ProblemsKept     int  `json:"problems_kept"`
}
