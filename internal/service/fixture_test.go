package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/mockdrive/config"
	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dbtest"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/interview"
	"github.com/lshigami/mockdrive/internal/judge"
	"github.com/lshigami/mockdrive/internal/model"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/retry"
	"github.com/lshigami/mockdrive/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeExecutor passes the test cases whose stdin index is below N for source "pass-N".
type fakeExecutor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *fakeExecutor) Execute(_ context.Context, req judge.Request) (*judge.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if req.SourceCode == "compile-error" {
		return &judge.Result{Outcome: scoring.CaseCompileError, CompileOutput: "main.go:1: syntax error"}, nil
	}

	var passing int
	_, _ = fmt.Sscanf(req.SourceCode, "pass-%d", &passing)
	idx, _ := strconv.Atoi(req.Stdin)
	if idx < passing {
		return &judge.Result{Outcome: scoring.CasePassed, Stdout: req.ExpectedOutput, Time: "0.01", MemoryKB: 1024}, nil
	}
	return &judge.Result{Outcome: scoring.CaseWrongAnswer, Stdout: "wrong", Time: "0.01", MemoryKB: 1024}, nil
}

type fakeInterviewer struct {
	mu          sync.Mutex
	questions   int
	started     int
	answered    map[string]int
	feedback    *interview.Feedback
	feedbackErr error
}

func newFakeInterviewer() *fakeInterviewer {
	return &fakeInterviewer{
		questions: 2,
		answered:  make(map[string]int),
		feedback: &interview.Feedback{
			OverallScore:        80,
			KeyStrengths:        []string{"Structured answers"},
			AreasForImprovement: []string{"Discuss trade-offs in more depth"},
		},
	}
}

func (f *fakeInterviewer) StartSession(_ context.Context, _ interview.StartRequest) (*interview.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	id := fmt.Sprintf("session-%d", f.started)
	f.answered[id] = 0
	return &interview.Session{ID: id, FirstQuestion: "Tell me about a project you are proud of.", QuestionCount: f.questions}, nil
}

func (f *fakeInterviewer) SubmitAnswer(_ context.Context, sessionID string, _ uint, _ string) (*interview.AnswerAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.answered[sessionID]
	if !ok {
		return nil, interview.ErrSessionNotFound
	}
	if n >= f.questions {
		return nil, interview.ErrSessionCompleted
	}
	n++
	f.answered[sessionID] = n
	if n >= f.questions {
		return &interview.AnswerAck{AnsweredCount: n, Completed: true}, nil
	}
	return &interview.AnswerAck{AnsweredCount: n, NextQuestion: fmt.Sprintf("Question %d?", n+1)}, nil
}

func (f *fakeInterviewer) GetFeedback(_ context.Context, sessionID string, _ uint) (*interview.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.answered[sessionID]
	if !ok {
		return nil, interview.ErrSessionNotFound
	}
	if n < f.questions {
		return nil, interview.ErrNoFeedback
	}
	if f.feedbackErr != nil {
		return nil, f.feedbackErr
	}
	if f.feedback == nil {
		return nil, interview.ErrNoFeedback
	}
	fb := *f.feedback
	return &fb, nil
}

// forget drops every session, as a restarted interview service would.
func (f *fakeInterviewer) forget() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = make(map[string]int)
}

type fixture struct {
	db          *gorm.DB
	cfg         *config.Config
	clock       *fakeClock
	drive       *model.MockDrive
	candidate   Candidate
	executor    *fakeExecutor
	interviewer *fakeInterviewer

	driveRepo      repository.MockDriveRepository
	attemptRepo    repository.AttemptRepository
	questionRepo   repository.QuestionRepository
	problemRepo    repository.ProblemRepository
	bankRepo       repository.BankRepository
	submissionRepo repository.SubmissionRepository
	interviewRepo  repository.InterviewRepository
	resultRepo     repository.ResultRepository

	attempts   AttemptService
	aptitude   AptitudeService
	coding     CodingService
	interviews InterviewService
	results    ResultService
	migration  MigrationService
}

// newFixture builds every service over a fresh database with one published drive that
// runs all three components. configure may adjust the drive before it is stored.
func newFixture(t *testing.T, configure ...func(*model.MockDrive)) *fixture {
	t.Helper()
	db := dbtest.New(t)

	f := &fixture{
		db: db,
		cfg: &config.Config{
			Judge:  config.Judge{CPUTimeLimit: 2, MemoryKB: 128000},
			Reaper: config.Reaper{Interval: 10 * time.Millisecond},
			Migration: config.Migration{
				MinQuality:          0.7,
				MinQuestionAttempts: 10,
				MinProblemAttempts:  5,
				SimilarityThreshold: 0.85,
			},
		},
		clock:       &fakeClock{now: t0},
		candidate:   Candidate{ID: 42, InstitutionID: 1},
		executor:    &fakeExecutor{},
		interviewer: newFakeInterviewer(),

		driveRepo:      repository.NewMockDriveRepository(db),
		attemptRepo:    repository.NewAttemptRepository(db),
		questionRepo:   repository.NewQuestionRepository(db),
		problemRepo:    repository.NewProblemRepository(db),
		bankRepo:       repository.NewBankRepository(db),
		submissionRepo: repository.NewSubmissionRepository(db),
		interviewRepo:  repository.NewInterviewRepository(db),
		resultRepo:     repository.NewResultRepository(db),
	}

	f.useSources(NewBankQuestionSource(f.bankRepo), NewBankProblemSource(f.bankRepo))

	drive := &model.MockDrive{
		InstitutionID:   1,
		Title:           "Spring placement drive",
		Status:          model.DriveStatusPublished,
		DriveStart:      t0.Add(-time.Hour),
		DriveEnd:        t0.Add(8 * time.Hour),
		DurationMinutes: 90,
		Aptitude:        model.AptitudeConfig{Enabled: true, QuestionCount: 10, DurationMinutes: 30},
		MachineTest:     model.MachineTestConfig{Enabled: true, ProblemCount: 2, DurationMinutes: 45},
		Interview:       model.InterviewConfig{Enabled: true, JobTitle: "Backend Engineer", CompanyName: "Acme", DurationMinutes: 15},
	}
	for _, fn := range configure {
		fn(drive)
	}
	require.NoError(t, f.driveRepo.Create(drive))
	f.drive = drive
	return f
}

// useSources rebuilds every service over the fixture's stores with the given content sources.
func (f *fixture) useSources(questions QuestionSource, problems ProblemSource) {
	fastRetry := retry.Config{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
	guard := NewAttemptGuard(f.attemptRepo, f.submissionRepo, f.interviewRepo, f.clock)
	f.aptitude = NewAptitudeService(f.db, guard, f.questionRepo, f.submissionRepo, f.attemptRepo, questions)
	f.coding = NewCodingService(f.db, guard, f.problemRepo, f.submissionRepo, f.attemptRepo, problems, f.executor, f.cfg, f.clock)
	f.interviews = NewInterviewService(f.db, guard, f.interviewRepo, f.attemptRepo, f.interviewer, fastRetry, f.clock)
	f.results = NewResultService(f.db, f.attemptRepo, f.resultRepo, guard, f.aptitude, f.coding, f.interviews, f.clock)
	f.attempts = NewAttemptService(f.driveRepo, f.attemptRepo, guard, f.results, f.clock)
	f.migration = NewMigrationService(f.db, f.driveRepo, f.questionRepo, f.problemRepo, f.bankRepo, f.cfg, f.clock)
}

func onlyInterview(d *model.MockDrive) {
	d.Aptitude.Enabled = false
	d.MachineTest.Enabled = false
}

func onlyAptitude(d *model.MockDrive) {
	d.MachineTest.Enabled = false
	d.Interview.Enabled = false
}

func onlyMachineTest(d *model.MockDrive) {
	d.Aptitude.Enabled = false
	d.Interview.Enabled = false
}

// register gives candidateID an eligible registration in a batch that is open at t0.
func (f *fixture) register(t *testing.T, candidateID uint) {
	t.Helper()
	batch := &model.Batch{MockDriveID: f.drive.ID, Name: fmt.Sprintf("Batch %d", candidateID), StartTime: t0.Add(-time.Hour), EndTime: t0.Add(4 * time.Hour)}
	require.NoError(t, f.driveRepo.CreateBatch(batch))
	require.NoError(t, f.driveRepo.CreateRegistration(&model.Registration{
		MockDriveID: f.drive.ID,
		CandidateID: candidateID,
		Status:      model.RegistrationStatusRegistered,
		IsEligible:  true,
		BatchID:     &batch.ID,
	}))
}

func (f *fixture) start(t *testing.T) *dto.StartAttemptResponse {
	t.Helper()
	f.register(t, f.candidate.ID)
	resp, err := f.attempts.Start(context.Background(), f.candidate, f.drive.ID)
	require.NoError(t, err)
	return resp
}

func (f *fixture) seedQuestions(t *testing.T, n int) {
	t.Helper()
	for i := range n {
		require.NoError(t, f.bankRepo.CreateQuestion(&model.BankQuestion{
			Text:          fmt.Sprintf("Bank question %d: pick the second option", i),
			Options:       []string{"first", "second", "third", "fourth"},
			CorrectOption: "second",
			Difficulty:    scoring.DifficultyMedium,
			Tags:          []string{"Quantitative"},
		}))
	}
}

// seedProblem stores a bank problem whose test case inputs are "0".."cases-1"; the
// last hidden cases are marked hidden.
func (f *fixture) seedProblem(t *testing.T, title string, cases, hidden int, points float64) {
	t.Helper()
	tcs := make([]model.TestCase, 0, cases)
	for i := range cases {
		tcs = append(tcs, model.TestCase{
			Input:          strconv.Itoa(i),
			ExpectedOutput: fmt.Sprintf("out-%d", i),
			IsHidden:       i >= cases-hidden,
		})
	}
	require.NoError(t, f.bankRepo.CreateProblem(&model.BankProblem{
		Title:              title,
		Description:        "Read the input and print the expected output for every test case.",
		Difficulty:         scoring.DifficultyEasy,
		TestCases:          tcs,
		TestCasesValidated: true,
		Points:             points,
	}))
}

// answerAptitude renders the test and answers the first `correct` questions correctly.
func (f *fixture) answerAptitude(t *testing.T, attemptID uint, correct int) *dto.AptitudeResultResponse {
	t.Helper()
	ctx := context.Background()
	test, err := f.aptitude.GetQuestions(ctx, attemptID, f.candidate)
	require.NoError(t, err)

	stored, err := f.questionRepo.FindByDrive(f.drive.ID)
	require.NoError(t, err)
	correctByID := make(map[uint]string, len(stored))
	for _, q := range stored {
		correctByID[q.ID] = q.CorrectOption
	}

	req := dto.SubmitAptitudeRequest{}
	for i, q := range test.Questions {
		selected := "none of these"
		if i < correct {
			selected = correctByID[q.ID]
		}
		req.Answers = append(req.Answers, dto.AptitudeAnswerDTO{QuestionID: q.ID, SelectedOption: selected})
	}
	res, err := f.aptitude.Submit(ctx, attemptID, f.candidate, req)
	require.NoError(t, err)
	return res
}

func (f *fixture) finishInterview(t *testing.T, attemptID uint) *dto.InterviewSessionResponse {
	t.Helper()
	ctx := context.Background()
	_, err := f.interviews.Start(ctx, attemptID, f.candidate, dto.StartInterviewRequest{})
	require.NoError(t, err)

	var last *dto.InterviewSessionResponse
	for i := 0; i < f.interviewer.questions; i++ {
		last, err = f.interviews.SubmitAnswer(ctx, attemptID, f.candidate, dto.SubmitInterviewAnswerRequest{Answer: fmt.Sprintf("answer %d", i)})
		require.NoError(t, err)
	}
	return last
}

func (f *fixture) problemByTitle(t *testing.T, attemptID uint, title string) dto.ProblemDTO {
	t.Helper()
	resp, err := f.coding.GetProblems(context.Background(), attemptID, f.candidate)
	require.NoError(t, err)
	for _, p := range resp.Problems {
		if p.Title == title {
			return p
		}
	}
	t.Fatalf("problem %q not found", title)
	return dto.ProblemDTO{}
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}
