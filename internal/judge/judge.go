package judge

import (
	"context"
	"errors"

	"github.com/lshigami/mockdrive/internal/scoring"
)

// ErrUnavailable is returned when the sandbox could not produce a verdict.
var ErrUnavailable = errors.New("code execution service unavailable")

// Limits bounds a single run.
type Limits struct {
	CPUTimeSeconds float64
	MemoryKB       int
}

// Request is one test case execution.
type Request struct {
	SourceCode     string
	LanguageID     int
	Stdin          string
	ExpectedOutput string
	Limits         Limits
}

// Result is the terminal state of one execution.
type Result struct {
	Outcome       scoring.CaseOutcome
	Stdout        string
	Stderr        string
	CompileOutput string
	Time          string
	MemoryKB      int
}

// Executor runs code in a remote sandbox. Implementations poll until the run is
// terminal and return ErrUnavailable (wrapped) when they give up.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}
