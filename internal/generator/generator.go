package generator

import (
	"context"
	"errors"
)

// ErrUnavailable wraps transport failures of the generation service and replies it
// could not read.
var ErrUnavailable = errors.New("content generation service unavailable")

// QuestionRequest asks for Count aptitude questions. An empty Difficulty means mixed.
type QuestionRequest struct {
	Difficulty string
	Count      int
	JobTitle   string
}

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
	Tags          []string `json:"tags"`
}

// ProblemRequest asks for Count coding problems with reference solutions written in
// Language. An empty Difficulty means mixed.
type ProblemRequest struct {
	Difficulty string
	Count      int
	Language   string
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

type Problem struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Difficulty        string     `json:"difficulty"`
	Tags              []string   `json:"tags"`
	Hints             []string   `json:"hints"`
	TestCases         []TestCase `json:"testCases"`
	ReferenceSolution string     `json:"referenceSolution"`
}

// Generator writes fresh assessment content.
type Generator interface {
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]Question, error)
	GenerateProblems(ctx context.Context, req ProblemRequest) ([]Problem, error)
}
