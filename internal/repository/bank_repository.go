package repository

import (
	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
)

// BankRepository is the permanent content bank.
type BankRepository interface {
	WithTx(tx *gorm.DB) BankRepository
	DrawQuestions(difficulty string, limit int) ([]model.BankQuestion, error)
	DrawProblems(difficulty string, limit int) ([]model.BankProblem, error)
	CreateQuestion(q *model.BankQuestion) error
	CreateProblem(p *model.BankProblem) error
	QuestionTexts() ([]string, error)
	ProblemTitles() ([]string, error)
}

type bankRepository struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) BankRepository {
	return &bankRepository{db: db}
}

func (r *bankRepository) WithTx(tx *gorm.DB) BankRepository {
	return &bankRepository{db: tx}
}

// DrawQuestions picks up to limit random questions; an empty difficulty means any.
func (r *bankRepository) DrawQuestions(difficulty string, limit int) ([]model.BankQuestion, error) {
	var questions []model.BankQuestion
	if limit <= 0 {
		return questions, nil
	}
	q := r.db.Order("RANDOM()").Limit(limit)
	if difficulty != "" {
		q = q.Where("difficulty = ?", difficulty)
	}
	if err := q.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *bankRepository) DrawProblems(difficulty string, limit int) ([]model.BankProblem, error) {
	var problems []model.BankProblem
	if limit <= 0 {
		return problems, nil
	}
	q := r.db.Order("RANDOM()").Limit(limit)
	if difficulty != "" {
		q = q.Where("difficulty = ?", difficulty)
	}
	if err := q.Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *bankRepository) CreateQuestion(q *model.BankQuestion) error {
	return r.db.Create(q).Error
}

func (r *bankRepository) CreateProblem(p *model.BankProblem) error {
	return r.db.Create(p).Error
}

func (r *bankRepository) QuestionTexts() ([]string, error) {
	var texts []string
	err := r.db.Model(&model.BankQuestion{}).Pluck("text", &texts).Error
	return texts, err
}

func (r *bankRepository) ProblemTitles() ([]string, error) {
	var titles []string
	err := r.db.Model(&model.BankProblem{}).Pluck("title", &titles).Error
	return titles, err
}
