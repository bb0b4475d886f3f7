package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/account-recovery/internal/domain"
)

type answerRow struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type AnswerRepo struct {
	rest Rest
}

func NewAnswerRepo(rest Rest) *AnswerRepo {
	return &AnswerRepo{rest: rest}
}

func (r *AnswerRepo) Put(_ context.Context, a *domain.SecurityAnswer) error {
	row := answerRow{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Answer:     a.Answer,
		UserID:     a.UserID,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
	}
	if _, _, err := r.rest.From(tableSecurityAnswers).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert security answer: %w", err)
	}
	return nil
}
