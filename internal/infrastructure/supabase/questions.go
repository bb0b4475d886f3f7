package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/account-recovery/internal/domain"
	postgrest "github.com/supabase-community/postgrest-go"
)

type questionRow struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
}

func (q questionRow) toDomain() domain.SecurityQuestion {
	return domain.SecurityQuestion{ID: q.ID, Question: q.Question, CreatedAt: q.CreatedAt}
}

type QuestionRepo struct {
	rest Rest
}

func NewQuestionRepo(rest Rest) *QuestionRepo {
	return &QuestionRepo{rest: rest}
}

func (r *QuestionRepo) Create(_ context.Context, q *domain.SecurityQuestion) error {
	row := questionRow{ID: q.ID, Question: q.Question, CreatedAt: q.CreatedAt}
	if _, _, err := r.rest.From(tableSecurityQuestions).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert security question: %w", err)
	}
	return nil
}

func (r *QuestionRepo) Get(_ context.Context, id string) (*domain.SecurityQuestion, error) {
	var rows []questionRow
	if _, err := r.rest.From(tableSecurityQuestions).Select("*", "", false).Eq("id", id).Limit(1, "").ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("get security question: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	q := rows[0].toDomain()
	return &q, nil
}

func (r *QuestionRepo) List(_ context.Context) ([]domain.SecurityQuestion, error) {
	var rows []questionRow
	_, err := r.rest.From(tableSecurityQuestions).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list security questions: %w", err)
	}
	out := make([]domain.SecurityQuestion, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
