package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/account-recovery/internal/domain"
	"github.com/account-recovery/internal/pkg/id"
	"github.com/account-recovery/internal/pkg/validate"
)

// Op is a catalog operation. The set is closed: only the constants below exist.
type Op string

const OpCreate Op = "create"

// ParseOp maps a path segment to an Op.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpCreate:
		return OpCreate, nil
	}
	return "", fmt.Errorf("invalid method: %w", domain.ErrBadRequest)
}

// Store persists catalog rows. Get returns domain.ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*domain.SecurityQuestion, error)
	Create(ctx context.Context, q *domain.SecurityQuestion) error
	List(ctx context.Context) ([]domain.SecurityQuestion, error)
}

type NewQuestion struct {
	Question string `json:"question" validate:"required,max=500"`
}

type Service interface {
	// Apply runs op over the given questions and returns the rows it touched.
	Apply(ctx context.Context, op Op, questions []NewQuestion) ([]domain.SecurityQuestion, error)
	List(ctx context.Context) ([]domain.SecurityQuestion, error)
	// Resolve returns the catalog row a step-4 answer should reference,
	// creating it when needed.
	Resolve(ctx context.Context, questionID, customQuestion string) (*domain.SecurityQuestion, error)
}

type service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) Apply(ctx context.Context, op Op, questions []NewQuestion) ([]domain.SecurityQuestion, error) {
	switch op {
	case OpCreate:
		return s.create(ctx, questions)
	}
	return nil, fmt.Errorf("invalid method: %w", domain.ErrBadRequest)
}

func (s *service) create(ctx context.Context, questions []NewQuestion) ([]domain.SecurityQuestion, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("questions required: %w", domain.ErrValidation)
	}
	out := make([]domain.SecurityQuestion, 0, len(questions))
	for _, nq := range questions {
		text := strings.TrimSpace(nq.Question)
		if text == "" {
			return out, fmt.Errorf("question text required: %w", domain.ErrValidation)
		}
		if err := validate.Struct(nq); err != nil {
			return out, err
		}
		q, err := s.insert(ctx, id.New(), text)
		if err != nil {
			return out, err
		}
		out = append(out, *q)
	}
	return out, nil
}

func (s *service) List(ctx context.Context) ([]domain.SecurityQuestion, error) {
	stored, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored))
	for _, q := range stored {
		seen[q.ID] = true
	}
	out := make([]domain.SecurityQuestion, 0, len(stored)+len(domain.FallbackQuestions))
	for _, q := range domain.FallbackQuestions {
		if !seen[q.ID] {
			out = append(out, q)
		}
	}
	return append(out, stored...), nil
}

func (s *service) Resolve(ctx context.Context, questionID, customQuestion string) (*domain.SecurityQuestion, error) {
	if questionID == domain.CustomQuestionID {
		text := strings.TrimSpace(customQuestion)
		if text == "" {
			return nil, fmt.Errorf("please provide a custom question: %w", domain.ErrValidation)
		}
		return s.insert(ctx, id.New(), text)
	}

	q, err := s.store.Get(ctx, questionID)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	fb, ok := domain.FallbackQuestion(questionID)
	if !ok {
		return nil, fmt.Errorf("question %q: %w", questionID, domain.ErrCatalogReferenceMissing)
	}
	return s.insert(ctx, fb.ID, fb.Question)
}

func (s *service) insert(ctx context.Context, questionID, text string) (*domain.SecurityQuestion, error) {
	q := &domain.SecurityQuestion{ID: questionID, Question: text, CreatedAt: s.now().UTC()}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}
