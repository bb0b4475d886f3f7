package questions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/account-recovery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      map[string]domain.SecurityQuestion
	order     []string
	createErr error
	getErr    error
}

func newFakeStore(rows ...domain.SecurityQuestion) *fakeStore {
	f := &fakeStore{rows: map[string]domain.SecurityQuestion{}}
	for _, r := range rows {
		f.rows[r.ID] = r
		f.order = append(f.order, r.ID)
	}
	return f
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.SecurityQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	q, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &q, nil
}

func (f *fakeStore) Create(_ context.Context, q *domain.SecurityQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[q.ID] = *q
	f.order = append(f.order, q.ID)
	return nil
}

func (f *fakeStore) List(_ context.Context) ([]domain.SecurityQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SecurityQuestion, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.rows[id])
	}
	return out, nil
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp("create")
	require.NoError(t, err)
	assert.Equal(t, OpCreate, op)

	_, err = ParseOp("delete")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestApply_Create(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	rows, err := svc.Apply(context.Background(), OpCreate, []NewQuestion{{Question: "Favorite color?"}, {Question: " First car? "}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "First car?", rows[1].Question)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.Len(t, store.rows, 2)
}

func TestApply_CreateRejectsEmpty(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Apply(context.Background(), OpCreate, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Apply(context.Background(), OpCreate, []NewQuestion{{Question: "  "}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApply_CreateRejectsOverlongText(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	_, err := svc.Apply(context.Background(), OpCreate, []NewQuestion{{Question: strings.Repeat("q", 501)}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.rows)
}

func TestApply_UnknownOp(t *testing.T) {
	_, err := NewService(newFakeStore()).Apply(context.Background(), Op("drop"), nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestList_MergesFallback(t *testing.T) {
	store := newFakeStore(domain.SecurityQuestion{ID: "1", Question: "What is your mother's maiden name?"},
		domain.SecurityQuestion{ID: "q-9", Question: "Favorite color?"})

	qs, err := NewService(store).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, qs, len(domain.FallbackQuestions)+1)

	ids := map[string]int{}
	for _, q := range qs {
		ids[q.ID]++
	}
	assert.Equal(t, 1, ids["1"])
	assert.Equal(t, 1, ids["q-9"])
}

func TestList_EmptyStoreReturnsFallback(t *testing.T) {
	qs, err := NewService(newFakeStore()).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackQuestions, qs)
}

func TestResolve_Custom(t *testing.T) {
	store := newFakeStore()
	q, err := NewService(store).Resolve(context.Background(), domain.CustomQuestionID, "Favorite color?")
	require.NoError(t, err)
	assert.Equal(t, "Favorite color?", q.Question)
	assert.NotEqual(t, domain.CustomQuestionID, q.ID)
	assert.Contains(t, store.rows, q.ID)
}

func TestResolve_CustomRequiresText(t *testing.T) {
	_, err := NewService(newFakeStore()).Resolve(context.Background(), domain.CustomQuestionID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolve_ExistingRow(t *testing.T) {
	store := newFakeStore(domain.SecurityQuestion{ID: "q-9", Question: "Favorite color?"})
	q, err := NewService(store).Resolve(context.Background(), "q-9", "")
	require.NoError(t, err)
	assert.Equal(t, "Favorite color?", q.Question)
	assert.Len(t, store.rows, 1)
}

func TestResolve_FallbackInsertedUnderSameID(t *testing.T) {
	store := newFakeStore()
	q, err := NewService(store).Resolve(context.Background(), "3", "")
	require.NoError(t, err)
	assert.Equal(t, "3", q.ID)
	assert.Equal(t, "In which city were you born?", q.Question)
	assert.Equal(t, "In which city were you born?", store.rows["3"].Question)
}

func TestResolve_MissingEverywhere(t *testing.T) {
	_, err := NewService(newFakeStore()).Resolve(context.Background(), "42", "")
	assert.ErrorIs(t, err, domain.ErrCatalogReferenceMissing)
}

func TestResolve_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("throttled")
	_, err := NewService(store).Resolve(context.Background(), "1", "")
	assert.EqualError(t, err, "throttled")
}
