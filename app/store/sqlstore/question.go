package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/easy-dataset/easy-dataset/pkg/register"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.QuestionStore = NewQuestionStore(provider)
	})
}

type QuestionStore struct {
	CommonFields
}

func NewQuestionStore(provider SqlProviderAchieve) *QuestionStore {
	repo := &QuestionStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_QUESTION)
	repo.SetAllColumns("id", "project_id", "chunk_id", "ga_pair_id", "label", "question", "answered", "created_at")
	return repo
}

func (s *QuestionStore) BatchCreate(ctx context.Context, data []types.Question) error {
	if len(data) == 0 {
		return nil
	}

	now := time.Now().Unix()
	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
	for _, item := range data {
		if item.CreatedAt == 0 {
			item.CreatedAt = now
		}
		query = query.Values(item.ID, item.ProjectID, item.ChunkID, item.GaPairID, item.Label, item.Question, item.Answered, item.CreatedAt)
	}

	_, err := s.exec(ctx, query)
	return err
}

func (s *QuestionStore) Get(ctx context.Context, projectID, id string) (*types.Question, error) {
	var res types.Question
	err := s.get(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": projectID, "id": id}))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *QuestionStore) List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": opts.ProjectID})
	if opts.ChunkID != "" {
		query = query.Where(sq.Eq{"chunk_id": opts.ChunkID})
	}
	if opts.Label != "" {
		query = query.Where(sq.Eq{"label": opts.Label})
	}
	if len(opts.QuestionIDs) > 0 {
		query = query.Where(sq.Eq{"id": opts.QuestionIDs})
	}
	if opts.Answered != nil {
		query = query.Where(sq.Eq{"answered": *opts.Answered})
	}

	var res []types.Question
	if err := s.list(ctx, &res, query.OrderBy("created_at ASC", "id ASC")); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *QuestionStore) SetAnswered(ctx context.Context, projectID, id string, answered bool) error {
	_, err := s.exec(ctx, sq.Update(s.GetTable()).
		Set("answered", answered).
		Where(sq.Eq{"project_id": projectID, "id": id}))
	return err
}
