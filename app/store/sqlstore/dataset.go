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
		provider.stores.DatasetStore = NewDatasetStore(provider)
	})
}

type DatasetStore struct {
	CommonFields
}

func NewDatasetStore(provider SqlProviderAchieve) *DatasetStore {
	repo := &DatasetStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_DATASET)
	repo.SetAllColumns("id", "project_id", "question_id", "question", "answer", "cot", "question_label",
		"chunk_id", "chunk_name", "model", "confirmed", "created_at")
	return repo
}

func (s *DatasetStore) Create(ctx context.Context, data types.Dataset) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	_, err := s.exec(ctx, sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ProjectID, data.QuestionID, data.Question, data.Answer, data.COT, data.QuestionLabel,
			data.ChunkID, data.ChunkName, data.Model, data.Confirmed, data.CreatedAt))
	return err
}

func (s *DatasetStore) List(ctx context.Context, projectID string, page, pageSize uint64) ([]types.Dataset, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at DESC", "id DESC")

	var res []types.Dataset
	if err := s.list(ctx, &res, paginate(query, page, pageSize)); err != nil {
		return nil, err
	}
	return res, nil
}
