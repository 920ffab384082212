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
		provider.stores.TagStore = NewTagStore(provider)
	})
}

// TagStore 领域树标签，邻接表形式存储
type TagStore struct {
	CommonFields
}

func NewTagStore(provider SqlProviderAchieve) *TagStore {
	repo := &TagStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_TAG)
	repo.SetAllColumns("id", "project_id", "parent_id", "label", "created_at")
	return repo
}

func (s *TagStore) Create(ctx context.Context, data types.Tag) error {
	return s.BatchCreate(ctx, []types.Tag{data})
}

func (s *TagStore) BatchCreate(ctx context.Context, data []types.Tag) error {
	if len(data) == 0 {
		return nil
	}

	now := time.Now().Unix()
	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
	for _, item := range data {
		if item.CreatedAt == 0 {
			item.CreatedAt = now
		}
		query = query.Values(item.ID, item.ProjectID, item.ParentID, item.Label, item.CreatedAt)
	}

	_, err := s.exec(ctx, query)
	return err
}

func (s *TagStore) List(ctx context.Context, projectID string) ([]types.Tag, error) {
	var res []types.Tag
	err := s.list(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByParent parentID 为空时返回根节点
func (s *TagStore) ListByParent(ctx context.Context, projectID, parentID string) ([]types.Tag, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": projectID})
	if parentID == "" {
		query = query.Where(sq.Eq{"parent_id": nil})
	} else {
		query = query.Where(sq.Eq{"parent_id": parentID})
	}

	var res []types.Tag
	if err := s.list(ctx, &res, query.OrderBy("created_at ASC", "id ASC")); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *TagStore) DeleteAll(ctx context.Context, projectID string) error {
	_, err := s.exec(ctx, sq.Delete(s.GetTable()).Where(sq.Eq{"project_id": projectID}))
	return err
}
