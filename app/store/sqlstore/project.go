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
		provider.stores.ProjectStore = NewProjectStore(provider)
	})
}

type ProjectStore struct {
	CommonFields
}

func NewProjectStore(provider SqlProviderAchieve) *ProjectStore {
	repo := &ProjectStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROJECT)
	repo.SetAllColumns("id", "name", "description", "default_model_config_id", "task_config", "created_at", "updated_at")
	return repo
}

func (s *ProjectStore) Create(ctx context.Context, data types.Project) error {
	now := time.Now().Unix()
	if data.CreatedAt == 0 {
		data.CreatedAt = now
	}
	data.UpdatedAt = now
	if len(data.TaskConfig) == 0 {
		data.TaskConfig = []byte("{}")
	}

	_, err := s.exec(ctx, sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Name, data.Description, data.DefaultModelConfigID, data.TaskConfig, data.CreatedAt, data.UpdatedAt))
	return err
}

func (s *ProjectStore) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var res types.Project
	if err := s.get(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ProjectStore) Update(ctx context.Context, data types.Project) error {
	_, err := s.exec(ctx, sq.Update(s.GetTable()).
		SetMap(map[string]interface{}{
			"name":                    data.Name,
			"description":             data.Description,
			"default_model_config_id": data.DefaultModelConfigID,
			"task_config":             data.TaskConfig,
			"updated_at":              time.Now().Unix(),
		}).
		Where(sq.Eq{"id": data.ID}))
	return err
}

func (s *ProjectStore) ListProjects(ctx context.Context) ([]types.Project, error) {
	var res []types.Project
	if err := s.list(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC")); err != nil {
		return nil, err
	}
	return res, nil
}
