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
		provider.stores.ModelConfigStore = NewModelConfigStore(provider)
	})
}

// ModelConfigStore 项目级模型配置
type ModelConfigStore struct {
	CommonFields
}

func NewModelConfigStore(provider SqlProviderAchieve) *ModelConfigStore {
	repo := &ModelConfigStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MODEL_CONFIG)
	repo.SetAllColumns("id", "project_id", "provider_id", "provider_name", "endpoint", "api_key", "model_id", "model_name",
		"type", "temperature", "max_tokens", "top_p", "created_at", "updated_at")
	return repo
}

func (s *ModelConfigStore) Create(ctx context.Context, data types.ModelConfig) error {
	now := time.Now().Unix()
	if data.CreatedAt == 0 {
		data.CreatedAt = now
	}
	data.UpdatedAt = now
	data.FillDefaults()

	_, err := s.exec(ctx, sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ProjectID, data.ProviderID, data.ProviderName, data.Endpoint, data.ApiKey, data.ModelID, data.ModelName,
			data.Type, data.Temperature, data.MaxTokens, data.TopP, data.CreatedAt, data.UpdatedAt))
	return err
}

func (s *ModelConfigStore) Get(ctx context.Context, projectID, id string) (*types.ModelConfig, error) {
	var res types.ModelConfig
	err := s.get(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": projectID, "id": id}))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ModelConfigStore) List(ctx context.Context, projectID string) ([]types.ModelConfig, error) {
	var res []types.ModelConfig
	err := s.list(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	return res, nil
}
