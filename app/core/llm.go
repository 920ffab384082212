package core

import (
	"context"
	"database/sql"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/ai/openai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// NewLLM 所有模型都走 OpenAI 兼容协议，请求耗时计入指标
func (s *Core) NewLLM(cfg *types.ModelConfig) (ai.LLM, error) {
	return openai.New(cfg, openai.WithObserver(s.metrics.ObserveLLM))
}

// GetActiveModel 返回项目默认模型，modelID 不为空时优先使用指定模型
func (s *Core) GetActiveModel(ctx context.Context, projectID, modelID string) (*types.ModelConfig, error) {
	if modelID == "" {
		project, err := s.Store().ProjectStore().GetProject(ctx, projectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, errors.Parameter("project %s not found", projectID)
			}
			return nil, err
		}
		modelID = project.DefaultModelConfigID
	}
	if modelID == "" {
		return nil, errors.Configuration("project %s has no default model", projectID)
	}

	model, err := s.Store().ModelConfigStore().Get(ctx, projectID, modelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Configuration("model %s not found", modelID)
		}
		return nil, err
	}
	if err = ValidateModelConfig(model); err != nil {
		return nil, err
	}
	return model, nil
}

// ValidateModelConfig providerId、endpoint、modelName 必填，非 ollama 需要 apiKey
func ValidateModelConfig(m *types.ModelConfig) error {
	if err := m.Validate(); err != nil {
		return errors.Kind(errors.ErrConfiguration, err, "")
	}
	return nil
}
