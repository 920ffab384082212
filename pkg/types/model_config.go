package types

import (
	"errors"
	"strings"
)

const (
	MODEL_TYPE_TEXT   = "text"
	MODEL_TYPE_VISION = "vision"

	PROVIDER_OLLAMA = "ollama"
)

// ModelConfig 项目级别的模型配置
type ModelConfig struct {
	ID           string  `json:"id" db:"id"`
	ProjectID    string  `json:"projectId" db:"project_id"`
	ProviderID   string  `json:"providerId" db:"provider_id"`
	ProviderName string  `json:"providerName" db:"provider_name"`
	Endpoint     string  `json:"endpoint" db:"endpoint"`
	ApiKey       string  `json:"apiKey" db:"api_key"`
	ModelID      string  `json:"modelId" db:"model_id"`
	ModelName    string  `json:"modelName" db:"model_name"`
	Type         string  `json:"type" db:"type"`
	Temperature  float32 `json:"temperature" db:"temperature"`
	MaxTokens    int     `json:"maxTokens" db:"max_tokens"`
	TopP         float32 `json:"topP" db:"top_p"`
	CreatedAt    int64   `json:"createAt" db:"created_at"`
	UpdatedAt    int64   `json:"updatedAt" db:"updated_at"`
}

const (
	DEFAULT_MODEL_TEMPERATURE = 0.7
	DEFAULT_MODEL_MAX_TOKENS  = 8192
	DEFAULT_MODEL_TOP_P       = 0.9
)

func (m *ModelConfig) FillDefaults() {
	if m.Type == "" {
		m.Type = MODEL_TYPE_TEXT
	}
	if m.Temperature == 0 {
		m.Temperature = DEFAULT_MODEL_TEMPERATURE
	}
	if m.MaxTokens == 0 {
		m.MaxTokens = DEFAULT_MODEL_MAX_TOKENS
	}
	if m.TopP == 0 {
		m.TopP = DEFAULT_MODEL_TOP_P
	}
	if m.ModelID == "" {
		m.ModelID = m.ModelName
	}
}

// Model returns the model identifier sent to the provider.
func (m *ModelConfig) Model() string {
	if m.ModelID != "" {
		return m.ModelID
	}
	return m.ModelName
}

// Validate 除 ollama 外都需要 api key
func (m *ModelConfig) Validate() error {
	if m == nil {
		return errors.New("model config is empty")
	}
	var missing []string
	if m.ProviderID == "" {
		missing = append(missing, "providerId")
	}
	if m.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if m.Model() == "" {
		missing = append(missing, "modelName")
	}
	if m.ApiKey == "" && !strings.EqualFold(m.ProviderID, PROVIDER_OLLAMA) {
		missing = append(missing, "apiKey")
	}
	if len(missing) > 0 {
		return errors.New("model config missing " + strings.Join(missing, ", "))
	}
	return nil
}

func (m *ModelConfig) IsVision() bool {
	return m != nil && m.Type == MODEL_TYPE_VISION
}
