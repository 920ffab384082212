package types

import "encoding/json"

// Project 项目，所有可变数据都以 project_id 作为分区
type Project struct {
	ID                   string          `json:"id" db:"id"`
	Name                 string          `json:"name" db:"name"`
	Description          string          `json:"description" db:"description"`
	DefaultModelConfigID string          `json:"defaultModelConfigId" db:"default_model_config_id"`
	TaskConfig           json.RawMessage `json:"taskConfig" db:"task_config"`
	CreatedAt            int64           `json:"createAt" db:"created_at"`
	UpdatedAt            int64           `json:"updatedAt" db:"updated_at"`
}

// TaskSettings returns the project task settings with defaults filled in.
func (p *Project) TaskSettings() TaskConfig {
	cfg := DefaultTaskConfig()
	if p == nil || len(p.TaskConfig) == 0 {
		return cfg
	}
	_ = json.Unmarshal(p.TaskConfig, &cfg)
	return cfg.withDefaults()
}

// TaskConfig 项目任务配置
type TaskConfig struct {
	TextSplitMinLength              int    `json:"textSplitMinLength"`
	TextSplitMaxLength              int    `json:"textSplitMaxLength"`
	QuestionGenerationLength        int    `json:"questionGenerationLength"`
	QuestionMaskRemovingProbability int    `json:"questionMaskRemovingProbability"`
	ConcurrencyLimit                int    `json:"concurrencyLimit"`
	VisionConcurrencyLimit          int    `json:"visionConcurrencyLimit"`
	MinerUToken                     string `json:"minerUToken"`
}

func DefaultTaskConfig() TaskConfig {
	return TaskConfig{
		TextSplitMinLength:              1500,
		TextSplitMaxLength:              2000,
		QuestionGenerationLength:        240,
		QuestionMaskRemovingProbability: 60,
		ConcurrencyLimit:                5,
		VisionConcurrencyLimit:          5,
	}
}

func (c TaskConfig) withDefaults() TaskConfig {
	d := DefaultTaskConfig()
	if c.TextSplitMinLength <= 0 {
		c.TextSplitMinLength = d.TextSplitMinLength
	}
	if c.TextSplitMaxLength <= 0 {
		c.TextSplitMaxLength = d.TextSplitMaxLength
	}
	if c.TextSplitMaxLength < c.TextSplitMinLength {
		c.TextSplitMaxLength = c.TextSplitMinLength
	}
	if c.QuestionGenerationLength <= 0 {
		c.QuestionGenerationLength = d.QuestionGenerationLength
	}
	if c.QuestionMaskRemovingProbability < 0 || c.QuestionMaskRemovingProbability > 100 {
		c.QuestionMaskRemovingProbability = d.QuestionMaskRemovingProbability
	}
	if c.ConcurrencyLimit <= 0 {
		c.ConcurrencyLimit = d.ConcurrencyLimit
	}
	if c.VisionConcurrencyLimit <= 0 {
		c.VisionConcurrencyLimit = d.VisionConcurrencyLimit
	}
	return c
}
