package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type ProjectLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewProjectLogic(ctx context.Context, core *core.Core) *ProjectLogic {
	return &ProjectLogic{
		ctx:  ctx,
		core: core,
	}
}

type UpsertProjectRequest struct {
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	DefaultModelConfigID string          `json:"defaultModelConfigId"`
	TaskConfig           json.RawMessage `json:"taskConfig"`
}

func (l *ProjectLogic) CreateProject(req UpsertProjectRequest) (*types.Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("ProjectLogic.CreateProject.Name", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if len(req.TaskConfig) > 0 && !json.Valid(req.TaskConfig) {
		return nil, errors.New("ProjectLogic.CreateProject.TaskConfig", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	now := time.Now().Unix()
	project := types.Project{
		ID:          utils.GenUniqIDStr(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		TaskConfig:  req.TaskConfig,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.core.Store().ProjectStore().Create(l.ctx, project); err != nil {
		return nil, errors.New("ProjectLogic.CreateProject.ProjectStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return l.GetProject(project.ID)
}

func (l *ProjectLogic) GetProject(id string) (*types.Project, error) {
	project, err := l.core.Store().ProjectStore().GetProject(l.ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("ProjectLogic.GetProject.ProjectStore.GetProject", i18n.ERROR_PROJECT_NOT_FOUND, err).Code(http.StatusNotFound)
		}
		return nil, errors.New("ProjectLogic.GetProject.ProjectStore.GetProject", i18n.ERROR_INTERNAL, err)
	}
	return project, nil
}

// UpdateProject 空字段保持原值，默认模型必须属于本项目
func (l *ProjectLogic) UpdateProject(id string, req UpsertProjectRequest) (*types.Project, error) {
	project, err := l.GetProject(id)
	if err != nil {
		return nil, errors.Trace("ProjectLogic.UpdateProject", err)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		project.Name = name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if len(req.TaskConfig) > 0 {
		if !json.Valid(req.TaskConfig) {
			return nil, errors.New("ProjectLogic.UpdateProject.TaskConfig", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
		}
		project.TaskConfig = req.TaskConfig
	}
	if req.DefaultModelConfigID != "" {
		if _, err = l.core.Store().ModelConfigStore().Get(l.ctx, id, req.DefaultModelConfigID); err != nil {
			return nil, translateError("ProjectLogic.UpdateProject.ModelConfigStore.Get", err, i18n.ERROR_MODEL_NOT_CONFIGURED)
		}
		project.DefaultModelConfigID = req.DefaultModelConfigID
	}
	project.UpdatedAt = time.Now().Unix()

	if err = l.core.Store().ProjectStore().Update(l.ctx, *project); err != nil {
		return nil, errors.New("ProjectLogic.UpdateProject.ProjectStore.Update", i18n.ERROR_INTERNAL, err)
	}
	return project, nil
}

func (l *ProjectLogic) ListProjects() ([]types.Project, error) {
	list, err := l.core.Store().ProjectStore().ListProjects(l.ctx)
	if err != nil {
		return nil, errors.New("ProjectLogic.ListProjects.ProjectStore.ListProjects", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

// CreateModelConfig 校验通过后保存；项目还没有默认模型时设为默认
func (l *ProjectLogic) CreateModelConfig(projectID string, m types.ModelConfig) (*types.ModelConfig, error) {
	project, err := l.GetProject(projectID)
	if err != nil {
		return nil, errors.Trace("ProjectLogic.CreateModelConfig", err)
	}

	m.FillDefaults()
	if err = core.ValidateModelConfig(&m); err != nil {
		return nil, errors.New("ProjectLogic.CreateModelConfig.Validate", i18n.ERROR_MODEL_CONFIG_INVALID, err).Code(http.StatusBadRequest)
	}

	now := time.Now().Unix()
	m.ID = utils.GenUniqIDStr()
	m.ProjectID = projectID
	m.CreatedAt = now
	m.UpdatedAt = now
	if err = l.core.Store().ModelConfigStore().Create(l.ctx, m); err != nil {
		return nil, errors.New("ProjectLogic.CreateModelConfig.ModelConfigStore.Create", i18n.ERROR_INTERNAL, err)
	}

	if project.DefaultModelConfigID == "" && !m.IsVision() {
		project.DefaultModelConfigID = m.ID
		project.UpdatedAt = now
		if err = l.core.Store().ProjectStore().Update(l.ctx, *project); err != nil {
			return nil, errors.New("ProjectLogic.CreateModelConfig.ProjectStore.Update", i18n.ERROR_INTERNAL, err)
		}
	}
	return &m, nil
}

func (l *ProjectLogic) ListModelConfigs(projectID string) ([]types.ModelConfig, error) {
	list, err := l.core.Store().ModelConfigStore().List(l.ctx, projectID)
	if err != nil {
		return nil, errors.New("ProjectLogic.ListModelConfigs.ModelConfigStore.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}
