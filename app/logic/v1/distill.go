package v1

import (
	"context"
	"net/http"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/distill"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type DistillLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewDistillLogic(ctx context.Context, core *core.Core) *DistillLogic {
	return &DistillLogic{
		ctx:  ctx,
		core: core,
	}
}

type GenerateTagsRequest struct {
	modelRequest
	ParentTag   string `json:"parentTag"`
	ParentTagID string `json:"parentTagId"`
	TagPath     string `json:"tagPath"`
	Count       int    `json:"count"`
}

// GenerateTags 为父标签生成子标签，parentTag 为空时使用项目名称作为主题
func (l *DistillLogic) GenerateTags(projectID string, req GenerateTagsRequest) ([]types.Tag, error) {
	if req.ParentTag == "" {
		project, err := l.core.Store().ProjectStore().GetProject(l.ctx, projectID)
		if err != nil {
			return nil, translateError("DistillLogic.GenerateTags.ProjectStore.GetProject", err, i18n.ERROR_PROJECT_NOT_FOUND)
		}
		if project.Name == "" {
			return nil, errors.New("DistillLogic.GenerateTags.ParentTag", i18n.ERROR_DISTILL_TOPIC_REQUIRED, nil).Code(http.StatusBadRequest)
		}
		req.ParentTag = project.Name
	}

	llm, lang, err := bindModel(l.ctx, l.core, "DistillLogic.GenerateTags.bindModel", projectID, req.modelRequest)
	if err != nil {
		return nil, err
	}

	tags, err := l.core.Distill.Bind(llm, lang).GenerateTags(l.ctx, distill.TagRequest{
		ProjectID:   projectID,
		ParentTag:   req.ParentTag,
		ParentTagID: req.ParentTagID,
		TagPath:     req.TagPath,
		Count:       req.Count,
	})
	if err != nil {
		return nil, translateError("DistillLogic.GenerateTags", err, i18n.ERROR_NOT_FOUND)
	}
	return tags, nil
}

type GenerateQuestionsRequest struct {
	modelRequest
	TagPath    string `json:"tagPath"`
	CurrentTag string `json:"currentTag"`
	TagID      string `json:"tagId"`
	Count      int    `json:"count"`
}

func (l *DistillLogic) GenerateQuestions(projectID string, req GenerateQuestionsRequest) ([]types.Question, error) {
	llm, lang, err := bindModel(l.ctx, l.core, "DistillLogic.GenerateQuestions.bindModel", projectID, req.modelRequest)
	if err != nil {
		return nil, err
	}

	questions, err := l.core.Distill.Bind(llm, lang).GenerateQuestions(l.ctx, distill.QuestionRequest{
		ProjectID:  projectID,
		TagPath:    req.TagPath,
		CurrentTag: req.CurrentTag,
		TagID:      req.TagID,
		Count:      req.Count,
	})
	if err != nil {
		return nil, translateError("DistillLogic.GenerateQuestions", err, i18n.ERROR_NOT_FOUND)
	}
	return questions, nil
}

// AllTags 返回项目全部标签以及嵌套形式的标签树
func (l *DistillLogic) AllTags(projectID string) ([]types.Tag, []*types.TagNode, error) {
	tags, err := l.core.Store().TagStore().List(l.ctx, projectID)
	if err != nil {
		return nil, nil, errors.New("DistillLogic.AllTags.TagStore.List", i18n.ERROR_INTERNAL, err)
	}
	return tags, distill.NewTree(tags).Nested(), nil
}

// QuestionsTree isDistill 为 true 时只返回蒸馏产生的问题
func (l *DistillLogic) QuestionsTree(projectID string, isDistill bool) ([]types.Question, error) {
	if isDistill {
		list, err := l.core.Distill.DistilledQuestions(l.ctx, projectID)
		if err != nil {
			return nil, errors.New("DistillLogic.QuestionsTree.DistilledQuestions", i18n.ERROR_INTERNAL, err)
		}
		if list == nil {
			list = []types.Question{}
		}
		return list, nil
	}

	list, err := l.core.Store().QuestionStore().List(l.ctx, types.ListQuestionOptions{ProjectID: projectID})
	if err != nil {
		return nil, errors.New("DistillLogic.QuestionsTree.QuestionStore.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}
