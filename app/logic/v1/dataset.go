package v1

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type DatasetLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewDatasetLogic(ctx context.Context, core *core.Core) *DatasetLogic {
	return &DatasetLogic{
		ctx:  ctx,
		core: core,
	}
}

type GenerateDatasetRequest struct {
	modelRequest
	QuestionID string `json:"questionId" binding:"required"`
}

func (l *DatasetLogic) GenerateDataset(projectID string, req GenerateDatasetRequest) (*types.Dataset, error) {
	if _, err := l.core.Store().QuestionStore().Get(l.ctx, projectID, req.QuestionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("DatasetLogic.GenerateDataset.QuestionStore.Get", i18n.ERROR_QUESTION_NOT_FOUND, err).Code(http.StatusNotFound)
		}
		return nil, errors.New("DatasetLogic.GenerateDataset.QuestionStore.Get", i18n.ERROR_INTERNAL, err)
	}

	llm, lang, err := bindModel(l.ctx, l.core, "DatasetLogic.GenerateDataset.bindModel", projectID, req.modelRequest)
	if err != nil {
		return nil, err
	}

	dataset, err := l.core.Answers.Generate(l.ctx, llm, lang, projectID, req.QuestionID)
	if err != nil {
		return nil, translateError("DatasetLogic.GenerateDataset.Answers.Generate", err, i18n.ERROR_QUESTION_NOT_FOUND)
	}
	return dataset, nil
}

func (l *DatasetLogic) ListDatasets(projectID string, page, pageSize uint64) ([]types.Dataset, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = types.DEFAULT_PAGE_SIZE
	}
	list, err := l.core.Store().DatasetStore().List(l.ctx, projectID, page, pageSize)
	if err != nil {
		return nil, errors.New("DatasetLogic.ListDatasets.DatasetStore.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}
