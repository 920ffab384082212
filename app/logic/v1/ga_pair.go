package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/gapair"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// 同一项目同时只允许一个批量生成
const gaBatchLockTTL = 30 * time.Minute

type GaPairLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewGaPairLogic(ctx context.Context, core *core.Core) *GaPairLogic {
	return &GaPairLogic{
		ctx:  ctx,
		core: core,
	}
}

type GenerateGaPairsRequest struct {
	modelRequest
	gapair.GenerateOptions
}

func (l *GaPairLogic) Generate(projectID, fileID string, req GenerateGaPairsRequest) (*gapair.FileResult, error) {
	if err := l.checkFile(projectID, fileID); err != nil {
		return nil, errors.Trace("GaPairLogic.Generate", err)
	}

	llm, lang, err := bindModel(l.ctx, l.core, "GaPairLogic.Generate.bindModel", projectID, req.modelRequest)
	if err != nil {
		return nil, err
	}

	res, err := l.core.GaPairs.GenerateForFile(l.ctx, llm, lang, projectID, fileID, req.GenerateOptions)
	if err != nil {
		return nil, translateError("GaPairLogic.Generate.GenerateForFile", err, i18n.ERROR_FILE_NOT_FOUND)
	}
	return res, nil
}

func (l *GaPairLogic) List(projectID, fileID string) ([]types.GaPair, error) {
	if err := l.checkFile(projectID, fileID); err != nil {
		return nil, errors.Trace("GaPairLogic.List", err)
	}
	list, err := l.core.GaPairs.List(l.ctx, projectID, fileID)
	if err != nil {
		return nil, errors.New("GaPairLogic.List.GaPairs.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

type ReplaceGaPairsRequest struct {
	Updates []gapair.PairUpdate `json:"updates" binding:"required"`
}

func (l *GaPairLogic) Replace(projectID, fileID string, req ReplaceGaPairsRequest) ([]types.GaPair, error) {
	if err := l.checkFile(projectID, fileID); err != nil {
		return nil, errors.Trace("GaPairLogic.Replace", err)
	}
	list, err := l.core.GaPairs.Replace(l.ctx, projectID, fileID, req.Updates)
	if err != nil {
		return nil, translateError("GaPairLogic.Replace.GaPairs.Replace", err, i18n.ERROR_GA_PAIR_NOT_FOUND)
	}
	return list, nil
}

type ToggleGaPairRequest struct {
	GaPairID string `json:"gaPairId" binding:"required"`
	IsActive bool   `json:"isActive"`
}

func (l *GaPairLogic) Toggle(projectID, fileID string, req ToggleGaPairRequest) (*types.GaPair, error) {
	pair, err := l.core.GaPairs.Toggle(l.ctx, projectID, fileID, req.GaPairID, req.IsActive)
	if err != nil {
		return nil, translateError("GaPairLogic.Toggle.GaPairs.Toggle", err, i18n.ERROR_GA_PAIR_NOT_FOUND)
	}
	return pair, nil
}

type BatchGenerateGaPairsRequest struct {
	modelRequest
	gapair.BatchRequest
}

// BatchGenerate 批量生成耗时较长，用分布式锁避免同一项目被重复触发
func (l *GaPairLogic) BatchGenerate(projectID string, req BatchGenerateGaPairsRequest) (*gapair.BatchResult, error) {
	llm, lang, err := bindModel(l.ctx, l.core, "GaPairLogic.BatchGenerate.bindModel", projectID, req.modelRequest)
	if err != nil {
		return nil, err
	}

	ok, err := l.core.TryLock(l.ctx, "ga_batch:"+projectID, gaBatchLockTTL)
	if err != nil {
		return nil, errors.New("GaPairLogic.BatchGenerate.TryLock", i18n.ERROR_INTERNAL, err)
	}
	if !ok {
		return nil, errors.New("GaPairLogic.BatchGenerate.TryLock", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests)
	}

	res, err := l.core.GaPairs.BatchGenerate(l.ctx, llm, lang, projectID, req.BatchRequest)
	if err != nil {
		return nil, translateError("GaPairLogic.BatchGenerate.GaPairs.BatchGenerate", err, i18n.ERROR_FILE_NOT_FOUND)
	}
	return res, nil
}

func (l *GaPairLogic) checkFile(projectID, fileID string) error {
	if _, err := l.core.Store().UploadFileStore().Get(l.ctx, projectID, fileID); err != nil {
		if err == sql.ErrNoRows {
			return errors.New("GaPairLogic.checkFile.UploadFileStore.Get", i18n.ERROR_FILE_NOT_FOUND, err).Code(http.StatusNotFound)
		}
		return errors.New("GaPairLogic.checkFile.UploadFileStore.Get", i18n.ERROR_INTERNAL, err)
	}
	return nil
}
