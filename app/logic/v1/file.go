package v1

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/document"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type FileLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewFileLogic(ctx context.Context, core *core.Core) *FileLogic {
	return &FileLogic{
		ctx:  ctx,
		core: core,
	}
}

// Upload 保存源文件到项目目录，同名文件不允许重复上传
func (l *FileLogic) Upload(projectID, fileName string, body io.Reader) (*types.UploadFile, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, errors.New("FileLogic.Upload.FileName", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if !document.IsSupported(fileName) {
		return nil, errors.New("FileLogic.Upload.IsSupported", i18n.ERROR_FILE_TYPE_UNSUPPORTED, nil).Code(http.StatusBadRequest)
	}
	if _, err := l.core.Store().ProjectStore().GetProject(l.ctx, projectID); err != nil {
		return nil, translateError("FileLogic.Upload.ProjectStore.GetProject", err, i18n.ERROR_PROJECT_NOT_FOUND)
	}

	exists, err := l.core.Store().UploadFileStore().List(l.ctx, types.ListUploadFileOptions{
		ProjectID: projectID,
		FileName:  fileName,
	})
	if err != nil {
		return nil, errors.New("FileLogic.Upload.UploadFileStore.List", i18n.ERROR_INTERNAL, err)
	}
	if len(exists) > 0 {
		return nil, errors.New("FileLogic.Upload.UploadFileStore.List", i18n.ERROR_EXIST, nil).Code(http.StatusConflict)
	}

	saved, err := l.core.Storage().Save(l.ctx, projectID, fileName, body)
	if err != nil {
		return nil, translateError("FileLogic.Upload.Storage.Save", err, i18n.ERROR_FILE_NOT_FOUND)
	}

	file := types.UploadFile{
		ID:        utils.GenUniqIDStr(),
		ProjectID: projectID,
		FileName:  fileName,
		FileExt:   strings.ToLower(filepath.Ext(fileName)),
		Path:      fileName,
		Size:      saved.Size,
		MD5:       saved.MD5,
		CreatedAt: time.Now().Unix(),
	}
	if err = l.core.Store().UploadFileStore().Create(l.ctx, file); err != nil {
		return nil, errors.New("FileLogic.Upload.UploadFileStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &file, nil
}

func (l *FileLogic) ListFiles(projectID string) ([]types.UploadFile, error) {
	list, err := l.core.Store().UploadFileStore().List(l.ctx, types.ListUploadFileOptions{ProjectID: projectID})
	if err != nil {
		return nil, errors.New("FileLogic.ListFiles.UploadFileStore.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *FileLogic) ListChunks(projectID, fileID string) ([]types.Chunk, error) {
	list, err := l.core.Store().ChunkStore().List(l.ctx, types.ListChunkOptions{
		ProjectID: projectID,
		FileID:    fileID,
	})
	if err != nil {
		return nil, errors.New("FileLogic.ListChunks.ChunkStore.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}
