package tasks

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
)

// ErrAborted 任务被外部中止，后续不再写入进度
var ErrAborted = stderrors.New("task aborted")

// Stage 标识 pdf-processing 中出错的环节
type Stage string

const (
	STAGE_PAGE_COUNT  Stage = "page-count"
	STAGE_STRATEGY    Stage = "strategy"
	STAGE_SPLIT       Stage = "split"
	STAGE_DOMAIN_TREE Stage = "domain-tree"
)

// FileError 单个文件在某个环节的失败，只影响该文件
type FileError struct {
	Stage    Stage
	FileName string
	Err      error
}

func (e *FileError) Error() string {
	if e.FileName == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.FileName, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func PageCountProbeError(fileName string, err error) error {
	return &FileError{Stage: STAGE_PAGE_COUNT, FileName: fileName, Err: err}
}

func StrategyProcessingError(fileName string, err error) error {
	return &FileError{Stage: STAGE_STRATEGY, FileName: fileName, Err: errors.Kind(errors.ErrPartialBatch, err, "")}
}

func SplitError(fileName string, err error) error {
	return &FileError{Stage: STAGE_SPLIT, FileName: fileName, Err: errors.Kind(errors.ErrPartialBatch, err, "")}
}

func DomainTreeError(err error) error {
	if err == nil {
		err = stderrors.New("domain tree returned no tags")
	}
	return &FileError{Stage: STAGE_DOMAIN_TREE, Err: err}
}

// NoFileProcessedError 所有文件都失败，合并各文件的错误
func NoFileProcessedError(fileErrors []string) error {
	msg := "no file processed"
	if len(fileErrors) > 0 {
		msg += ": " + strings.Join(fileErrors, "; ")
	}
	return errors.Kind(errors.ErrPartialBatch, nil, "%s", msg)
}

// StageOf returns the failing stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Stage, true
	}
	return "", false
}
