package errors

import (
	stderrors "errors"
	"fmt"
)

// 任务处理过程中的错误分类
var (
	// ErrParameter 缺少必要参数，任何副作用发生前即拒绝
	ErrParameter = stderrors.New("parameter error")
	// ErrConfiguration 模型配置缺失或不合法
	ErrConfiguration = stderrors.New("configuration error")
	// ErrExternalService LLM 或文档转换服务失败
	ErrExternalService = stderrors.New("external service error")
	// ErrPartialBatch 批处理中单个条目失败
	ErrPartialBatch = stderrors.New("partial batch error")
	// ErrParse LLM 返回内容无法解析
	ErrParse = stderrors.New("parse error")
)

type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Kind tags err with one of the taxonomy sentinels; errors.Is matches both.
func Kind(kind error, err error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

func Parameter(format string, args ...any) error {
	return Kind(ErrParameter, nil, format, args...)
}

func Configuration(format string, args ...any) error {
	return Kind(ErrConfiguration, nil, format, args...)
}

func External(err error, format string, args ...any) error {
	return Kind(ErrExternalService, err, format, args...)
}

func Parse(err error, format string, args ...any) error {
	return Kind(ErrParse, err, format, args...)
}
