package v1

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// translateError 把领域层的错误类型映射为接口错误码
func translateError(trace string, err error, notFound string) error {
	if err == nil {
		return nil
	}
	var ce *errors.CustomizedError
	if errors.As(err, &ce) {
		return ce.Trace(trace)
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errors.New(trace, notFound, err).Code(http.StatusNotFound)
	case errors.Is(err, errors.ErrParameter):
		return errors.New(trace, err.Error(), err).Code(http.StatusBadRequest)
	case errors.Is(err, errors.ErrConfiguration):
		return errors.New(trace, i18n.ERROR_MODEL_CONFIG_INVALID, err).Code(http.StatusBadRequest)
	case errors.Is(err, errors.ErrParse):
		return errors.New(trace, i18n.ERROR_AI_RESPONSE_INVALID, err).Code(http.StatusBadGateway)
	case errors.Is(err, errors.ErrExternalService):
		return errors.New(trace, i18n.ERROR_AI_REQUEST_FAILED, err).Code(http.StatusBadGateway)
	default:
		return errors.New(trace, i18n.ERROR_INTERNAL, err)
	}
}

// modelRequest 生成类接口共用的模型与语言参数
type modelRequest struct {
	ModelConfigID string `json:"modelConfigId"`
	Language      string `json:"language"`
}

// bindModel 解析本次请求使用的模型，未指定时使用项目默认模型
func bindModel(ctx context.Context, c *core.Core, trace, projectID string, req modelRequest) (ai.LLM, string, error) {
	model, err := c.GetActiveModel(ctx, projectID, req.ModelConfigID)
	if err != nil {
		if errors.Is(err, errors.ErrConfiguration) {
			return nil, "", errors.New(trace, i18n.ERROR_MODEL_NOT_CONFIGURED, err).Code(http.StatusBadRequest)
		}
		return nil, "", translateError(trace, err, i18n.ERROR_PROJECT_NOT_FOUND)
	}

	llm, err := c.NewLLM(model)
	if err != nil {
		return nil, "", translateError(trace, err, i18n.ERROR_MODEL_NOT_CONFIGURED)
	}
	return llm, types.NormalizeLanguage(req.Language), nil
}
