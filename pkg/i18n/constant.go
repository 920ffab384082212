package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL            = "error.internal"
	ERROR_NOT_FOUND           = "error.notfound"
	ERROR_INVALIDARGUMENT     = "error.invalidargument"
	ERROR_EXIST               = "error.exist"
	ERROR_FORBIDDEN           = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS   = "error.tooManyRequests"
	ERROR_UNSUPPORTED_FEATURE = "error.unsupported.feature"

	ERROR_PROJECT_NOT_FOUND      = "error.project.notfound"
	ERROR_TASK_NOT_FOUND         = "error.task.notfound"
	ERROR_TASK_TYPE_UNSUPPORTED  = "error.task.type.unsupported"
	ERROR_TASK_ALREADY_FINISHED  = "error.task.already_finished"
	ERROR_TASK_ENQUEUE_FAILED    = "error.task.enqueue_failed"
	ERROR_FILE_NOT_FOUND         = "error.file.notfound"
	ERROR_FILE_TYPE_UNSUPPORTED  = "error.file.type.unsupported"
	ERROR_MODEL_NOT_CONFIGURED   = "error.model.not_configured"
	ERROR_MODEL_CONFIG_INVALID   = "error.model.config_invalid"
	ERROR_AI_REQUEST_FAILED      = "error.ai.request_failed"
	ERROR_AI_RESPONSE_INVALID    = "error.ai.response_invalid"
	ERROR_QUESTION_NOT_FOUND     = "error.question.notfound"
	ERROR_GA_PAIR_NOT_FOUND      = "error.gapair.notfound"
	ERROR_GA_PAIR_CONTENT_EMPTY  = "error.gapair.content_empty"
	ERROR_DISTILL_TOPIC_REQUIRED = "error.distill.topic_required"
)
