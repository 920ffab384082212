package ai

import "strings"

const (
	PROMPT_VAR_TEXT              = "${text}"
	PROMPT_VAR_TEXT_LENGTH       = "${text_length}"
	PROMPT_VAR_NUMBER            = "${number}"
	PROMPT_VAR_TAG               = "${tag}"
	PROMPT_VAR_TAG_PATH          = "${tag_path}"
	PROMPT_VAR_EXISTING          = "${existing}"
	PROMPT_VAR_GLOBAL_PROMPT     = "${global_prompt}"
	PROMPT_VAR_GA_PROMPT         = "${ga_prompt}"
	PROMPT_VAR_QUESTION          = "${question}"
	PROMPT_VAR_TOC               = "${toc}"
	PROMPT_VAR_EXISTING_TAGS     = "${existing_tags}"
	PROMPT_VAR_PAGE              = "${page}"
	PROMPT_VAR_GENRE             = "${genre}"
	PROMPT_VAR_AUDIENCE          = "${audience}"
	PROMPT_VAR_MARKDOWN_HEADINGS = "${headings}"
)

const (
	MODEL_BASE_LANGUAGE_CN = "zh-CN"
	MODEL_BASE_LANGUAGE_EN = "en"
)

// ReplaceVars replaces every ${key} placeholder found in vars.
func ReplaceVars(tpl string, vars map[string]string) string {
	for k, v := range vars {
		tpl = strings.ReplaceAll(tpl, k, v)
	}
	return tpl
}
