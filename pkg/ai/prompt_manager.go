package ai

import (
	"strings"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const (
	SCENE_DISTILL_TAGS       = "distill_tags"
	SCENE_DISTILL_QUESTIONS  = "distill_questions"
	SCENE_GA_GENERATION      = "ga_generation"
	SCENE_QUESTION           = "question"
	SCENE_QUESTION_GA        = "question_ga"
	SCENE_QUESTION_LABEL     = "question_label"
	SCENE_ANSWER             = "answer"
	SCENE_DOMAIN_TREE        = "domain_tree"
	SCENE_DOMAIN_TREE_APPEND = "domain_tree_append"
	SCENE_VISION_CONVERT     = "vision_convert"
	SCENE_VISION_RETITLE     = "vision_retitle"
)

// PromptTemplate 代表一个完整的 prompt 模板
// Header 为项目级全局提示词，Body 为场景模板
type PromptTemplate struct {
	Header string
	Body   string
	Lang   string
	Vars   map[string]string
}

// Build 拼接 Header + Body 并替换所有变量
func (pt *PromptTemplate) Build() string {
	prompt := pt.Body
	if pt.Header != "" {
		prompt = pt.Header + "\n\n" + pt.Body
	}
	return strings.TrimSpace(ReplaceVars(prompt, pt.Vars))
}

func (pt *PromptTemplate) SetVar(key, value string) *PromptTemplate {
	if pt.Vars == nil {
		pt.Vars = make(map[string]string)
	}
	pt.Vars[key] = value
	return pt
}

func (pt *PromptTemplate) AppendBody(content string) {
	if pt.Body == "" {
		pt.Body = content
	} else {
		pt.Body += "\n\n" + content
	}
}

type ScenePrompt struct {
	CN string
	EN string
}

// PromptManager 管理各场景的中英文模板
type PromptManager struct {
	scenes map[string]*ScenePrompt
}

func NewPromptManager() *PromptManager {
	pm := &PromptManager{
		scenes: make(map[string]*ScenePrompt),
	}
	pm.initDefaultPrompts()
	return pm
}

func (pm *PromptManager) initDefaultPrompts() {
	pm.Register(SCENE_DISTILL_TAGS, PROMPT_DISTILL_TAGS_CN, PROMPT_DISTILL_TAGS_EN)
	pm.Register(SCENE_DISTILL_QUESTIONS, PROMPT_DISTILL_QUESTIONS_CN, PROMPT_DISTILL_QUESTIONS_EN)
	pm.Register(SCENE_GA_GENERATION, PROMPT_GA_GENERATION_CN, PROMPT_GA_GENERATION_EN)
	pm.Register(SCENE_QUESTION, PROMPT_QUESTION_CN, PROMPT_QUESTION_EN)
	pm.Register(SCENE_QUESTION_GA, PROMPT_QUESTION_GA_CN, PROMPT_QUESTION_GA_EN)
	pm.Register(SCENE_QUESTION_LABEL, PROMPT_QUESTION_LABEL_CN, PROMPT_QUESTION_LABEL_EN)
	pm.Register(SCENE_ANSWER, PROMPT_ANSWER_CN, PROMPT_ANSWER_EN)
	pm.Register(SCENE_DOMAIN_TREE, PROMPT_DOMAIN_TREE_CN, PROMPT_DOMAIN_TREE_EN)
	pm.Register(SCENE_DOMAIN_TREE_APPEND, PROMPT_DOMAIN_TREE_APPEND_CN, PROMPT_DOMAIN_TREE_APPEND_EN)
	pm.Register(SCENE_VISION_CONVERT, PROMPT_VISION_CONVERT_CN, PROMPT_VISION_CONVERT_EN)
	pm.Register(SCENE_VISION_RETITLE, PROMPT_VISION_RETITLE_CN, PROMPT_VISION_RETITLE_EN)
}

// Register 覆盖或新增场景模板
func (pm *PromptManager) Register(scene, cn, en string) {
	pm.scenes[scene] = &ScenePrompt{CN: cn, EN: en}
}

// Template 根据语言选择场景模板，未知场景返回空模板
func (pm *PromptManager) Template(scene, lang string) *PromptTemplate {
	tpl := &PromptTemplate{
		Lang: types.NormalizeLanguage(lang),
		Vars: make(map[string]string),
	}
	if tpl.Lang == "" {
		tpl.Lang = MODEL_BASE_LANGUAGE_CN
	}

	p, ok := pm.scenes[scene]
	if !ok {
		return tpl
	}
	if tpl.Lang == MODEL_BASE_LANGUAGE_EN {
		tpl.Body = p.EN
	} else {
		tpl.Body = p.CN
	}
	return tpl
}

var defaultPromptManager = NewPromptManager()

// Prompt is shorthand for the package level manager.
func Prompt(scene, lang string) *PromptTemplate {
	return defaultPromptManager.Template(scene, lang)
}
