package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
)

type MessageContext = openai.ChatCompletionMessage

// LLM 项目维度的模型客户端，每个任务根据 modelInfo 构造
type LLM interface {
	Chat(ctx context.Context, messages []MessageContext, opts ...ChatOption) (GenerateResponse, error)
	ModelName() string
}

// RequestObserver 每次模型请求结束后回调，用于指标统计
type RequestObserver func(model string, took time.Duration, err error)

type ChatOptions struct {
	Temperature *float32
	TopP        *float32
	MaxTokens   int
}

type ChatOption func(opts *ChatOptions)

func WithTemperature(v float32) ChatOption {
	return func(opts *ChatOptions) {
		opts.Temperature = &v
	}
}

func WithTopP(v float32) ChatOption {
	return func(opts *ChatOptions) {
		opts.TopP = &v
	}
}

func WithMaxTokens(n int) ChatOption {
	return func(opts *ChatOptions) {
		opts.MaxTokens = n
	}
}

func NewChatOptions(opts ...ChatOption) ChatOptions {
	var o ChatOptions
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

type GenerateResponse struct {
	Received []string
	Usage    *openai.Usage
	Model    string
}

func (r GenerateResponse) Message() string {
	if len(r.Received) == 0 {
		return ""
	}
	return strings.Join(r.Received, "")
}

func UserMessage(content string) MessageContext {
	return MessageContext{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	}
}

func SystemMessage(content string) MessageContext {
	return MessageContext{
		Role:    openai.ChatMessageRoleSystem,
		Content: content,
	}
}

// ImageMessage 将图片以 data url 的形式附加到用户消息中
func ImageMessage(prompt string, image []byte, mimeType string) MessageContext {
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	return MessageContext{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}
}

// GetResponse 单轮对话，返回去除思考过程后的文本
func GetResponse(ctx context.Context, llm LLM, prompt string, opts ...ChatOption) (string, error) {
	resp, err := GetResponseWithCOT(ctx, llm, prompt, opts...)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

type COTResponse struct {
	Answer string
	COT    string
	Model  string
	Usage  *openai.Usage
}

func GetResponseWithCOT(ctx context.Context, llm LLM, prompt string, opts ...ChatOption) (COTResponse, error) {
	resp, err := llm.Chat(ctx, []MessageContext{UserMessage(prompt)}, opts...)
	if err != nil {
		return COTResponse{}, err
	}
	answer, cot := SplitThink(resp.Message())
	return COTResponse{
		Answer: answer,
		COT:    cot,
		Model:  lo.If(resp.Model != "", resp.Model).Else(llm.ModelName()),
		Usage:  resp.Usage,
	}, nil
}

var thinkRegexp = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// SplitThink separates a leading <think> block emitted by reasoning models.
func SplitThink(text string) (answer, cot string) {
	matches := thinkRegexp.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		// 部分模型只输出结束标签
		if idx := strings.Index(text, "</think>"); idx >= 0 {
			return strings.TrimSpace(text[idx+len("</think>"):]), strings.TrimSpace(text[:idx])
		}
		return strings.TrimSpace(text), ""
	}
	thoughts := lo.Map(matches, func(m []string, _ int) string {
		return strings.TrimSpace(m[1])
	})
	return strings.TrimSpace(thinkRegexp.ReplaceAllString(text, "")), strings.Join(thoughts, "\n")
}

const defaultTokenEncoding = "cl100k_base"

// CountTokens 估算文本 token 数，未知模型使用 cl100k_base 编码
func CountTokens(text, model string) (int, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if tkm, err = tiktoken.GetEncoding(defaultTokenEncoding); err != nil {
			return 0, fmt.Errorf("get token encoding: %w", err)
		}
	}
	return len(tkm.Encode(text, nil, nil)), nil
}

func NumTokens(messages []openai.ChatCompletionMessage, model string) (numTokens int, err error) {
	var tokensPerMessage, tokensPerName int
	switch model {
	case "gpt-3.5-turbo-0613",
		"gpt-3.5-turbo-16k-0613",
		"gpt-4-0314",
		"gpt-4-32k-0314",
		"gpt-4-0613",
		"gpt-4-32k-0613":
		tokensPerMessage = 3
		tokensPerName = 1
	case "gpt-3.5-turbo-0301":
		tokensPerMessage = 4
		tokensPerName = -1
	default:
		if strings.Contains(model, "gpt-4") {
			return NumTokens(messages, "gpt-4-0613")
		}
		return NumTokens(messages, "gpt-3.5-turbo-0613")
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		err = fmt.Errorf("encoding for model: %v", err)
		return
	}

	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		for _, part := range message.MultiContent {
			numTokens += len(tkm.Encode(part.Text, nil, nil))
		}
		numTokens += len(tkm.Encode(message.Role, nil, nil))
		numTokens += len(tkm.Encode(message.Name, nil, nil))
		if message.Name != "" {
			numTokens += tokensPerName
		}
	}
	numTokens += 3 // every reply is primed with <|start|>assistant<|message|>
	return numTokens, nil
}
