package utils

import (
	"github.com/abadojack/whatlanggo"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

var whatLangOpts = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Cmn: true,
	},
}

func WhatLang(query string) string {
	info := whatlanggo.DetectWithOptions(query, whatLangOpts)
	return info.Lang.String()
}

// DetectPromptLanguage 任务未指定语言时，根据内容选择提示词语言
func DetectPromptLanguage(content string) string {
	if whatlanggo.DetectWithOptions(content, whatLangOpts).Lang == whatlanggo.Eng {
		return types.LANGUAGE_EN_KEY
	}
	return types.LANGUAGE_CN_KEY
}
