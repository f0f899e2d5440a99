package code

import (
	"errors"
	"sync/atomic"
)

// Supported message languages
// 支持的消息语言
const (
	LangEN   = "en"
	LangZhCN = "zh_cn"

	FALLBACK_LNG = LangEN
)

// lang stores the English and Chinese text of a message
// lang 用来存储英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

var lng atomic.Value

func init() {
	lng.Store(FALLBACK_LNG)
}

// GetMessage returns the message in the global language, falling back to English
// GetMessage 根据全局语言返回相应的消息，缺失时回退到英文
func (l lang) GetMessage() string {
	if msg := l.get(GetGlobalDefaultLang()); msg != "" {
		return msg
	}
	return l.en
}

func (l lang) get(language string) string {
	switch language {
	case LangZhCN:
		return l.zh_cn
	default:
		return l.en
	}
}

// GetSupportedLanguages returns all supported languages
// GetSupportedLanguages 返回支持的所有语言
func GetSupportedLanguages() []string {
	return []string{LangEN, LangZhCN}
}

// SetGlobalDefaultLang sets the global default language
// SetGlobalDefaultLang 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	for _, l := range GetSupportedLanguages() {
		if language == l {
			lng.Store(language)
			return nil
		}
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang gets the global default language
// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	return lng.Load().(string)
}
