package code

import (
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// lang stores English and Chinese text
// lang 类型，用来存储英文和中文文本
type lang struct {
	en string
	zh string
}

const FallbackLang = "en"

var defaultLang atomic.Value

func init() {
	defaultLang.Store(FallbackLang)
}

// Message returns the message for language, falling back to English.
func (l lang) Message(language string) string {
	switch NormalizeLang(language) {
	case "zh":
		if l.zh != "" {
			return l.zh
		}
	}
	return l.en
}

// GetMessage returns the message in the process default language
// GetMessage 按全局默认语言返回消息
func (l lang) GetMessage() string {
	return l.Message(defaultLang.Load().(string))
}

// GetSupportedLanguages returns all languages lang carries.
func GetSupportedLanguages() []string {
	return []string{"en", "zh"}
}

// NormalizeLang maps values like "zh-CN", "zh_cn" or "en-US,en;q=0.9" to a
// supported language, or "" when none matches.
func NormalizeLang(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(language, ",;"); i >= 0 {
		language = language[:i]
	}
	language = strings.ReplaceAll(language, "_", "-")
	switch {
	case strings.HasPrefix(language, "zh"):
		return "zh"
	case strings.HasPrefix(language, "en"):
		return "en"
	}
	return ""
}

// SetGlobalDefaultLang sets the process default language
// 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	n := NormalizeLang(language)
	if n == "" {
		return errors.Errorf("unsupported language %q", language)
	}
	defaultLang.Store(n)
	return nil
}
