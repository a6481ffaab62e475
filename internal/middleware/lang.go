package middleware

import (
	"github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// The language is taken from ?lang=, the lang header or Accept-Language.
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {

	return func(c *gin.Context) {

		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		} else {
			lang = c.GetHeader("Accept-Language")
		}

		lang = code.NormalizeLang(lang)
		if lang == "" {
			lang = code.FallbackLang
		}

		trans, found := uni.GetTranslator(lang)
		if !found {
			trans, _ = uni.GetTranslator(code.FallbackLang)
		}
		c.Set("trans", trans)
		app.SetLang(c, lang)

		c.Next()
	}
}
