package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	val "github.com/go-playground/validator/v10"
)

type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

func (v ValidErrors) ErrorsToString() string {
	return strings.Join(v.Errors(), ", ")
}

// BindAndValid binds the body (or query string for GET) into v and runs the
// validator. Field errors are translated with the request translator.
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors

	if err := c.ShouldBind(v); err != nil {
		return false, appendBindError(c, errs, err)
	}
	return true, nil
}

func appendBindError(c *gin.Context, errs ValidErrors, err error) ValidErrors {
	verrs, ok := err.(val.ValidationErrors)
	if !ok {
		return append(errs, &ValidError{Key: "request", Message: err.Error()})
	}

	trans, _ := c.Value("trans").(ut.Translator)
	for key, value := range verrs.Translate(trans) {
		errs = append(errs, &ValidError{
			Key:     key,
			Message: value,
		})
	}
	return errs
}
