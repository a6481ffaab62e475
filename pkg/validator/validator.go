package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Enumerations checked by the custom tags. Kept here so the validator does not
// depend on the domain package.
var (
	NoteTypes  = []string{"note", "template"}
	FieldKinds = []string{"text", "number", "date", "checkbox", "link", "media"}
)

// CustomValidator is installed as gin's binding validator.
type CustomValidator struct {
	Once     sync.Once
	Validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		v.lazyinit()
		if err := v.Validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.Once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
		// Report json names so messages match the request body.
		v.Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		registerEnum(v.Validate, "notetype", NoteTypes)
		registerEnum(v.Validate, "fieldkind", FieldKinds)
	})
}

func registerEnum(v *validator.Validate, tag string, values []string) {
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, allowed := range values {
			if s == allowed {
				return true
			}
		}
		return false
	})
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()
	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// RegisterCustom installs the custom validator as gin's default.
func RegisterCustom() *CustomValidator {
	v := NewCustomValidator()
	binding.Validator = v
	return v
}

// NewTranslator builds the en/zh universal translator and registers the
// default validator messages plus messages for the custom tags.
func NewTranslator(v *CustomValidator) (*ut.UniversalTranslator, error) {
	enT := en.New()
	uni := ut.New(enT, enT, zh.New())
	validate := v.Engine().(*validator.Validate)

	enTrans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}
	zhTrans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, zhTrans); err != nil {
		return nil, err
	}

	messages := map[ut.Translator]map[string]string{
		enTrans: {
			"notetype":  "{0} must be one of " + strings.Join(NoteTypes, ", "),
			"fieldkind": "{0} must be one of " + strings.Join(FieldKinds, ", "),
		},
		zhTrans: {
			"notetype":  "{0}必须是 " + strings.Join(NoteTypes, ", ") + " 之一",
			"fieldkind": "{0}必须是 " + strings.Join(FieldKinds, ", ") + " 之一",
		},
	}
	for trans, byTag := range messages {
		for tag, text := range byTag {
			tag, text, trans := tag, text, trans
			err := validate.RegisterTranslation(tag, trans,
				func(ut ut.Translator) error { return ut.Add(tag, text, true) },
				func(ut ut.Translator, fe validator.FieldError) string {
					msg, _ := ut.T(tag, fe.Field())
					return msg
				})
			if err != nil {
				return nil, err
			}
		}
	}
	return uni, nil
}
