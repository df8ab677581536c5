package requirements

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once
var validate *validator.Validate

func reqname(fl validator.FieldLevel) bool {
	return nameRe.MatchString(fl.Field().String())
}

func reqversion(fl validator.FieldLevel) bool {
	return versionRe.MatchString(fl.Field().String())
}

func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")

		if err := validate.RegisterValidation("reqname", reqname); err != nil {
			log.Fatalf("Unexpected err %v", err)
		}
		if err := validate.RegisterValidation("reqversion", reqversion); err != nil {
			log.Fatalf("Unexpected err %v", err)
		}

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

			if name == "-" {
				return ""
			}

			return name
		})
	})
	return validate
}

func ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		if err := Validator().Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()

	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// DefaultValidator plugs the shared validator into gin's binding layer so the
// custom tags are honored on bound request bodies.
type DefaultValidator struct{}

var _ binding.StructValidator = &DefaultValidator{}

func (v *DefaultValidator) ValidateStruct(obj interface{}) error {
	return ValidateStruct(obj)
}

func (v *DefaultValidator) Engine() interface{} {
	return Validator()
}
