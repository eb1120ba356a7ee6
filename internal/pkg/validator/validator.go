package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator 规则表与战斗记录的结构体校验器
type Validator struct {
	validate *validator.Validate
}

// New 创建校验器并注册自定义规则
func New() *Validator {
	v := validator.New()

	// 错误中使用 yaml/json 字段名，便于定位配置文件中的问题
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"yaml", "json"} {
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

	v.RegisterValidation("probability", validateProbability)
	v.RegisterValidation("stat_stage", validateStatStage)
	v.RegisterValidation("fraction", validateFraction)

	return &Validator{validate: v}
}

// Validate 验证结构体
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

var defaultValidator = New()

// Struct 使用默认校验器验证结构体
func Struct(i interface{}) error {
	return defaultValidator.Validate(i)
}

// validateProbability 概率必须在 [0, 1]
func validateProbability(fl validator.FieldLevel) bool {
	p := fl.Field().Float()
	return p >= 0 && p <= 1
}

// validateStatStage 能力等级变化必须在 [-6, 6]
func validateStatStage(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= -6 && n <= 6
}

// validateFraction 最大 HP 比例必须在 (0, 1]
func validateFraction(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return f > 0 && f <= 1
}
