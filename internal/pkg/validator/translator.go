package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError 验证错误详情
type ValidationError struct {
	Field   string `json:"field"`   // 字段路径
	Message string `json:"message"` // 错误消息
	Tag     string `json:"tag"`     // 验证标签（如：required, probability）
	Value   string `json:"value"`   // 实际值
}

// TranslateValidationErrors 翻译所有验证错误（返回详细列表）
func TranslateValidationErrors(err error) []ValidationError {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// 非 validator 错误，返回通用错误
		return []ValidationError{
			{
				Field:   "record",
				Message: err.Error(),
				Tag:     "unknown",
			},
		}
	}

	result := make([]ValidationError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		result = append(result, ValidationError{
			Field:   fieldErr.Namespace(),
			Message: translateFieldError(fieldErr),
			Tag:     fieldErr.Tag(),
			Value:   sanitizeValue(fieldErr.Value()),
		})
	}

	return result
}

// TranslateValidationError 返回第一个验证错误的中文消息
func TranslateValidationError(err error) string {
	if err == nil {
		return ""
	}

	errs := TranslateValidationErrors(err)
	if len(errs) > 0 {
		return errs[0].Message
	}

	return err.Error()
}

func sanitizeValue(value interface{}) string {
	if value == nil {
		return ""
	}

	strValue := fmt.Sprintf("%v", value)
	if len(strValue) > 50 {
		return strValue[:50] + "..."
	}

	return strValue
}

// translateFieldError 翻译单个字段验证错误
func translateFieldError(fe validator.FieldError) string {
	field := fe.Namespace()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s不能为空", field)
	case "min":
		if fe.Kind().String() == "string" || fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s长度不能少于%s", field, fe.Param())
		}
		return fmt.Sprintf("%s不能小于%s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" || fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s长度不能超过%s", field, fe.Param())
		}
		return fmt.Sprintf("%s不能大于%s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s必须大于或等于%s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s必须小于或等于%s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s必须大于%s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s必须大于或等于%s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s的值必须是以下之一: %s", field, fe.Param())
	case "probability":
		return fmt.Sprintf("%s必须在 0 到 1 之间", field)
	case "stat_stage":
		return fmt.Sprintf("%s必须在 -6 到 6 之间", field)
	case "fraction":
		return fmt.Sprintf("%s必须大于 0 且不超过 1", field)
	case "dive":
		return fmt.Sprintf("%s包含无效的值", field)
	default:
		return fmt.Sprintf("%s验证失败: %s", field, fe.Tag())
	}
}
