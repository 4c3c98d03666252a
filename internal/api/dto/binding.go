package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"bizdir_listing/internal/wizard"
)

// 自定义校验 tag，与表单字段校验规则保持一致
var customValidators = map[string]func(v *string) bool{
	"listing_email": wizard.IsValidEmail,
}

// RegisterValidators 向 gin 的 validator 注册自定义 tag，启动时调用一次
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("binding 引擎不是 validator/v10")
	}
	for tag, check := range customValidators {
		check := check
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return check(&s)
		})
		if err != nil {
			return fmt.Errorf("注册校验 %s 失败: %w", tag, err)
		}
	}
	return nil
}
