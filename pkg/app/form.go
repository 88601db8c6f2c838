package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	val "github.com/go-playground/validator/v10"
)

// ValidError 单个字段校验错误
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
	return v.Error()
}

// BindAndValid binds request params and validates them
// BindAndValid 绑定请求参数并校验
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors
	err := c.ShouldBind(v)
	if err != nil {
		verrs, ok := err.(val.ValidationErrors)
		if !ok {
			errs = append(errs, &ValidError{Key: "request", Message: err.Error()})
			return false, errs
		}
		for _, verr := range verrs {
			errs = append(errs, &ValidError{
				Key:     verr.Field(),
				Message: verr.Error(),
			})
		}
		return false, errs
	}
	return true, nil
}
