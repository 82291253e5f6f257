package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	model "github.com/Itish41/complytrack/models"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the task enum rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return model.TaskStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("taskseverity", func(fl validator.FieldLevel) bool {
		s := model.TaskSeverity(fl.Field().String())
		return s == model.SeverityMandatory || s == model.SeverityRecommended
	})
	// Nullable fields validate as their value; absent or null is empty.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		n, ok := field.Interface().(Nullable[string])
		if !ok || n.Value == nil {
			return nil
		}
		return *n.Value
	}, Nullable[string]{})
	return v
}

// checkStruct validates in and converts failures into a ValidationError
// naming each offending field.
func checkStruct(v *validator.Validate, in interface{}) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Msg: "invalid input", Err: err}
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Msg: "invalid input: " + strings.Join(parts, ", "), Err: err}
}
