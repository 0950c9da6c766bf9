// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package validation checks API request bodies with go-playground/validator.
//
// One validator instance is shared process-wide. Field names in errors are
// taken from the json tag so messages name what the client sent:
//
//	type OpenViewRequest struct {
//	    Query  string            `json:"query" validate:"required,max=64"`
//	    Params map[string]string `json:"params" validate:"omitempty,max=16,dive,keys,param_key,endkeys,max=256"`
//	}
//
//	if errs := validation.Struct(&req); errs != nil {
//	    body := errs.APIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/feedloom/internal/models"
)

// Code is the API error code of every validation failure.
const Code = "VALIDATION_ERROR"

var (
	instance *validator.Validate
	once     sync.Once

	// Query parameters are forwarded to upstream APIs as form keys.
	paramKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Errors is every rule a value failed, in struct order.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError renders the errors as the response error body. A single
// failure keeps its own message; several are joined and listed under
// details.fields.
func (e Errors) APIError() *models.APIError {
	out := &models.APIError{Code: Code, Message: e.Error()}
	switch len(e) {
	case 0:
	case 1:
		out.Details = map[string]interface{}{"field": e[0].Field, "tag": e[0].Tag}
	default:
		fields := make([]map[string]interface{}, len(e))
		for i, fe := range e {
			fields[i] = map[string]interface{}{"field": fe.Field, "tag": fe.Tag, "message": fe.Message}
		}
		out.Details = map[string]interface{}{"fields": fields}
	}
	return out
}

// Validator returns the shared instance.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("param_key", func(fl validator.FieldLevel) bool {
			return paramKeyPattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s. It returns nil or a non-empty Errors.
func Struct(s interface{}) Errors {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "body", Tag: "invalid", Message: err.Error()}}
	}
	out := make(Errors, len(verrs))
	for i, fe := range verrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return out
}

var messages = map[string]string{
	"required":   "%s is required",
	"printascii": "%s must contain printable ASCII only",
	"param_key":  "%s is not a valid parameter name",
	"oneof":      "%s must be one of: %[2]s",
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if tmpl, ok := messages[fe.Tag()]; ok {
		if strings.Contains(tmpl, "%[2]s") {
			return fmt.Sprintf(tmpl, field, fe.Param())
		}
		return fmt.Sprintf(tmpl, field)
	}

	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Map, reflect.Slice:
		unit = " entries"
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
