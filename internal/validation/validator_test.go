// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type viewRequest struct {
	Query  string            `json:"query" validate:"required,max=32,printascii"`
	Params map[string]string `json:"params,omitempty" validate:"omitempty,max=4,dive,keys,param_key,endkeys,max=16"`
	Mode   string            `json:"mode" validate:"omitempty,oneof=own friends both"`
}

type statusRequest struct {
	Message string `json:"message" validate:"required,max=280"`
}

func TestValidator_Singleton(t *testing.T) {
	t.Parallel()

	if v := Validator(); v == nil || v != Validator() {
		t.Fatal("Validator() must return one shared instance")
	}
}

func TestStruct_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
	}{
		{"view", &viewRequest{Query: "feed"}},
		{"view with params", &viewRequest{Query: "own", Params: map[string]string{"count": "10", "max-results": "5"}, Mode: "both"}},
		{"status", &statusRequest{Message: "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if errs := Struct(tt.input); errs != nil {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
		want  FieldError
	}{
		{
			name:  "missing query",
			input: &viewRequest{},
			want:  FieldError{Field: "query", Tag: "required", Message: "query is required"},
		},
		{
			name:  "long query",
			input: &viewRequest{Query: strings.Repeat("q", 33)},
			want:  FieldError{Field: "query", Tag: "max", Param: "32", Message: "query must be at most 32 characters"},
		},
		{
			name:  "non ascii query",
			input: &viewRequest{Query: "feéd"},
			want:  FieldError{Field: "query", Tag: "printascii", Message: "query must contain printable ASCII only"},
		},
		{
			name:  "too many params",
			input: &viewRequest{Query: "feed", Params: map[string]string{"a": "", "b": "", "c": "", "d": "", "e": ""}},
			want:  FieldError{Field: "params", Tag: "max", Param: "4", Message: "params must be at most 4 entries"},
		},
		{
			name:  "bad mode",
			input: &viewRequest{Query: "feed", Mode: "everyone"},
			want:  FieldError{Field: "mode", Tag: "oneof", Param: "own friends both", Message: "mode must be one of: own friends both"},
		},
		{
			name:  "long status",
			input: &statusRequest{Message: strings.Repeat("x", 281)},
			want:  FieldError{Field: "message", Tag: "max", Param: "280", Message: "message must be at most 280 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			errs := Struct(tt.input)
			if len(errs) != 1 {
				t.Fatalf("got %d errors (%v), want 1", len(errs), errs)
			}
			if diff := cmp.Diff(tt.want, errs[0]); diff != "" {
				t.Errorf("field error mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStruct_BadParamKey(t *testing.T) {
	t.Parallel()

	errs := Struct(&viewRequest{Query: "feed", Params: map[string]string{"Bad Key": "x"}})
	if len(errs) != 1 || errs[0].Tag != "param_key" {
		t.Fatalf("errors = %+v, want one param_key failure", errs)
	}
	if !strings.Contains(errs[0].Message, "not a valid parameter name") {
		t.Errorf("message = %q", errs[0].Message)
	}
}

func TestErrors_APIError(t *testing.T) {
	t.Parallel()

	one := Errors{{Field: "query", Tag: "required", Message: "query is required"}}
	got := one.APIError()
	if got.Code != Code || got.Message != "query is required" {
		t.Errorf("single APIError = %+v", got)
	}
	if got.Details["field"] != "query" {
		t.Errorf("details = %+v", got.Details)
	}

	many := Struct(&viewRequest{Query: strings.Repeat("q", 40), Mode: "x"})
	if len(many) != 2 {
		t.Fatalf("got %d errors, want 2", len(many))
	}
	body := many.APIError()
	fields, ok := body.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("details.fields = %#v", body.Details["fields"])
	}
	if !strings.Contains(body.Message, "; ") {
		t.Errorf("message %q should join both failures", body.Message)
	}
}

func TestErrors_EmptyMessage(t *testing.T) {
	t.Parallel()

	if got := (Errors{}).Error(); got != "validation failed" {
		t.Errorf("Error() = %q", got)
	}
}
