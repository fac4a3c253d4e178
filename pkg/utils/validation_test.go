package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "todolist-backend/pkg/errors"
)

type sampleRequest struct {
	Text   string `json:"text" validate:"required,max=100"`
	Status string `json:"status" validate:"omitempty,oneof=active completed all"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sampleRequest
		wantErr string
	}{
		{"valid", sampleRequest{Text: "Buy milk"}, ""},
		{"missing text", sampleRequest{}, "text is required"},
		{"text too long", sampleRequest{Text: strings.Repeat("a", 101)}, "text must be at most 100 characters"},
		{"bad status", sampleRequest{Text: "x", Status: "archived"}, "status must be one of: active completed all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
