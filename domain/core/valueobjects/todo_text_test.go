package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "todolist-backend/pkg/errors"
)

func TestNewTodoText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
		errMsg  string
	}{
		{
			name:  "plain text",
			input: "Buy milk",
			want:  "Buy milk",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  Buy milk \n",
			want:  "Buy milk",
		},
		{
			name:    "empty text",
			input:   "",
			wantErr: true,
			errMsg:  "text cannot be empty",
		},
		{
			name:    "whitespace only",
			input:   " \t  ",
			wantErr: true,
			errMsg:  "text cannot be empty",
		},
		{
			name:  "text at max length",
			input: strings.Repeat("a", 100),
			want:  strings.Repeat("a", 100),
		},
		{
			name:    "text too long",
			input:   strings.Repeat("a", 101),
			wantErr: true,
			errMsg:  "text exceeds maximum length",
		},
		{
			name:  "multibyte runes count once",
			input: strings.Repeat("é", 100),
			want:  strings.Repeat("é", 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := NewTodoText(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, text.String())
		})
	}
}

func TestTodoText_Equals(t *testing.T) {
	a, err := NewTodoText("Buy milk")
	require.NoError(t, err)
	b, err := NewTodoText("  Buy milk  ")
	require.NoError(t, err)
	c, err := NewTodoText("Buy oat milk")
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}
