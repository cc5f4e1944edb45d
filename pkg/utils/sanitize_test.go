package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain", in: "Is this available?", want: "Is this available?"},
		{name: "trims", in: "  Yes \n", want: "Yes"},
		{name: "keeps newlines", in: "line one\nline two", want: "line one\nline two"},
		{name: "strips control", in: "hi\x00there\x07", want: "hithere"},
		{name: "empty", in: "   ", wantErr: ErrEmptyMessage},
		{name: "only control", in: "\x01\x02", wantErr: ErrEmptyMessage},
		{name: "too long", in: strings.Repeat("a", MaxMessageLength+1), wantErr: ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeMessage(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeMessage_MultibyteLimit(t *testing.T) {
	body := strings.Repeat("é", MaxMessageLength)
	got, err := SanitizeMessage(body)
	assert.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "héll", TruncateString("héllo", 4))
	assert.Equal(t, "hi", TruncateString("hi", 10))
}
