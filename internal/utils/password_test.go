package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	cases := map[string]error{
		"":                         ErrPasswordTooShort,
		"12345":                    ErrPasswordTooShort,
		"secret":                   nil,
		"pässwö":                   nil,
		"\xff\xfe\xfd\xfc\xfb\xfa": ErrPasswordEncoding,
		strings.Repeat("a", 72):    nil,
		strings.Repeat("a", 73):    ErrPasswordTooLong,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidatePassword(in), "%q", in)
	}
}
