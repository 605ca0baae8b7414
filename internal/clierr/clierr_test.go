package clierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bfix/sysdyn/internal/model"
)

func TestFormatRendersCaretUnderFailurePosition(t *testing.T) {
	err := &model.ParseError{Message: "unexpected end of expression", Source: "Population *", Pos: 12}
	out := Format(err)

	assert.Contains(t, out, "Population *")
	assert.Contains(t, out, "unexpected end of expression")
	assert.Contains(t, out, "column 13")
}

func TestFormatFallsBackForNonParseErrors(t *testing.T) {
	out := Format(errors.New("some other failure"))
	assert.Equal(t, "some other failure", out)
}
