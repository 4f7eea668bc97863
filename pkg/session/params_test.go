package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcourier/pkg/errors"
)

func TestParseParametersFull(t *testing.T) {
	text := "username = natgeo\ncount = 12\nmax_id = 3614180064908948125_787132"

	params, err := ParseParameters(text, 33)
	require.NoError(t, err)

	assert.Equal(t, "natgeo", params.Account)
	assert.Equal(t, 12, params.PageSize)
	assert.Equal(t, "3614180064908948125_787132", params.Cursor)
}

func TestParseParametersUsernameOnly(t *testing.T) {
	params, err := ParseParameters("username = natgeo", 33)
	require.NoError(t, err)

	assert.Equal(t, "natgeo", params.Account)
	assert.Equal(t, 33, params.PageSize, "count defaults to the configured page size")
	assert.Empty(t, params.Cursor)
}

func TestParseParametersWhitespaceInsignificant(t *testing.T) {
	params, err := ParseParameters("  username=natgeo  \n\n count =	5 ", 33)
	require.NoError(t, err)
	assert.Equal(t, "natgeo", params.Account)
	assert.Equal(t, 5, params.PageSize)
}

func TestParseParametersSanitizesAccount(t *testing.T) {
	params, err := ParseParameters("username = @natgeo", 33)
	require.NoError(t, err)
	assert.Equal(t, "natgeo", params.Account)
}

func TestParseParametersValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing value", "username ="},
		{"missing key", "= natgeo"},
		{"no separator", "username natgeo"},
		{"missing username", "count = 5"},
		{"empty message", "   \n  "},
		{"invalid account characters", "username = nat geo!"},
		{"count not a number", "username = natgeo\ncount = many"},
		{"count zero", "username = natgeo\ncount = 0"},
		{"count negative", "username = natgeo\ncount = -3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParameters(tt.text, 33)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))
		})
	}
}
