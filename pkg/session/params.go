package session

import (
	"regexp"
	"strconv"
	"strings"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/instagram"
)

var whitespacePattern = regexp.MustCompile(`\s`)

// Parameters are the parsed key/value pairs of a feed request message.
// The account is required; page size and cursor are optional.
type Parameters struct {
	Account  string
	PageSize int
	Cursor   string
}

// ParseParameters parses a message of newline-separated "key = value"
// pairs. Whitespace inside a line is insignificant. A line without both a
// key and a value, or a message without a username, is a validation error
// and must not change session state.
func ParseParameters(text string, defaultPageSize int) (*Parameters, error) {
	pairs := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		stripped := whitespacePattern.ReplaceAllString(line, "")
		if stripped == "" {
			continue
		}
		key, value, found := strings.Cut(stripped, "=")
		if !found || key == "" || value == "" {
			return nil, errs.NewValidation("malformed parameter line: %q", line)
		}
		pairs[key] = value
	}

	if len(pairs) == 0 {
		return nil, errs.NewValidation("no parameters supplied")
	}

	account, ok := pairs["username"]
	if !ok {
		return nil, errs.NewValidation("username is required")
	}
	account = instagram.SanitizeAccountName(account)
	if !instagram.IsValidAccountName(account) {
		return nil, errs.NewValidation("invalid account name: %q", account)
	}

	params := &Parameters{
		Account:  account,
		PageSize: defaultPageSize,
	}

	if raw, ok := pairs["count"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, errs.NewValidation("invalid count: %q", raw)
		}
		params.PageSize = n
	}

	if cursor, ok := pairs["max_id"]; ok {
		params.Cursor = cursor
	}

	return params, nil
}
