package instagram

import (
	"fmt"
	"regexp"

	errs "igcourier/pkg/errors"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// FeedEndpoint is the endpoint pattern for a user's post feed
	FeedEndpoint = "/api/v1/feed/user/%s/username/"

	// DefaultPageSize is the default number of feed items per request
	DefaultPageSize = 33

	// AppID is the X-Ig-App-Id anti-bot header value
	AppID = "936619743392459"

	// AsbdID is the X-Asbd-Id anti-bot header value
	AsbdID = "129477"
)

var csrfPattern = regexp.MustCompile(`csrftoken=([a-zA-Z0-9_-]+)`)

// BuildFeedURL constructs the URL for fetching one feed page. The max_id
// parameter is appended exactly when a cursor value is present; an empty
// cursor requests the first page.
func BuildFeedURL(account string, pageSize int, cursor string) string {
	return buildFeedURL(BaseURL, account, pageSize, cursor)
}

func buildFeedURL(base string, account string, pageSize int, cursor string) string {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	url := fmt.Sprintf(base+FeedEndpoint+"?count=%d", account, pageSize)
	if cursor != "" {
		url += fmt.Sprintf("&max_id=%s", cursor)
	}
	return url
}

// CSRFTokenFromCookie extracts the csrftoken value from a cookie string.
// A cookie without one is a configuration error; the caller decides
// whether to proceed without the header.
func CSRFTokenFromCookie(cookie string) (string, error) {
	matches := csrfPattern.FindStringSubmatch(cookie)
	if matches == nil {
		return "", errs.NewConfiguration("CSRF token is missing from the cookie; ensure a valid csrftoken field is included")
	}
	return matches[1], nil
}

// IsValidAccountName checks an account name against Instagram naming rules.
func IsValidAccountName(account string) bool {
	if account == "" || len(account) > 30 {
		return false
	}
	for _, char := range account {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeAccountName strips a leading @ and trailing slashes or spaces.
func SanitizeAccountName(account string) string {
	if account == "" {
		return ""
	}
	if account[0] == '@' {
		account = account[1:]
	}
	for len(account) > 0 && (account[len(account)-1] == '/' || account[len(account)-1] == ' ') {
		account = account[:len(account)-1]
	}
	return account
}
