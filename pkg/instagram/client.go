package instagram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/corpix/uarand"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/logger"
	"igcourier/pkg/models"
)

// Client talks to the Instagram feed endpoint. It may be shared across
// sessions; it holds no per-session state.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	cookie     string
	csrfToken  string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a feed client for the given cookie string. A cookie
// without a csrftoken field is logged as a configuration error; requests
// then proceed without the X-Csrftoken header and will likely be rejected
// upstream.
func NewClient(cookie string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	csrfToken, err := CSRFTokenFromCookie(cookie)
	if err != nil {
		log.WithError(err).Error("could not extract CSRF token from cookie")
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "en-US,en;q=0.9",
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
			"Sec-Fetch-Site":  "same-site",
		},
		cookie:    cookie,
		csrfToken: csrfToken,
		baseURL:   BaseURL,
		logger:    log,
	}
}

// SetHeader sets a custom header for the client.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetBaseURL overrides the feed base URL; used by tests to point at a
// mock server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// doRequest performs an HTTP request with the configured headers, the
// session cookie, the anti-bot tokens and a rotated User-Agent.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Cookie", c.cookie)
	req.Header.Set("X-Ig-App-Id", AppID)
	req.Header.Set("X-Asbd-Id", AsbdID)
	if c.csrfToken != "" {
		req.Header.Set("X-Csrftoken", c.csrfToken)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errs.NewNetwork("request to feed endpoint failed: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	return resp, nil
}

// FetchFeedPage requests one feed page and decodes its envelope. A non-200
// status surfaces as an upstream HTTP error carrying the status and reason;
// the client never retries on its own.
func (c *Client) FetchFeedPage(ctx context.Context, account string, pageSize int, cursor string) (*FeedResponse, error) {
	url := buildFeedURL(c.baseURL, account, pageSize, cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.NewNetwork("failed to create feed request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorWithFields("feed endpoint returned an error", map[string]interface{}{
			"account": account,
			"status":  resp.StatusCode,
		})
		return nil, errs.NewUpstreamHTTP(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewNetwork("failed to read feed response body: %v", err)
	}

	var feed FeedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse feed response", map[string]interface{}{
			"account":      account,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, errs.NewNetwork("failed to parse feed response: %v", err)
	}

	return &feed, nil
}

// FetchMediaPage walks one page of the account's feed: it fetches the
// envelope, runs the extractor over every item in order, and returns the
// concatenated media references together with the next-page cursor. An
// empty cursor in the result signals the final page.
func (c *Client) FetchMediaPage(ctx context.Context, account string, pageSize int, cursor string, mode models.Mode) ([]models.MediaRef, string, error) {
	feed, err := c.FetchFeedPage(ctx, account, pageSize, cursor)
	if err != nil {
		return nil, "", err
	}

	refs := ExtractAll(feed.Items, mode, c.logger)

	c.logger.InfoWithFields("feed page walked", map[string]interface{}{
		"account":     account,
		"items":       len(feed.Items),
		"media_refs":  len(refs),
		"next_cursor": feed.NextMaxID,
	})

	return refs, feed.NextMaxID, nil
}
