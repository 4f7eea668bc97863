// Package linkresolver turns a shared Instagram post link into the direct
// media URLs referenced by it, via a secondary scraping service.
package linkresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/logger"
)

const (
	// DefaultEndpoint is the secondary link-resolution service.
	DefaultEndpoint = "https://v3.igdownloader.app/api/ajaxSearch"

	// downloadItemSelector locates the fixed sequence of download items
	// inside the HTML fragment returned by the service.
	downloadItemSelector = `ul.download-box li div.download-items div.download-items__btn`

	defaultTimeout = 60 * time.Second
)

// postLinkPattern is the accepted shape of a shareable post link: two path
// segments followed by a known share-marker query parameter.
var postLinkPattern = regexp.MustCompile(`^https://www\.instagram\.com/[^/]+/[^/]+/\?(utm_source=ig_web_copy_link|igsh=.+)`)

// ValidPostLink reports whether a link qualifies for resolution. A
// non-matching link is a local validation failure, not an upstream error.
func ValidPostLink(link string) bool {
	return postLinkPattern.MatchString(link)
}

// envelope is the JSON wrapper of the service response; Data carries an
// HTML fragment to be mined with selectors.
type envelope struct {
	Status string `json:"status"`
	Data   string `json:"data"`
}

// Resolver calls the secondary scraping service for a single post link.
type Resolver struct {
	httpClient *http.Client
	endpoint   string
	logger     logger.Logger
}

// New creates a Resolver against the default service endpoint.
func New(log logger.Logger) *Resolver {
	return NewWithEndpoint(DefaultEndpoint, defaultTimeout, log)
}

// NewWithEndpoint creates a Resolver against a custom endpoint; used by
// tests to point at a mock service.
func NewWithEndpoint(endpoint string, timeout time.Duration, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		logger:     log,
	}
}

// Resolve validates the post link, calls the service once, and returns a
// lazy, single-pass sequence of the direct media URLs found in the
// returned markup. Media kind is not known at this stage; it is inferred
// later from the download's Content-Type.
func (r *Resolver) Resolve(ctx context.Context, link string) (iter.Seq[string], error) {
	if !ValidPostLink(link) {
		return nil, errs.NewValidation("not a recognized post link: %s", link)
	}

	requestURL := fmt.Sprintf("%s?recaptchaToken=&q=%s&t=media&lang=id", r.endpoint, url.QueryEscape(link))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, nil)
	if err != nil {
		return nil, errs.NewNetwork("failed to create resolver request: %v", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", uarand.GetRandom())

	r.logger.DebugWithFields("resolving post link", map[string]interface{}{
		"link": link,
	})

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewNetwork("request to link resolver failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorWithFields("link resolver returned an error", map[string]interface{}{
			"link":   link,
			"status": resp.StatusCode,
		})
		return nil, errs.NewUpstreamHTTP(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewNetwork("failed to read resolver response: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errs.NewNetwork("failed to parse resolver response: %v", err)
	}

	return URLsFromFragment(env.Data), nil
}

// URLsFromFragment mines the HTML fragment for download-item anchors and
// returns their hrefs as a lazy sequence in document order. Each element
// is resolved from the markup as it is consumed. A fragment that no
// longer matches the expected selectors yields zero elements; it is a
// pure function of the fragment.
func URLsFromFragment(fragment string) iter.Seq[string] {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return func(yield func(string) bool) {}
	}

	items := doc.Find(downloadItemSelector)

	return func(yield func(string) bool) {
		for i := 0; i < items.Length(); i++ {
			href, ok := items.Eq(i).Find("a").Attr("href")
			if !ok || href == "" {
				continue
			}
			if !yield(href) {
				return
			}
		}
	}
}
