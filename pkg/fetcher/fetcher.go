// Package fetcher resolves a media URL to its raw bytes, a filename and a
// content type.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/corpix/uarand"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/logger"
	"igcourier/pkg/models"
	"igcourier/pkg/retry"
)

const (
	// DefaultTimeout bounds a single media download. Video payloads can
	// be large, so this is generous.
	DefaultTimeout = 240 * time.Second

	// syntheticPrefix starts every synthesized filename.
	syntheticPrefix = "IGCourier"

	timestampLayout = "20060102150405"
)

var (
	jpgPattern = regexp.MustCompile(`/([^/?]+\.jpg)`)
	mp4Pattern = regexp.MustCompile(`/([^/?]+\.mp4)`)
)

// FilenameFromURL derives a filename from a media URL: the first .jpg path
// segment wins, then the first .mp4 segment, and when neither matches a
// synthetic name is built from a fixed prefix plus the given timestamp.
func FilenameFromURL(url string, now time.Time) string {
	if matches := jpgPattern.FindStringSubmatch(url); matches != nil {
		return matches[1]
	}
	if matches := mp4Pattern.FindStringSubmatch(url); matches != nil {
		return matches[1]
	}
	return syntheticPrefix + now.Format(timestampLayout)
}

// Fetcher downloads media payloads with a rotated User-Agent. It is
// stateless and may be shared across sessions.
type Fetcher struct {
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     logger.Logger
	now        func() time.Time
}

// New creates a Fetcher. retryAttempts bounds retries of network-level
// failures; HTTP status failures are never retried.
func New(timeout time.Duration, retryAttempts int, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retryAttempts <= 0 {
		retryAttempts = 1
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		retryCfg: &retry.Config{
			MaxAttempts: retryAttempts,
			Backoff:     retry.DefaultExponentialBackoff(),
			RetryIf:     errs.IsRetryable,
			Logger:      log,
		},
		logger: log,
		now:    time.Now,
	}
}

// Fetch downloads the media at url. A non-200 status is an upstream HTTP
// error carrying the status and reason. The returned content type is read
// verbatim from the response header; it is the sole signal used elsewhere
// to classify link-resolved media.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*models.DownloadedMedia, error) {
	var media *models.DownloadedMedia

	cfg := *f.retryCfg
	cfg.Context = ctx

	err := retry.Do(func() error {
		var err error
		media, err = f.fetchOnce(ctx, url)
		return err
	}, &cfg)
	if err != nil {
		return nil, err
	}

	return media, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*models.DownloadedMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.NewNetwork("failed to create download request: %v", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", uarand.GetRandom())

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		logger.LogFetch(url, 0, false, err)
		return nil, errs.NewNetwork("media download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.ErrorWithFields("media host returned an error", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return nil, errs.NewUpstreamHTTP(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.LogFetch(url, 0, false, err)
		return nil, errs.NewNetwork("failed to read media payload: %v", err)
	}

	f.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":      url,
		"size":     len(data),
		"duration": time.Since(start),
	})

	return &models.DownloadedMedia{
		Data:        data,
		Filename:    FilenameFromURL(url, f.now()),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
