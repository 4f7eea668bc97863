package instagram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/models"
)

const testCookie = "mid=abc; csrftoken=TestToken123; sessionid=secret"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(testCookie, 10*time.Second, nil)
	client.SetBaseURL(server.URL)
	return client, server
}

func feedPage(items []Media, nextMaxID string) FeedResponse {
	return FeedResponse{
		Items:         items,
		NextMaxID:     nextMaxID,
		MoreAvailable: nextMaxID != "",
		Status:        "ok",
	}
}

func TestFetchFeedPageSendsHeaders(t *testing.T) {
	var gotReq *http.Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		json.NewEncoder(w).Encode(feedPage(nil, ""))
	})

	_, err := client.FetchFeedPage(context.Background(), "natgeo", 33, "")
	require.NoError(t, err)

	require.NotNil(t, gotReq)
	assert.Equal(t, "936619743392459", gotReq.Header.Get("X-Ig-App-Id"))
	assert.Equal(t, "129477", gotReq.Header.Get("X-Asbd-Id"))
	assert.Equal(t, "TestToken123", gotReq.Header.Get("X-Csrftoken"))
	assert.Equal(t, testCookie, gotReq.Header.Get("Cookie"))
	assert.NotEmpty(t, gotReq.Header.Get("User-Agent"))
	assert.Equal(t, "/api/v1/feed/user/natgeo/username/", gotReq.URL.Path)
	assert.Equal(t, "33", gotReq.URL.Query().Get("count"))
	assert.False(t, gotReq.URL.Query().Has("max_id"))
}

func TestFetchFeedPagePassesCursor(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("max_id")
		json.NewEncoder(w).Encode(feedPage(nil, ""))
	})

	_, err := client.FetchFeedPage(context.Background(), "natgeo", 33, "cursor_token")
	require.NoError(t, err)
	assert.Equal(t, "cursor_token", gotQuery)
}

func TestFetchFeedPageNon200IsUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchFeedPage(context.Background(), "natgeo", 33, "")
	require.Error(t, err)

	e, ok := errs.AsError(err)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeUpstreamHTTP, e.Type)
	assert.Equal(t, http.StatusTooManyRequests, e.StatusCode)
}

func TestFetchFeedPageBadJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.FetchFeedPage(context.Background(), "natgeo", 33, "")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
}

func TestFetchMediaPageExtractsAndReturnsCursor(t *testing.T) {
	items := []Media{
		{
			ID: "item1",
			ImageVersions2: ImageVersions2{Candidates: []Candidate{
				{URL: "https://cdn.example/a.jpg", Width: 1080, Height: 1080},
			}},
		},
		{
			ID:            "item2",
			VideoVersions: []Candidate{{URL: "https://cdn.example/b.mp4", Width: 720, Height: 1280}},
		},
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(feedPage(items, "next_cursor"))
	})

	refs, cursor, err := client.FetchMediaPage(context.Background(), "natgeo", 33, "", models.ModeAllMedia)
	require.NoError(t, err)

	assert.Equal(t, "next_cursor", cursor)
	require.Len(t, refs, 2)
	assert.Equal(t, models.KindImage, refs[0].Kind)
	assert.Equal(t, models.KindVideo, refs[1].Kind)
}

func TestFetchMediaPageFinalPageHasEmptyCursor(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// No next_max_id field at all on the final page.
		w.Write([]byte(`{"items": [], "more_available": false, "status": "ok"}`))
	})

	refs, cursor, err := client.FetchMediaPage(context.Background(), "natgeo", 33, "", models.ModeImages)
	require.NoError(t, err)
	assert.Empty(t, cursor)
	assert.Empty(t, refs)
}

func TestFetchMediaPageTwoCarouselsAllMedia(t *testing.T) {
	carousel := func(id, img, vid string) Media {
		return Media{
			ID: id,
			CarouselMedia: []Media{
				{ID: id + "-img", ImageVersions2: ImageVersions2{Candidates: []Candidate{
					{URL: img, Width: 1080, Height: 1080},
				}}},
				{ID: id + "-vid", VideoVersions: []Candidate{
					{URL: vid, Width: 720, Height: 1280},
				}},
			},
		}
	}
	items := []Media{
		carousel("post1", "img1.jpg", "vid1.mp4"),
		carousel("post2", "img2.jpg", "vid2.mp4"),
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(feedPage(items, ""))
	})

	refs, cursor, err := client.FetchMediaPage(context.Background(), "alice", 33, "", models.ModeAllMedia)
	require.NoError(t, err)

	assert.Empty(t, cursor, "absent next_max_id ends pagination")
	require.Len(t, refs, 4)
	assert.Equal(t, "img1.jpg", refs[0].URL)
	assert.Equal(t, "img2.jpg", refs[1].URL)
	assert.Equal(t, "vid1.mp4", refs[2].URL)
	assert.Equal(t, "vid2.mp4", refs[3].URL)
}

func TestNewClientWithoutCSRFStillWorks(t *testing.T) {
	var gotCSRF string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get("X-Csrftoken")
		json.NewEncoder(w).Encode(feedPage(nil, ""))
	}))
	defer server.Close()

	client := NewClient("sessionid=only", 10*time.Second, nil)
	client.SetBaseURL(server.URL)

	_, err := client.FetchFeedPage(context.Background(), "natgeo", 33, "")
	require.NoError(t, err)
	assert.Empty(t, gotCSRF)
}
