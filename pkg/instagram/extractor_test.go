package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcourier/pkg/models"
)

func imageLeaf(id string, candidates ...Candidate) Media {
	return Media{ID: id, ImageVersions2: ImageVersions2{Candidates: candidates}}
}

func videoLeaf(id string, versions ...Candidate) Media {
	return Media{ID: id, VideoVersions: versions}
}

func TestBestCandidatePicksMaxArea(t *testing.T) {
	url, ok := bestCandidate([]Candidate{
		{URL: "small", Width: 320, Height: 320},
		{URL: "large", Width: 1080, Height: 1350},
		{URL: "medium", Width: 640, Height: 640},
	})
	require.True(t, ok)
	assert.Equal(t, "large", url)
}

func TestBestCandidateFirstMaximalWins(t *testing.T) {
	url, ok := bestCandidate([]Candidate{
		{URL: "first", Width: 1080, Height: 1080},
		{URL: "second", Width: 1080, Height: 1080},
	})
	require.True(t, ok)
	assert.Equal(t, "first", url)
}

func TestBestCandidateSkipsEmptyURLs(t *testing.T) {
	url, ok := bestCandidate([]Candidate{
		{URL: "", Width: 4000, Height: 4000},
		{URL: "usable", Width: 100, Height: 100},
	})
	require.True(t, ok)
	assert.Equal(t, "usable", url)

	_, ok = bestCandidate([]Candidate{{URL: "", Width: 100, Height: 100}})
	assert.False(t, ok)

	_, ok = bestCandidate(nil)
	assert.False(t, ok)
}

func TestBestCandidateZeroDimensions(t *testing.T) {
	// A degenerate 0x0 variant still wins over nothing at all.
	url, ok := bestCandidate([]Candidate{{URL: "degenerate", Width: 0, Height: 0}})
	require.True(t, ok)
	assert.Equal(t, "degenerate", url)
}

func TestExtractAllMediaOrdersImagesBeforeVideos(t *testing.T) {
	item := Media{
		ID: "carousel1",
		CarouselMedia: []Media{
			imageLeaf("img1", Candidate{URL: "img1.jpg", Width: 1080, Height: 1080}),
			videoLeaf("vid1", Candidate{URL: "vid1.mp4", Width: 720, Height: 1280}),
			imageLeaf("img2", Candidate{URL: "img2.jpg", Width: 1080, Height: 1080}),
			videoLeaf("vid2", Candidate{URL: "vid2.mp4", Width: 720, Height: 1280}),
		},
	}

	refs := Extract(item, models.ModeAllMedia, nil)

	require.Len(t, refs, 4)
	assert.Equal(t, []models.MediaRef{
		{URL: "img1.jpg", Kind: models.KindImage},
		{URL: "img2.jpg", Kind: models.KindImage},
		{URL: "vid1.mp4", Kind: models.KindVideo},
		{URL: "vid2.mp4", Kind: models.KindVideo},
	}, refs)
}

func TestExtractImagesSkipsVideoLeaves(t *testing.T) {
	item := Media{
		ID: "carousel2",
		CarouselMedia: []Media{
			imageLeaf("img1", Candidate{URL: "img1.jpg", Width: 1080, Height: 1080}),
			videoLeaf("vid1", Candidate{URL: "vid1.mp4", Width: 720, Height: 1280}),
		},
	}

	refs := Extract(item, models.ModeImages, nil)

	require.Len(t, refs, 1)
	assert.Equal(t, "img1.jpg", refs[0].URL)
	assert.Equal(t, models.KindImage, refs[0].Kind)
}

func TestExtractVideosSkipsImageLeaves(t *testing.T) {
	item := Media{
		ID: "carousel3",
		CarouselMedia: []Media{
			imageLeaf("img1", Candidate{URL: "img1.jpg", Width: 1080, Height: 1080}),
			videoLeaf("vid1", Candidate{URL: "vid1.mp4", Width: 720, Height: 1280}),
		},
	}

	refs := Extract(item, models.ModeVideos, nil)

	require.Len(t, refs, 1)
	assert.Equal(t, "vid1.mp4", refs[0].URL)
	assert.Equal(t, models.KindVideo, refs[0].Kind)
}

func TestExtractLeafItemWithoutCarousel(t *testing.T) {
	image := imageLeaf("post1", Candidate{URL: "solo.jpg", Width: 1080, Height: 1350})
	refs := Extract(image, models.ModeImages, nil)
	require.Len(t, refs, 1)
	assert.Equal(t, "solo.jpg", refs[0].URL)

	video := videoLeaf("post2", Candidate{URL: "solo.mp4", Width: 720, Height: 1280})
	refs = Extract(video, models.ModeVideos, nil)
	require.Len(t, refs, 1)
	assert.Equal(t, "solo.mp4", refs[0].URL)
}

func TestExtractVideoLeafYieldsNoImages(t *testing.T) {
	video := videoLeaf("post3", Candidate{URL: "clip.mp4", Width: 720, Height: 1280})
	refs := Extract(video, models.ModeImages, nil)
	assert.Empty(t, refs)
}

func TestExtractGapSkipsLeafOnly(t *testing.T) {
	item := Media{
		ID: "carousel4",
		CarouselMedia: []Media{
			imageLeaf("ok1", Candidate{URL: "ok1.jpg", Width: 1080, Height: 1080}),
			imageLeaf("broken"), // no candidates at all
			imageLeaf("ok2", Candidate{URL: "ok2.jpg", Width: 1080, Height: 1080}),
		},
	}

	refs := Extract(item, models.ModeImages, nil)

	require.Len(t, refs, 2)
	assert.Equal(t, "ok1.jpg", refs[0].URL)
	assert.Equal(t, "ok2.jpg", refs[1].URL)
}

func TestExtractModeNoneYieldsNothing(t *testing.T) {
	item := imageLeaf("post4", Candidate{URL: "a.jpg", Width: 100, Height: 100})
	assert.Empty(t, Extract(item, models.ModeNone, nil))
}

func TestExtractAllGroupsImagesBeforeVideosAcrossItems(t *testing.T) {
	// Two carousels, one image and one video each: every image of the
	// page precedes every video.
	items := []Media{
		{
			ID: "post1",
			CarouselMedia: []Media{
				imageLeaf("img1", Candidate{URL: "img1.jpg", Width: 1080, Height: 1080}),
				videoLeaf("vid1", Candidate{URL: "vid1.mp4", Width: 720, Height: 1280}),
			},
		},
		{
			ID: "post2",
			CarouselMedia: []Media{
				imageLeaf("img2", Candidate{URL: "img2.jpg", Width: 1080, Height: 1080}),
				videoLeaf("vid2", Candidate{URL: "vid2.mp4", Width: 720, Height: 1280}),
			},
		},
	}

	refs := ExtractAll(items, models.ModeAllMedia, nil)

	require.Len(t, refs, 4)
	assert.Equal(t, []models.MediaRef{
		{URL: "img1.jpg", Kind: models.KindImage},
		{URL: "img2.jpg", Kind: models.KindImage},
		{URL: "vid1.mp4", Kind: models.KindVideo},
		{URL: "vid2.mp4", Kind: models.KindVideo},
	}, refs)
}

func TestExtractAllPreservesItemOrder(t *testing.T) {
	items := []Media{
		imageLeaf("first", Candidate{URL: "first.jpg", Width: 1080, Height: 1080}),
		imageLeaf("second", Candidate{URL: "second.jpg", Width: 1080, Height: 1080}),
		imageLeaf("third", Candidate{URL: "third.jpg", Width: 1080, Height: 1080}),
	}

	refs := ExtractAll(items, models.ModeImages, nil)

	require.Len(t, refs, 3)
	assert.Equal(t, "first.jpg", refs[0].URL)
	assert.Equal(t, "second.jpg", refs[1].URL)
	assert.Equal(t, "third.jpg", refs[2].URL)
}
