package instagram

// Candidate is one rendition of a media item at a particular resolution.
type Candidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageVersions2 wraps the image rendition candidates of a leaf item.
type ImageVersions2 struct {
	Candidates []Candidate `json:"candidates"`
}

// Media is one feed item. A leaf item carries either image candidates or
// video variants; a carousel item delegates to its children, which may mix
// kinds.
type Media struct {
	ID             string         `json:"id"`
	PK             string         `json:"pk"`
	Code           string         `json:"code"`
	MediaType      int            `json:"media_type"`
	ImageVersions2 ImageVersions2 `json:"image_versions2"`
	VideoVersions  []Candidate    `json:"video_versions"`
	CarouselMedia  []Media        `json:"carousel_media"`
}

// IsCarousel reports whether the item bundles child media records.
func (m *Media) IsCarousel() bool {
	return len(m.CarouselMedia) > 0
}

// HasVideo reports whether the item is a video leaf.
func (m *Media) HasVideo() bool {
	return len(m.VideoVersions) > 0
}

// FeedResponse is the JSON envelope of one feed page. NextMaxID is the
// opaque pagination cursor; its absence signals the final page.
type FeedResponse struct {
	Items         []Media `json:"items"`
	NextMaxID     string  `json:"next_max_id"`
	MoreAvailable bool    `json:"more_available"`
	Status        string  `json:"status"`
}
