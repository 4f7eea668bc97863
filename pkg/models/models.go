package models

import "strings"

// Kind classifies a media reference as an image or a video.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Mode is the active downloader feature. It selects both the extraction
// filter and the batch capacity used during delivery.
type Mode int

const (
	ModeNone Mode = iota
	ModeAllMedia
	ModeImages
	ModeVideos
	ModeLinkDownload
)

func (m Mode) String() string {
	switch m {
	case ModeAllMedia:
		return "All Media"
	case ModeImages:
		return "Images"
	case ModeVideos:
		return "Videos"
	case ModeLinkDownload:
		return "Link Downloader"
	default:
		return "None"
	}
}

// ModeFromFeature maps a feature label (as shown on the feature keyboard)
// back to its Mode.
func ModeFromFeature(label string) (Mode, bool) {
	switch label {
	case "All Media":
		return ModeAllMedia, true
	case "Images":
		return ModeImages, true
	case "Videos":
		return ModeVideos, true
	case "Link Downloader":
		return ModeLinkDownload, true
	default:
		return ModeNone, false
	}
}

// BatchCapacity returns the number of items a single delivery batch may
// hold in this mode. These constants match the chat transport's
// maximum-items-per-message constraint per feature.
func (m Mode) BatchCapacity() int {
	switch m {
	case ModeAllMedia, ModeVideos:
		return 3
	case ModeImages, ModeLinkDownload:
		return 5
	default:
		return 0
	}
}

// MixedKinds reports whether a single batch may contain both images and
// videos in this mode.
func (m Mode) MixedKinds() bool {
	return m == ModeAllMedia || m == ModeLinkDownload
}

// MediaRef is one downloadable media reference extracted from a feed item
// or a resolved post link. Link-resolved refs carry KindUnknown until the
// download's Content-Type classifies them.
type MediaRef struct {
	URL  string
	Kind Kind
}

// DownloadedMedia holds the raw payload of one fetched media item. It is
// owned by the batch dispatcher for the duration of one batch and released
// after flush.
type DownloadedMedia struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Kind classifies the downloaded payload from its Content-Type header.
func (d *DownloadedMedia) Kind() Kind {
	switch {
	case strings.Contains(d.ContentType, "image"):
		return KindImage
	case strings.Contains(d.ContentType, "video"):
		return KindVideo
	default:
		return KindUnknown
	}
}

// BatchItem is one entry of a flushed media batch.
type BatchItem struct {
	Data     []byte
	Filename string
	Kind     Kind
}
