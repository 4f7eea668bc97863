package instagram

import (
	"igcourier/pkg/logger"
	"igcourier/pkg/models"
)

// bestCandidate selects the variant with the maximal width*height area.
// Ties resolve to the first maximal element encountered.
func bestCandidate(candidates []Candidate) (string, bool) {
	best := ""
	bestArea := -1
	for _, c := range candidates {
		if c.URL == "" {
			continue
		}
		area := c.Width * c.Height
		if area > bestArea {
			bestArea = area
			best = c.URL
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// extractImages emits the image references of one feed item in child
// order. A leaf without usable candidates is an extraction gap: it is
// skipped and logged, and the rest of the item is still processed.
func extractImages(item Media, log logger.Logger) []models.MediaRef {
	var refs []models.MediaRef

	if item.IsCarousel() {
		for _, child := range item.CarouselMedia {
			if child.HasVideo() {
				continue
			}
			url, ok := bestCandidate(child.ImageVersions2.Candidates)
			if !ok {
				log.WarnWithFields("skipping carousel child without image candidates", map[string]interface{}{
					"item_id": child.ID,
				})
				continue
			}
			refs = append(refs, models.MediaRef{URL: url, Kind: models.KindImage})
		}
		return refs
	}

	if item.HasVideo() {
		return nil
	}

	url, ok := bestCandidate(item.ImageVersions2.Candidates)
	if !ok {
		log.WarnWithFields("skipping feed item without image candidates", map[string]interface{}{
			"item_id": item.ID,
		})
		return nil
	}
	return append(refs, models.MediaRef{URL: url, Kind: models.KindImage})
}

// extractVideos emits the video references of one feed item in child
// order. A leaf item is treated as its own single child.
func extractVideos(item Media, log logger.Logger) []models.MediaRef {
	leaves := item.CarouselMedia
	if len(leaves) == 0 {
		leaves = []Media{item}
	}

	var refs []models.MediaRef
	for _, leaf := range leaves {
		if !leaf.HasVideo() {
			continue
		}
		url, ok := bestCandidate(leaf.VideoVersions)
		if !ok {
			log.WarnWithFields("skipping leaf without video variants", map[string]interface{}{
				"item_id": leaf.ID,
			})
			continue
		}
		refs = append(refs, models.MediaRef{URL: url, Kind: models.KindVideo})
	}
	return refs
}

// Extract turns one raw feed item into its ordered media references for
// the given mode. In all-media mode images are emitted before videos
// within the item, each group in child order.
func Extract(item Media, mode models.Mode, log logger.Logger) []models.MediaRef {
	if log == nil {
		log = logger.GetLogger()
	}

	switch mode {
	case models.ModeAllMedia:
		refs := extractImages(item, log)
		return append(refs, extractVideos(item, log)...)
	case models.ModeImages:
		return extractImages(item, log)
	case models.ModeVideos:
		return extractVideos(item, log)
	default:
		return nil
	}
}

// ExtractAll runs the extractor over every item in order and concatenates
// the results. In all-media mode the grouping applies to the whole page:
// every image of the page comes before every video, each group in item
// then child order.
func ExtractAll(items []Media, mode models.Mode, log logger.Logger) []models.MediaRef {
	if log == nil {
		log = logger.GetLogger()
	}

	var refs []models.MediaRef
	if mode == models.ModeAllMedia {
		for _, item := range items {
			refs = append(refs, extractImages(item, log)...)
		}
		for _, item := range items {
			refs = append(refs, extractVideos(item, log)...)
		}
		return refs
	}

	for _, item := range items {
		refs = append(refs, Extract(item, mode, log)...)
	}
	return refs
}
