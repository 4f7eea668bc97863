// Package session holds the per-chat session state and the controller
// state machine that orchestrates feed walking, link resolution and
// batched delivery.
package session

import (
	"context"
	"fmt"
	"strings"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/instagram"
	"igcourier/pkg/linkresolver"
	"igcourier/pkg/logger"
	"igcourier/pkg/models"
	"igcourier/pkg/ratelimit"
)

// Controller drives one delivery pass per command: it validates input,
// populates the session's pending queue from the feed walker or the link
// resolver, hands the queue to the drainer, and reports the outcome.
type Controller struct {
	sessions  *Manager
	feed      FeedSource
	links     LinkSource
	drainer   Drainer
	transport Transport
	limiter   ratelimit.Limiter
	pageSize  int
	logger    logger.Logger
}

// NewController creates a Controller.
func NewController(feed FeedSource, links LinkSource, drainer Drainer, transport Transport, limiter ratelimit.Limiter, pageSize int, log logger.Logger) *Controller {
	if log == nil {
		log = logger.GetLogger()
	}
	if pageSize <= 0 {
		pageSize = instagram.DefaultPageSize
	}
	return &Controller{
		sessions:  NewManager(),
		feed:      feed,
		links:     links,
		drainer:   drainer,
		transport: transport,
		limiter:   limiter,
		pageSize:  pageSize,
		logger:    log,
	}
}

// Session returns the session for a chat, creating it on first
// interaction.
func (c *Controller) Session(chatID string) *Session {
	return c.sessions.Get(chatID)
}

// SelectFeature activates a feature for the chat and asks for its
// parameters. No upstream call happens yet.
func (c *Controller) SelectFeature(chatID string, mode models.Mode) {
	s := c.sessions.Get(chatID)
	s.SetFeature(mode)

	c.logger.InfoWithFields("feature selected", map[string]interface{}{
		"chat_id": chatID,
		"feature": mode.String(),
	})

	switch mode {
	case models.ModeAllMedia, models.ModeImages, models.ModeVideos:
		c.send(chatID, fmt.Sprintf(
			"<i><b>%s Feature</b></i>\n\n"+
				"<code>username = (Required)</code>\n"+
				"<code>count = (Optional)</code>\n"+
				"<code>max_id = (Optional)</code>", mode))
		c.send(chatID, "OK. Complete this!\nConfused? See /help.")
	case models.ModeLinkDownload:
		c.send(chatID, "OK. Send an Instagram user post link!\nConfused? See /help.")
	}
}

// RequestStop raises the session's stop flag. The flag is observed
// between dequeue iterations of an active drain; an in-flight download
// completes first.
func (c *Controller) RequestStop(chatID string) {
	c.sessions.Get(chatID).RequestStop()
	c.logger.InfoWithFields("stop requested", map[string]interface{}{
		"chat_id": chatID,
	})
}

// Route dispatches a plain text message according to the session state:
// Y/N answers while paused, parameter messages for the feed features, and
// post links for the link downloader. Anything else re-emits guidance.
func (c *Controller) Route(ctx context.Context, chatID string, text string) {
	s := c.sessions.Get(chatID)

	if s.State() == StatePausedAwaitingContinue {
		switch strings.ToUpper(strings.TrimSpace(text)) {
		case "Y":
			c.HandleContinue(ctx, chatID, true)
			return
		case "N":
			c.HandleContinue(ctx, chatID, false)
			return
		}
	}

	switch s.Feature() {
	case models.ModeAllMedia, models.ModeImages, models.ModeVideos:
		if strings.Contains(text, "=") {
			c.HandleParameters(ctx, chatID, text)
			return
		}
	case models.ModeLinkDownload:
		c.HandleLink(ctx, chatID, strings.TrimSpace(text))
		return
	}

	c.sendGuidance(chatID)
}

// HandleParameters runs one feed delivery pass from a "key = value"
// parameter message. Malformed text re-emits guidance and leaves the
// session state unchanged.
func (c *Controller) HandleParameters(ctx context.Context, chatID string, text string) {
	s := c.sessions.Get(chatID)
	s.flow.Lock()
	defer s.flow.Unlock()

	mode := s.Feature()

	params, err := ParseParameters(text, c.pageSize)
	if err != nil {
		c.logger.WithError(err).WithField("chat_id", chatID).Debug("rejecting malformed parameters")
		c.sendGuidance(chatID)
		return
	}

	patience := "little"
	if mode == models.ModeVideos {
		patience = "long"
	}
	c.send(chatID, fmt.Sprintf(
		"Please wait...\n"+
			"🟢 This process may take a %s time, so please be patient and wait until the notification message appears.", patience))

	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.WarnWithFields("feed call rate limited, waiting", map[string]interface{}{
			"chat_id": chatID,
		})
		c.limiter.Wait()
	}

	refs, nextCursor, err := c.feed.FetchMediaPage(ctx, params.Account, params.PageSize, params.Cursor, mode)
	if err != nil {
		c.reportUpstreamError(chatID, err)
		s.Discard()
		return
	}

	s.BeginDelivery(refs, nextCursor, text)
	c.deliver(ctx, s)
}

// HandleLink runs one link-download delivery pass. A link that does not
// match the accepted post-link shape is rejected locally without an
// upstream call.
func (c *Controller) HandleLink(ctx context.Context, chatID string, link string) {
	s := c.sessions.Get(chatID)
	s.flow.Lock()
	defer s.flow.Unlock()

	if !linkresolver.ValidPostLink(link) {
		c.logger.DebugWithFields("rejecting non-matching post link", map[string]interface{}{
			"chat_id": chatID,
		})
		c.sendGuidance(chatID)
		return
	}

	c.send(chatID, "🟢 Please wait...")

	urls, err := c.links.Resolve(ctx, link)
	if err != nil {
		c.reportUpstreamError(chatID, err)
		s.Discard()
		return
	}

	var refs []models.MediaRef
	for url := range urls {
		refs = append(refs, models.MediaRef{URL: url, Kind: models.KindUnknown})
	}

	s.BeginDelivery(refs, "", link)
	c.deliver(ctx, s)
}

// HandleContinue resolves a paused session: yes resumes the drain over
// the same in-memory queue (the cursor is unchanged, resumption stays
// within the already-fetched page), no discards the queue.
func (c *Controller) HandleContinue(ctx context.Context, chatID string, yes bool) {
	s := c.sessions.Get(chatID)
	s.flow.Lock()
	defer s.flow.Unlock()

	if s.State() != StatePausedAwaitingContinue {
		c.sendGuidance(chatID)
		return
	}

	if !yes {
		s.Discard()
		c.send(chatID, "OK, if you don't want to continue. /features")
		return
	}

	s.ClearStop()
	s.setState(StateDelivering)
	c.send(chatID, "🟢 Continuing media delivery...")
	c.deliver(ctx, s)
}

// deliver drains the session queue and reports the outcome: a pause
// prompt when a stop was observed, the pagination token when more pages
// exist, or a completion message.
func (c *Controller) deliver(ctx context.Context, s *Session) {
	result, err := c.drainer.Drain(ctx, s.ChatID, s, s.Feature(), s)
	if err != nil {
		c.reportUpstreamError(s.ChatID, err)
		s.Discard()
		return
	}

	if result.Stopped {
		s.setState(StatePausedAwaitingContinue)
		c.send(s.ChatID, fmt.Sprintf("🛑 Media delivery stopped. %d items still queued.", s.Pending()))
		c.send(s.ChatID, "Do you want to continue? (Y/N)")
		return
	}

	if cursor := s.Cursor(); cursor != "" {
		c.send(s.ChatID, fmt.Sprintf(
			"Your previous message:\n<code>%s</code>\n\n"+
				"Max ID for next media = <code>%s</code>", s.LastCommand(), cursor))
	} else {
		c.send(s.ChatID, "Done 😊")
	}
	c.send(s.ChatID, "To continue or not, specify in /features.")
	s.Discard()
}

// reportUpstreamError surfaces a failed upstream call with enough detail
// to file a report, then suggests /report.
func (c *Controller) reportUpstreamError(chatID string, err error) {
	if e, ok := errs.AsError(err); ok && e.Type == errs.ErrorTypeUpstreamHTTP {
		c.send(chatID, fmt.Sprintf("❌ Error! status code %d : %s", e.StatusCode, e.Reason))
		c.send(chatID, "Sorry🙏 Please report this issue. /report")
		return
	}
	c.send(chatID, "❌ Error! The request could not be completed.")
	c.send(chatID, "Sorry🙏 Please try again 😥. /report")
}

func (c *Controller) sendGuidance(chatID string) {
	c.send(chatID, "Unrecognized command. Say what?")
}

// send delivers a text message; a transport failure here is logged and
// otherwise ignored so a flaky transport cannot wedge the state machine.
func (c *Controller) send(chatID string, text string) {
	if err := c.transport.SendText(chatID, text); err != nil {
		c.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send text message")
	}
}
