// Package dispatcher drains a pending media queue through a download,
// batch and flush pipeline bounded by per-mode batch capacities.
package dispatcher

import (
	"context"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/logger"
	"igcourier/pkg/models"
)

// Fetcher downloads one media reference.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.DownloadedMedia, error)
}

// Transport delivers flushed batches and warning texts to a chat.
type Transport interface {
	SendText(chatID string, text string) error
	SendMediaBatch(chatID string, items []models.BatchItem) error
}

// Queue is a persistent pending-media queue. Next removes and returns the
// head element, so a stop request mid-drain leaves the queue positioned at
// the next undelivered item.
type Queue interface {
	Next() (models.MediaRef, bool)
}

// Stop exposes the cooperative stop flag. It is polled between dequeue
// iterations only; an in-flight download always completes first.
type Stop interface {
	Stopped() bool
}

// Result summarizes one drain pass.
type Result struct {
	Delivered     int
	Batches       int
	FlushFailures int
	Stopped       bool
}

// Dispatcher accumulates fetched media into fixed-capacity batches and
// flushes each full batch to the transport.
type Dispatcher struct {
	fetcher   Fetcher
	transport Transport
	logger    logger.Logger
}

// New creates a Dispatcher.
func New(fetcher Fetcher, transport Transport, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Dispatcher{
		fetcher:   fetcher,
		transport: transport,
		logger:    log,
	}
}

// Drain iterates the queue: each reference is dequeued, downloaded and
// appended to the current batch; a batch at capacity is flushed
// immediately. After the queue is exhausted or a stop is observed, any
// non-empty trailing partial batch is flushed exactly once; a stop
// therefore loses nothing, the in-flight partial goes out before the
// pause takes effect.
//
// A flush rejected by the transport is reported as a delivery warning and
// the drain continues with the next batch. A failed download aborts the
// drain with the underlying error; items already flushed stay delivered.
func (d *Dispatcher) Drain(ctx context.Context, chatID string, queue Queue, mode models.Mode, stop Stop) (Result, error) {
	var result Result

	capacity := mode.BatchCapacity()
	if capacity <= 0 {
		return result, errs.NewValidation("no active feature selected")
	}

	var batch []models.BatchItem

	for {
		if stop != nil && stop.Stopped() {
			result.Stopped = true
			break
		}

		ref, ok := queue.Next()
		if !ok {
			break
		}

		media, err := d.fetcher.Fetch(ctx, ref.URL)
		if err != nil {
			d.logger.WithError(err).WithFields(map[string]interface{}{
				"chat_id": chatID,
				"url":     ref.URL,
			}).Error("download failed, aborting drain")
			return result, err
		}

		kind := ref.Kind
		if kind == models.KindUnknown {
			kind = media.Kind()
		}

		batch = append(batch, models.BatchItem{
			Data:     media.Data,
			Filename: media.Filename,
			Kind:     kind,
		})

		if len(batch) == capacity {
			d.flush(chatID, batch, &result)
			batch = nil
		}
	}

	if len(batch) > 0 {
		d.flush(chatID, batch, &result)
	}

	d.logger.InfoWithFields("drain pass finished", map[string]interface{}{
		"chat_id":        chatID,
		"mode":           mode.String(),
		"delivered":      result.Delivered,
		"batches":        result.Batches,
		"flush_failures": result.FlushFailures,
		"stopped":        result.Stopped,
	})

	return result, nil
}

// flush sends one batch. Transport rejection is recoverable per-batch: the
// user gets a warning and the drain moves on.
func (d *Dispatcher) flush(chatID string, batch []models.BatchItem, result *Result) {
	err := d.transport.SendMediaBatch(chatID, batch)
	logger.LogBatchFlush(chatID, len(batch), err)
	if err != nil {
		result.FlushFailures++
		if textErr := d.transport.SendText(chatID, "😥 Failed to send media."); textErr != nil {
			d.logger.WithError(textErr).Warn("could not report delivery failure")
		}
		return
	}
	result.Delivered += len(batch)
	result.Batches++
}
