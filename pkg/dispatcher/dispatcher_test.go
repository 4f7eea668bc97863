package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcourier/pkg/errors"
	"igcourier/pkg/models"
)

// sliceQueue is a pop-front queue over a slice, mirroring how the session
// stores its pending media.
type sliceQueue struct {
	mu   sync.Mutex
	refs []models.MediaRef
}

func newSliceQueue(refs ...models.MediaRef) *sliceQueue {
	return &sliceQueue{refs: refs}
}

func (q *sliceQueue) Next() (models.MediaRef, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.refs) == 0 {
		return models.MediaRef{}, false
	}
	ref := q.refs[0]
	q.refs = q.refs[1:]
	return ref, true
}

func (q *sliceQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.refs)
}

type stubFetcher struct {
	failOn map[string]error
	calls  int
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (*models.DownloadedMedia, error) {
	f.calls++
	if err, ok := f.failOn[url]; ok {
		return nil, err
	}
	return &models.DownloadedMedia{
		Data:        []byte("payload-" + url),
		Filename:    url,
		ContentType: "image/jpeg",
	}, nil
}

type recordingTransport struct {
	batches  [][]models.BatchItem
	texts    []string
	batchErr error
}

func (t *recordingTransport) SendText(chatID string, text string) error {
	t.texts = append(t.texts, text)
	return nil
}

func (t *recordingTransport) SendMediaBatch(chatID string, items []models.BatchItem) error {
	if t.batchErr != nil {
		return t.batchErr
	}
	copied := make([]models.BatchItem, len(items))
	copy(copied, items)
	t.batches = append(t.batches, copied)
	return nil
}

// countStop reports stopped after a fixed number of polls.
type countStop struct {
	polls     int
	stopAfter int
}

func (s *countStop) Stopped() bool {
	s.polls++
	return s.polls > s.stopAfter
}

type neverStop struct{}

func (neverStop) Stopped() bool { return false }

func imageRefs(n int) []models.MediaRef {
	refs := make([]models.MediaRef, n)
	for i := range refs {
		refs[i] = models.MediaRef{URL: fmt.Sprintf("img%d.jpg", i+1), Kind: models.KindImage}
	}
	return refs
}

func TestDrainFlushesFullBatches(t *testing.T) {
	transport := &recordingTransport{}
	d := New(&stubFetcher{}, transport, nil)

	// 7 images at capacity 5: one full batch plus a trailing partial of 2.
	queue := newSliceQueue(imageRefs(7)...)
	result, err := d.Drain(context.Background(), "42", queue, models.ModeImages, neverStop{})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Delivered)
	assert.Equal(t, 2, result.Batches)
	assert.False(t, result.Stopped)

	require.Len(t, transport.batches, 2)
	assert.Len(t, transport.batches[0], 5)
	assert.Len(t, transport.batches[1], 2)
	assert.Equal(t, "img1.jpg", transport.batches[0][0].Filename)
	assert.Equal(t, "img6.jpg", transport.batches[1][0].Filename)
}

func TestDrainExactMultipleLeavesNoPartial(t *testing.T) {
	transport := &recordingTransport{}
	d := New(&stubFetcher{}, transport, nil)

	queue := newSliceQueue(imageRefs(10)...)
	result, err := d.Drain(context.Background(), "42", queue, models.ModeImages, neverStop{})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Delivered)
	assert.Equal(t, 2, result.Batches)
	require.Len(t, transport.batches, 2)
	assert.Len(t, transport.batches[0], 5)
	assert.Len(t, transport.batches[1], 5)
}

func TestDrainAllMediaCapacityIsThree(t *testing.T) {
	transport := &recordingTransport{}
	d := New(&stubFetcher{}, transport, nil)

	queue := newSliceQueue(imageRefs(4)...)
	result, err := d.Drain(context.Background(), "42", queue, models.ModeAllMedia, neverStop{})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Delivered)
	require.Len(t, transport.batches, 2)
	assert.Len(t, transport.batches[0], 3)
	assert.Len(t, transport.batches[1], 1)
}

func TestDrainEmptyQueue(t *testing.T) {
	transport := &recordingTransport{}
	d := New(&stubFetcher{}, transport, nil)

	result, err := d.Drain(context.Background(), "42", newSliceQueue(), models.ModeImages, neverStop{})
	require.NoError(t, err)

	assert.Zero(t, result.Delivered)
	assert.Zero(t, result.Batches)
	assert.Empty(t, transport.batches)
}

func TestDrainNoModeIsValidationError(t *testing.T) {
	d := New(&stubFetcher{}, &recordingTransport{}, nil)

	_, err := d.Drain(context.Background(), "42", newSliceQueue(imageRefs(1)...), models.ModeNone, neverStop{})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))
}

func TestDrainStopFlushesPartialAndLeavesRest(t *testing.T) {
	transport := &recordingTransport{}
	d := New(&stubFetcher{}, transport, nil)

	// 10 images, capacity 5, stop raised after 5 items have been dequeued:
	// the first full batch goes out, the remaining 5 stay queued.
	queue := newSliceQueue(imageRefs(10)...)
	stop := &countStop{stopAfter: 5}

	result, err := d.Drain(context.Background(), "42", queue, models.ModeImages, stop)
	require.NoError(t, err)

	assert.True(t, result.Stopped)
	assert.Equal(t, 5, result.Delivered)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 5, queue.Len())
	require.Len(t, transport.batches, 1)
	assert.Len(t, transport.batches[0], 5)

	// Resuming the drain over the same queue delivers the rest in one batch.
	result, err = d.Drain(context.Background(), "42", queue, models.ModeImages, neverStop{})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Delivered)
	assert.Equal(t, 0, queue.Len())
	require.Len(t, transport.batches, 2)
	assert.Equal(t, "img6.jpg", transport.batches[1][0].Filename)
}

func TestDrainStopMidBatchFlushesPartialOnce(t *testing.T) {
	transport := &recordingTransport{}
	d := New(&stubFetcher{}, transport, nil)

	// Stop raised after 2 dequeues, capacity 5: the 2-item partial goes out
	// exactly once, 3 items stay queued.
	queue := newSliceQueue(imageRefs(5)...)
	stop := &countStop{stopAfter: 2}

	result, err := d.Drain(context.Background(), "42", queue, models.ModeImages, stop)
	require.NoError(t, err)

	assert.True(t, result.Stopped)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 3, queue.Len())
	require.Len(t, transport.batches, 1)
	assert.Len(t, transport.batches[0], 2)
}

func TestDrainDownloadFailureAborts(t *testing.T) {
	transport := &recordingTransport{}
	fetch := &stubFetcher{failOn: map[string]error{
		"img7.jpg": errs.NewUpstreamHTTP(403, "Forbidden"),
	}}
	d := New(fetch, transport, nil)

	queue := newSliceQueue(imageRefs(8)...)
	result, err := d.Drain(context.Background(), "42", queue, models.ModeImages, neverStop{})

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeUpstreamHTTP))
	// The first full batch was already flushed before the failure.
	assert.Equal(t, 5, result.Delivered)
	require.Len(t, transport.batches, 1)
}

func TestDrainFlushFailureContinues(t *testing.T) {
	transport := &recordingTransport{batchErr: errs.NewTransportDelivery("chat rejected the batch")}
	d := New(&stubFetcher{}, transport, nil)

	queue := newSliceQueue(imageRefs(10)...)
	result, err := d.Drain(context.Background(), "42", queue, models.ModeImages, neverStop{})

	require.NoError(t, err)
	assert.Zero(t, result.Delivered)
	assert.Equal(t, 2, result.FlushFailures)
	assert.Equal(t, 0, queue.Len(), "drain continues past flush failures")
	assert.Contains(t, transport.texts, "😥 Failed to send media.")
}

func TestDrainClassifiesUnknownKindFromContentType(t *testing.T) {
	transport := &recordingTransport{}
	d := New(&stubFetcher{}, transport, nil)

	queue := newSliceQueue(models.MediaRef{URL: "resolved.bin", Kind: models.KindUnknown})
	_, err := d.Drain(context.Background(), "42", queue, models.ModeLinkDownload, neverStop{})
	require.NoError(t, err)

	require.Len(t, transport.batches, 1)
	assert.Equal(t, models.KindImage, transport.batches[0][0].Kind, "stub serves image/jpeg")
}
