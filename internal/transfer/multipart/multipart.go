// Package multipart coordinates one multipart upload: it numbers parts in
// submission order, uploads them inline or on a bounded set of goroutines and
// either completes the upload or aborts it exactly once.
package multipart

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/pool"
)

// State is the lifecycle state of an upload.
type State int

const (
	// Uninitiated means no upload has been created.
	Uninitiated State = iota
	// Active means parts may be submitted.
	Active
	// Finalized means the upload was completed.
	Finalized
	// Aborted means the upload was discarded.
	Aborted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Finalized:
		return "finalized"
	case Aborted:
		return "aborted"
	default:
		return "uninitiated"
	}
}

// Options configure an Uploader.
type Options struct {
	blob.UploadOptions

	// Workers bounds concurrent part uploads. Zero uploads every part inline on
	// the caller's goroutine.
	Workers int

	// Logger receives diagnostics. Nil disables logging.
	Logger *slog.Logger

	// Pool, when set, receives part buffers back once their upload has resolved.
	Pool *pool.BufferPool
}

// partResult is the deferred outcome of one part upload.
type partResult struct {
	number int32
	size   int
	done   chan struct{}
	etag   string
	err    error
}

func (r *partResult) wait() (string, error) {
	<-r.done
	return r.etag, r.err
}

// Uploader handles a single multipart upload.
// UploadPart and Finalize must be called from one goroutine.
type Uploader struct {
	store  blob.Store
	bucket string
	key    string
	opts   Options
	logger *slog.Logger

	uploadID string
	sem      chan struct{}

	mu      sync.Mutex
	state   State
	counter int32
	results []*partResult
}

// Start initiates a multipart upload for bucket/key.
func Start(ctx context.Context, store blob.Store, bucket, key string, opts Options) (*Uploader, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	uploadID, err := store.InitiateMultipartUpload(ctx, bucket, key, opts.UploadOptions)
	if err != nil {
		return nil, err
	}

	u := &Uploader{
		store:    store,
		bucket:   bucket,
		key:      key,
		opts:     opts,
		logger:   logger.With("bucket", bucket, "key", key, "upload_id", uploadID),
		uploadID: uploadID,
		state:    Active,
	}
	if opts.Workers > 0 {
		u.sem = make(chan struct{}, opts.Workers)
	}
	u.logger.Debug("multipart upload started", "workers", opts.Workers)
	return u, nil
}

// UploadID returns the provider's upload id.
func (u *Uploader) UploadID() string {
	return u.uploadID
}

// Key returns the destination key.
func (u *Uploader) Key() string {
	return u.key
}

// State returns the current state.
func (u *Uploader) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Parts returns the number of parts submitted so far.
func (u *Uploader) Parts() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.results)
}

// UploadPart submits data as the next part and returns its number. Numbers start
// at 1 and follow submission order regardless of completion order.
//
// A failed upload is never reported here: it is recorded with the part and
// surfaces from Finalize. The Uploader takes ownership of data.
func (u *Uploader) UploadPart(ctx context.Context, data *bytes.Buffer) (int32, error) {
	u.mu.Lock()
	if u.state != Active {
		state := u.state
		u.mu.Unlock()
		return 0, errors.NewObjectError("uploadPart", u.bucket, u.key, errors.ErrUploadNotActive).
			WithMessage("state " + state.String())
	}
	u.counter++
	r := &partResult{number: u.counter, size: data.Len(), done: make(chan struct{})}
	u.results = append(u.results, r)
	u.mu.Unlock()

	part := blob.Part{
		Bucket:     u.bucket,
		Key:        u.key,
		UploadID:   u.uploadID,
		Number:     r.number,
		Data:       data.Bytes(),
		ContentMD5: blob.ContentMD5(data.Bytes()),
	}

	// The part must reach the store even if the caller's context ends first.
	partCtx := context.WithoutCancel(ctx)

	if u.sem == nil {
		u.upload(partCtx, part, data, r)
		return r.number, nil
	}

	u.sem <- struct{}{}
	go func() {
		defer func() { <-u.sem }()
		u.upload(partCtx, part, data, r)
	}()
	return r.number, nil
}

func (u *Uploader) upload(ctx context.Context, part blob.Part, data *bytes.Buffer, r *partResult) {
	defer close(r.done)

	r.etag, r.err = u.store.UploadPart(ctx, part)
	if r.err != nil {
		u.logger.Debug("part upload failed", "part", part.Number, "error", r.err)
	} else {
		u.logger.Debug("part uploaded", "part", part.Number, "size", len(part.Data))
	}
	if u.opts.Pool != nil {
		u.opts.Pool.Put(data)
	}
}

// Finalize waits for every part in submission order. If all parts succeeded the
// upload is completed; otherwise each failure is logged with its provider
// diagnostics and the upload is aborted. A failed completion aborts as well.
// A nil result means the object exists under its key.
func (u *Uploader) Finalize(ctx context.Context) error {
	u.mu.Lock()
	if u.state != Active {
		state := u.state
		u.mu.Unlock()
		return errors.NewObjectError("finalize", u.bucket, u.key, errors.ErrUploadNotActive).
			WithMessage("state " + state.String())
	}
	results := u.results
	u.mu.Unlock()

	parts := make([]blob.CompletedPart, 0, len(results))
	var failures []error
	for _, r := range results {
		etag, err := r.wait()
		if err != nil {
			u.logFailure("part upload failed", err, "part", r.number, "size", r.size)
			failures = append(failures, fmt.Errorf("part %d: %w", r.number, err))
			continue
		}
		parts = append(parts, blob.CompletedPart{Number: r.number, ETag: etag})
	}

	if len(failures) > 0 {
		u.abort(ctx)
		cause := stderrors.Join(append([]error{errors.ErrPartUpload}, failures...)...)
		return errors.NewObjectError("finalize", u.bucket, u.key, fmt.Errorf("%w: %w", errors.ErrFinalize, cause))
	}

	// Completion outlives the caller so finished parts are not thrown away.
	if err := u.store.CompleteMultipartUpload(context.WithoutCancel(ctx), u.bucket, u.key, u.uploadID, parts); err != nil {
		u.logFailure("complete multipart upload failed", err, "parts", len(parts))
		u.abort(ctx)
		return errors.NewObjectError("finalize", u.bucket, u.key, fmt.Errorf("%w: %w", errors.ErrFinalize, err))
	}

	u.setState(Finalized)
	u.logger.Debug("multipart upload completed", "parts", len(parts))
	return nil
}

// abort discards the upload. Errors are logged only: the upload has already failed.
func (u *Uploader) abort(ctx context.Context) {
	u.mu.Lock()
	if u.state != Active {
		u.mu.Unlock()
		return
	}
	u.state = Aborted
	u.mu.Unlock()

	if err := u.store.AbortMultipartUpload(context.WithoutCancel(ctx), u.bucket, u.key, u.uploadID); err != nil {
		u.logFailure("abort multipart upload failed", err)
		return
	}
	u.logger.Warn("multipart upload aborted")
}

func (u *Uploader) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	for _, a := range errors.Diagnostics(err) {
		args = append(args, a)
	}
	u.logger.Error(msg, args...)
}

func (u *Uploader) setState(s State) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
}
