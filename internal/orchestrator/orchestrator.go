// Package orchestrator drives one transfer run: it drains the queue while the
// time budget allows, frames records into files, uploads them as multipart
// objects and deletes records only once their file has been finalized.
package orchestrator

import (
	"context"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/buffer"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/naming"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/queue"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/timebudget"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/validation"
)

// Source delivers records. An empty batch means the queue is drained.
type Source interface {
	Receive(ctx context.Context) ([]queue.Message, error)
}

// Sink deletes persisted records by receipt handle.
type Sink interface {
	Delete(ctx context.Context, handles []string) queue.DeleteResult
}

// Result summarizes a run.
type Result struct {
	// Files are the keys of the files finalized, in order.
	Files []string

	Records        int
	Parts          int
	Bytes          int64
	Deleted        int
	DeleteFailures int
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Store   blob.Store
	Source  Source
	Sink    Sink
	Budget  *timebudget.Budget
	Namer   *naming.Namer
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Orchestrator owns the file buffer and the active upload of a single run.
// It is not safe for concurrent use.
type Orchestrator struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	metrics *metrics.Metrics

	buf      *buffer.Buffer
	uploader *multipart.Uploader
	seq      int
	result   Result
}

// New creates an Orchestrator.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.Noop()
	}
	return &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		metrics: m,
		buf:     buffer.New(buffer.FramingFrom(cfg), buffer.LimitsFrom(cfg), nil),
	}
}

// Run receives batches while the budget has time left and the queue delivers
// records, then flushes whatever is still buffered as the last file.
//
// A receive failure ends the loop like an empty queue does; buffered records are
// still flushed and the receive error is returned afterwards. A finalize failure
// ends the run immediately and keeps the file's records on the queue.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	var receiveErr error

	for o.deps.Budget.HasRemaining() {
		messages, err := o.deps.Source.Receive(ctx)
		if err != nil {
			o.logger.Error("receive failed, stopping", "error", err)
			receiveErr = err
			break
		}
		if len(messages) == 0 {
			o.logger.Debug("no messages to transfer")
			break
		}
		if err := o.processBatch(ctx, messages); err != nil {
			return o.result, err
		}
	}

	if o.buf.Records() > 0 {
		if err := o.flush(ctx, true); err != nil {
			return o.result, err
		}
	}
	return o.result, receiveErr
}

func (o *Orchestrator) processBatch(ctx context.Context, messages []queue.Message) error {
	o.metrics.RecordsReceived(ctx, len(messages))
	o.result.Records += len(messages)

	for _, m := range messages {
		o.buf.Append(m.Body, m.ReceiptHandle)

		switch action := o.buf.Check(); action {
		case buffer.RollFile:
			o.logger.Debug("file limit reached",
				"records", o.buf.Records(),
				"size", humanize.IBytes(uint64(o.buf.Uploaded())+uint64(o.buf.Len())))
			if err := o.flush(ctx, true); err != nil {
				return err
			}
		case buffer.FlushPart:
			if err := o.flush(ctx, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// flush uploads the buffer as the next part, starting an upload first if none is
// active. A final flush finalizes the file and deletes its records.
func (o *Orchestrator) flush(ctx context.Context, final bool) error {
	if o.uploader == nil {
		if err := o.startFile(ctx, o.buf.Peek()); err != nil {
			return err
		}
	}
	part := o.buf.TakePart(final)

	size := part.Len()
	number, err := o.uploader.UploadPart(ctx, part)
	if err != nil {
		return err
	}
	o.metrics.PartUploaded(ctx, size)
	o.result.Parts++
	o.result.Bytes += int64(size)
	o.logger.Debug("part submitted", "key", o.uploader.Key(), "part", number, "size", humanize.IBytes(uint64(size)))

	if !final {
		return nil
	}
	return o.finishFile(ctx)
}

func (o *Orchestrator) startFile(ctx context.Context, firstPart []byte) error {
	key := naming.Key(o.cfg.Folder, o.deps.Namer.Name(o.seq))
	if err := validation.ValidateObjectKey(key); err != nil {
		return err
	}

	o.logger.Debug("starting new file", "key", key, "sequence", o.seq)
	uploader, err := multipart.Start(ctx, o.deps.Store, o.cfg.Bucket, key, multipart.Options{
		UploadOptions: blob.UploadOptions{
			ContentType:  blob.DetectContentType(firstPart),
			StorageClass: o.cfg.StorageClass,
			KMSKeyID:     o.cfg.KMSKeyID,
		},
		Workers: o.cfg.Workers(),
		Logger:  o.logger,
		Pool:    o.buf.Pool(),
	})
	if err != nil {
		return err
	}
	o.uploader = uploader
	o.metrics.UploadStarted(ctx)
	return nil
}

func (o *Orchestrator) finishFile(ctx context.Context) error {
	uploader := o.uploader
	o.uploader = nil

	o.logger.Debug("finalizing file upload", "key", uploader.Key(), "parts", uploader.Parts(), "records", o.buf.Records())
	if err := uploader.Finalize(ctx); err != nil {
		o.metrics.FileAborted(ctx)
		return err
	}
	o.metrics.FileFinalized(ctx)
	o.result.Files = append(o.result.Files, uploader.Key())

	// The file is durable; its records must go even if the invocation is ending.
	deleted := o.deps.Sink.Delete(context.WithoutCancel(ctx), o.buf.Tokens())
	o.metrics.RecordsDeleted(ctx, deleted.Deleted, deleted.Failed)
	o.result.Deleted += deleted.Deleted
	o.result.DeleteFailures += deleted.Failed

	o.logger.Info("file transferred",
		"key", uploader.Key(),
		"records", o.buf.Records(),
		"deleted", deleted.Deleted,
		"size", humanize.IBytes(uint64(o.buf.Uploaded())))

	o.buf.Reset()
	o.seq++
	return nil
}
