package sqs2s3

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob/localstore"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob/miniostore"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob/s3store"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/naming"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/orchestrator"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/queue"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/timebudget"
)

// Result summarizes a run.
type Result = orchestrator.Result

// Transferer moves records from one queue to one bucket.
type Transferer struct {
	cfg     *config.Config
	store   blob.Store
	queue   *queue.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

// New builds the blob store and queue client described by cfg.
// The file pattern and queue URL are resolved here, so a bad pattern or a missing
// queue fails before any record is read.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Transferer, error) {
	o := &options{clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.meter == nil {
		o.meter = noop.Meter{}
	}

	// The pattern is resolved again per run; this only rejects it before any remote call.
	if _, err := naming.New(cfg.FilePattern, o.clock()); err != nil {
		return nil, err
	}

	m, err := metrics.New(o.meter, cfg.Bucket)
	if err != nil {
		return nil, errors.NewError("newTransferer", err)
	}

	store, err := newStore(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	sqsAPI := o.sqsAPI
	if sqsAPI == nil {
		awsCfg, err := loadAWSConfig(ctx, o)
		if err != nil {
			return nil, err
		}
		sqsAPI = sqs.NewFromConfig(awsCfg, func(so *sqs.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}

	queueURL, err := queue.ResolveQueueURL(ctx, sqsAPI, cfg.SourceQueue)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("resolved source queue", "queue_url", queueURL)

	return &Transferer{
		cfg:   cfg,
		store: store,
		queue: queue.New(sqsAPI, queueURL,
			queue.WithLogger(o.logger),
			queue.WithWaitTime(cfg.WaitTimeSeconds),
			queue.WithVisibilityTimeout(cfg.VisibilityTimeoutSeconds),
			queue.WithDeleteWorkers(cfg.DeletionWorkers),
		),
		logger:  o.logger,
		metrics: m,
		clock:   o.clock,
	}, nil
}

// newStore returns the blob store for the configured backend.
func newStore(ctx context.Context, cfg *config.Config, o *options) (blob.Store, error) {
	if o.store != nil {
		return o.store, nil
	}

	switch cfg.Backend {
	case config.BackendMinio:
		region := ""
		if o.awsConfig != nil {
			region = o.awsConfig.Region
		}
		return miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Secure:    cfg.MinioSecure,
			Region:    region,
		})
	case config.BackendLocal:
		return localstore.NewOSStore(cfg.LocalRoot), nil
	default:
		if o.s3API != nil {
			return s3store.New(o.s3API), nil
		}
		awsCfg, err := loadAWSConfig(ctx, o)
		if err != nil {
			return nil, err
		}
		return s3store.New(s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			so.UsePathStyle = cfg.ForcePathStyle
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})), nil
	}
}

// loadAWSConfig returns the configured AWS config, loading the default chain once.
func loadAWSConfig(ctx context.Context, o *options) (aws.Config, error) {
	if o.awsConfig != nil {
		return *o.awsConfig, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, errors.NewError("loadAWSConfig", err)
	}
	o.awsConfig = &cfg
	return cfg, nil
}

// Run transfers records until the queue is drained or the remaining time reported
// by source reaches the configured threshold.
func (t *Transferer) Run(ctx context.Context, source timebudget.TimeSource) (Result, error) {
	logger := t.logger.With("run_id", uuid.NewString(), "bucket", t.cfg.Bucket)

	namer, err := naming.New(t.cfg.FilePattern, t.clock())
	if err != nil {
		return Result{}, err
	}

	started := t.clock()
	logger.Info("transfer started",
		"queue_url", t.queue.URL(),
		"file_base", namer.Base(),
		"threshold", t.cfg.MaxRemainingTime)

	orch := orchestrator.New(t.cfg, orchestrator.Deps{
		Store:   t.store,
		Source:  t.queue,
		Sink:    t.queue,
		Budget:  timebudget.New(source, t.cfg.MaxRemainingTime, logger),
		Namer:   namer,
		Logger:  logger,
		Metrics: t.metrics,
	})
	res, err := orch.Run(ctx)

	attrs := []any{
		"files", len(res.Files),
		"records", res.Records,
		"parts", res.Parts,
		"size", humanize.IBytes(uint64(res.Bytes)),
		"deleted", res.Deleted,
		"delete_failures", res.DeleteFailures,
		"duration", t.clock().Sub(started),
	}
	if err != nil {
		logger.Error("transfer failed", append(attrs, "error", err)...)
		return res, err
	}
	logger.Info("transfer finished", attrs...)
	return res, nil
}
