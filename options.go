package sqs2s3

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.opentelemetry.io/otel/metric"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/sqsapi"
)

// Option configures a Transferer.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	meter     metric.Meter
	awsConfig *aws.Config
	s3API     s3api.S3API
	sqsAPI    sqsapi.SQSAPI
	store     blob.Store
	clock     func() time.Time
}

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeter sets the meter transfer metrics are recorded on.
// Without it metrics are discarded.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithAWSConfig provides the AWS configuration used to build the S3 and SQS clients.
// By default it is loaded from the standard credential chain.
func WithAWSConfig(cfg aws.Config) Option {
	return func(o *options) {
		o.awsConfig = &cfg
	}
}

// WithS3API uses the given S3 client for the s3 backend.
// This is primarily used for testing with mocked clients.
func WithS3API(api s3api.S3API) Option {
	return func(o *options) {
		o.s3API = api
	}
}

// WithSQSAPI uses the given SQS client.
// This is primarily used for testing with mocked clients.
func WithSQSAPI(api sqsapi.SQSAPI) Option {
	return func(o *options) {
		o.sqsAPI = api
	}
}

// WithBlobStore bypasses the configured backend and writes to store.
func WithBlobStore(store blob.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithClock sets the clock the file name timestamp is taken from.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}
