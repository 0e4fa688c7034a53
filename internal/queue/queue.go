// Package queue receives records from an SQS queue and deletes them once they
// have been persisted.
package queue

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/sqsapi"
)

// Message is one received record.
type Message struct {
	ID            string
	Body          []byte
	ReceiptHandle string
}

// DeleteResult counts the outcome of a Delete call.
type DeleteResult struct {
	Deleted int
	Failed  int
}

// Client receives and deletes messages of a single queue.
type Client struct {
	api      sqsapi.SQSAPI
	queueURL string
	logger   *slog.Logger

	waitTime          int32
	visibilityTimeout int32
	deleteWorkers     int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWaitTime sets the long-poll wait in seconds. Zero means short polling.
func WithWaitTime(seconds int) Option {
	return func(c *Client) {
		c.waitTime = int32(seconds)
	}
}

// WithVisibilityTimeout overrides the queue's visibility timeout in seconds.
// Zero keeps the queue default.
func WithVisibilityTimeout(seconds int) Option {
	return func(c *Client) {
		c.visibilityTimeout = int32(seconds)
	}
}

// WithDeleteWorkers sets how many delete batches run concurrently.
func WithDeleteWorkers(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.deleteWorkers = n
		}
	}
}

// New creates a Client for the queue at queueURL.
func New(api sqsapi.SQSAPI, queueURL string, opts ...Option) *Client {
	c := &Client{
		api:           api,
		queueURL:      queueURL,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		deleteWorkers: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveQueueURL returns nameOrURL unchanged when it already is a URL and
// otherwise looks the queue up by name.
func ResolveQueueURL(ctx context.Context, api sqsapi.SQSAPI, nameOrURL string) (string, error) {
	if strings.HasPrefix(nameOrURL, "https://") || strings.HasPrefix(nameOrURL, "http://") {
		return nameOrURL, nil
	}
	out, err := api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(nameOrURL)})
	if err != nil {
		return "", errors.NewError("getQueueUrl", err).WithMessage("queue " + nameOrURL)
	}
	return aws.ToString(out.QueueUrl), nil
}

// URL returns the queue URL.
func (c *Client) URL() string {
	return c.queueURL
}

// Receive fetches up to ten messages. An empty result means the queue had nothing to deliver.
func (c *Client) Receive(ctx context.Context) ([]Message, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: config.ReceiveBatchLimit,
		WaitTimeSeconds:     c.waitTime,
	}
	if c.visibilityTimeout > 0 {
		input.VisibilityTimeout = c.visibilityTimeout
	}

	out, err := c.api.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, errors.NewError("receiveMessage", fmt.Errorf("%w: %w", errors.ErrQueueReceive, err))
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return messages, nil
}

// Delete removes the messages with the given receipt handles in batches of ten,
// running up to the configured number of batches concurrently and waiting for all
// of them. Failures are logged and counted, never returned: an undeleted message
// simply becomes visible again.
func (c *Client) Delete(ctx context.Context, handles []string) DeleteResult {
	if len(handles) == 0 {
		return DeleteResult{}
	}

	batches := splitIntoBatches(handles, config.DeleteBatchLimit)
	results := make([]DeleteResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.deleteWorkers)
	for i, batch := range batches {
		g.Go(func() error {
			results[i] = c.deleteBatch(gctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	var total DeleteResult
	for _, r := range results {
		total.Deleted += r.Deleted
		total.Failed += r.Failed
	}
	if total.Failed > 0 {
		c.logger.Warn("some messages could not be deleted and will be redelivered",
			"deleted", total.Deleted, "failed", total.Failed)
	}
	return total
}

// deleteBatch deletes at most ten messages with one request.
func (c *Client) deleteBatch(ctx context.Context, handles []string) DeleteResult {
	entries := make([]sqstypes.DeleteMessageBatchRequestEntry, len(handles))
	for i, h := range handles {
		entries[i] = sqstypes.DeleteMessageBatchRequestEntry{
			Id:            aws.String(strconv.Itoa(i)),
			ReceiptHandle: aws.String(h),
		}
	}

	out, err := c.api.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(c.queueURL),
		Entries:  entries,
	})
	if err != nil {
		attrs := append([]any{"entries", len(handles), "error", err}, attrsOf(err)...)
		c.logger.Error("delete batch failed", attrs...)
		return DeleteResult{Failed: len(handles)}
	}

	for _, f := range out.Failed {
		c.logger.Error("message delete failed",
			"entry", aws.ToString(f.Id),
			"code", aws.ToString(f.Code),
			"message", aws.ToString(f.Message),
			"sender_fault", f.SenderFault)
	}
	return DeleteResult{Deleted: len(out.Successful), Failed: len(out.Failed)}
}

func attrsOf(err error) []any {
	diag := errors.Diagnostics(err)
	attrs := make([]any, len(diag))
	for i, a := range diag {
		attrs[i] = a
	}
	return attrs
}

// splitIntoBatches splits handles into batches of the specified size.
func splitIntoBatches(handles []string, size int) [][]string {
	var batches [][]string
	for i := 0; i < len(handles); i += size {
		end := min(i+size, len(handles))
		batches = append(batches, handles[i:end])
	}
	return batches
}
