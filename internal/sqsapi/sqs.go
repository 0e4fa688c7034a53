// Package sqsapi defines interfaces for SQS operations to enable testing and mocking.
package sqsapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI defines the SQS operations used by this module.
type SQSAPI interface {
	// GetQueueUrl resolves a queue name to its URL
	GetQueueUrl(
		ctx context.Context,
		params *sqs.GetQueueUrlInput,
		optFns ...func(*sqs.Options),
	) (*sqs.GetQueueUrlOutput, error)

	// ReceiveMessage receives up to ten messages
	ReceiveMessage(
		ctx context.Context,
		params *sqs.ReceiveMessageInput,
		optFns ...func(*sqs.Options),
	) (*sqs.ReceiveMessageOutput, error)

	// DeleteMessageBatch deletes up to ten messages by receipt handle
	DeleteMessageBatch(
		ctx context.Context,
		params *sqs.DeleteMessageBatchInput,
		optFns ...func(*sqs.Options),
	) (*sqs.DeleteMessageBatchOutput, error)
}

// Ensure the AWS SQS client implements our interface
var _ SQSAPI = (*sqs.Client)(nil)
