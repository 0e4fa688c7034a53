// Package sqs2s3 drains records from an Amazon SQS queue into delimited,
// size-bounded files in Amazon S3 or an S3-compatible blob store.
//
// A run receives batches of records while the invocation has time left, frames
// them into the current file and uploads the file as a multipart object, flushing
// a part whenever the buffer grows past the part size and rolling to a new file
// once the record or size limit is reached. Records are deleted from the queue
// only after the file holding them has been completed; a file that fails to
// complete is aborted and its records become visible again.
//
// Example usage:
//
//	cfg, err := config.Load(config.FromEnv, remaining, logger)
//	if err != nil {
//	    return err
//	}
//
//	t, err := sqs2s3.New(ctx, cfg, sqs2s3.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	result, err := t.Run(ctx, timebudget.TimeSourceFunc(remaining))
package sqs2s3
