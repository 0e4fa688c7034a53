// Package metrics holds the OpenTelemetry instruments recorded by a transfer run.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records transfer progress. The zero value is not usable; call New or Noop.
type Metrics struct {
	recordsReceived metric.Int64Counter
	recordsDeleted  metric.Int64Counter
	deleteFailures  metric.Int64Counter
	partsUploaded   metric.Int64Counter
	bytesUploaded   metric.Int64Counter
	filesFinalized  metric.Int64Counter
	filesAborted    metric.Int64Counter
	uploadsActive   metric.Int64UpDownCounter

	attrs metric.MeasurementOption
}

// New creates the instruments on meter. Every measurement carries the destination bucket.
func New(meter metric.Meter, bucket string) (*Metrics, error) {
	m := &Metrics{
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("bucket", bucket))),
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.recordsReceived, "sqs2s3.records_received", "records received from the queue", "{record}"},
		{&m.recordsDeleted, "sqs2s3.records_deleted", "records deleted from the queue after their file was finalized", "{record}"},
		{&m.deleteFailures, "sqs2s3.delete_failures", "records whose deletion failed", "{record}"},
		{&m.partsUploaded, "sqs2s3.parts_uploaded", "multipart parts submitted", "{part}"},
		{&m.bytesUploaded, "sqs2s3.bytes_uploaded", "bytes submitted as parts", "By"},
		{&m.filesFinalized, "sqs2s3.files_finalized", "files completed in the blob store", "{file}"},
		{&m.filesAborted, "sqs2s3.files_aborted", "multipart uploads aborted", "{file}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("initialising %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	active, err := meter.Int64UpDownCounter("sqs2s3.uploads_active",
		metric.WithDescription("multipart uploads currently open"),
		metric.WithUnit("{upload}"))
	if err != nil {
		return nil, fmt.Errorf("initialising sqs2s3.uploads_active: %w", err)
	}
	m.uploadsActive = active

	return m, nil
}

// Noop returns Metrics that record nothing.
func Noop() *Metrics {
	m, _ := New(noop.Meter{}, "")
	return m
}

// RecordsReceived counts received records.
func (m *Metrics) RecordsReceived(ctx context.Context, n int) {
	m.recordsReceived.Add(ctx, int64(n), m.attrs)
}

// RecordsDeleted counts deleted and failed deletions.
func (m *Metrics) RecordsDeleted(ctx context.Context, deleted, failed int) {
	m.recordsDeleted.Add(ctx, int64(deleted), m.attrs)
	if failed > 0 {
		m.deleteFailures.Add(ctx, int64(failed), m.attrs)
	}
}

// PartUploaded counts one submitted part of size bytes.
func (m *Metrics) PartUploaded(ctx context.Context, size int) {
	m.partsUploaded.Add(ctx, 1, m.attrs)
	m.bytesUploaded.Add(ctx, int64(size), m.attrs)
}

// UploadStarted counts an opened multipart upload.
func (m *Metrics) UploadStarted(ctx context.Context) {
	m.uploadsActive.Add(ctx, 1, m.attrs)
}

// FileFinalized counts a completed file.
func (m *Metrics) FileFinalized(ctx context.Context) {
	m.filesFinalized.Add(ctx, 1, m.attrs)
	m.uploadsActive.Add(ctx, -1, m.attrs)
}

// FileAborted counts an aborted upload.
func (m *Metrics) FileAborted(ctx context.Context) {
	m.filesAborted.Add(ctx, 1, m.attrs)
	m.uploadsActive.Add(ctx, -1, m.attrs)
}
