// Package testutil provides in-memory fakes of the blob store and queue.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/queue"
)

// FakeStore is an in-memory blob.Store that records every call.
// Hooks let tests inject failures and delays. It is safe for concurrent use.
type FakeStore struct {
	// FailInitiate, when set, is returned by InitiateMultipartUpload.
	FailInitiate error

	// FailPart, when set, is consulted for every part; a non-nil result fails the part.
	FailPart func(part blob.Part) error

	// PartDelay, when set, delays the upload of the given part number.
	PartDelay func(number int32) time.Duration

	// FailComplete, when set, is returned by CompleteMultipartUpload.
	FailComplete error

	mu        sync.Mutex
	nextID    int
	uploads   map[string]map[int32][]byte
	objects   map[string][]byte
	options   map[string]blob.UploadOptions
	received  []int32
	completed map[string][]blob.CompletedPart
	aborted   []string
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		uploads:   make(map[string]map[int32][]byte),
		objects:   make(map[string][]byte),
		options:   make(map[string]blob.UploadOptions),
		completed: make(map[string][]blob.CompletedPart),
	}
}

var _ blob.Store = (*FakeStore)(nil)

// InitiateMultipartUpload implements blob.Store.
func (f *FakeStore) InitiateMultipartUpload(_ context.Context, bucket, key string, opts blob.UploadOptions) (string, error) {
	if f.FailInitiate != nil {
		return "", f.FailInitiate
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.uploads[id] = make(map[int32][]byte)
	f.options[bucket+"/"+key] = opts
	return id, nil
}

// UploadPart implements blob.Store. The part body is verified against its Content-MD5.
func (f *FakeStore) UploadPart(_ context.Context, part blob.Part) (string, error) {
	if f.PartDelay != nil {
		time.Sleep(f.PartDelay(part.Number))
	}
	if f.FailPart != nil {
		if err := f.FailPart(part); err != nil {
			return "", err
		}
	}
	if blob.ContentMD5(part.Data) != part.ContentMD5 {
		return "", fmt.Errorf("part %d: content md5 mismatch", part.Number)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	parts, ok := f.uploads[part.UploadID]
	if !ok {
		return "", fmt.Errorf("no such upload %q", part.UploadID)
	}
	parts[part.Number] = bytes.Clone(part.Data)
	f.received = append(f.received, part.Number)
	return CalculateETag(part.Data), nil
}

// CompleteMultipartUpload implements blob.Store.
func (f *FakeStore) CompleteMultipartUpload(_ context.Context, bucket, key, uploadID string, parts []blob.CompletedPart) error {
	if f.FailComplete != nil {
		return f.FailComplete
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.uploads[uploadID]
	if !ok {
		return fmt.Errorf("no such upload %q", uploadID)
	}
	var object []byte
	for i, p := range parts {
		if p.Number != int32(i+1) {
			return fmt.Errorf("parts out of order: position %d has part %d", i, p.Number)
		}
		data, ok := stored[p.Number]
		if !ok || CalculateETag(data) != p.ETag {
			return fmt.Errorf("part %d missing or etag mismatch", p.Number)
		}
		object = append(object, data...)
	}
	f.objects[bucket+"/"+key] = object
	f.completed[uploadID] = append([]blob.CompletedPart(nil), parts...)
	delete(f.uploads, uploadID)
	return nil
}

// AbortMultipartUpload implements blob.Store.
func (f *FakeStore) AbortMultipartUpload(_ context.Context, _, _, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.aborted = append(f.aborted, uploadID)
	delete(f.uploads, uploadID)
	return nil
}

// Object returns the content of a completed object.
func (f *FakeStore) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	return data, ok
}

// Keys returns the keys of all completed objects in bucket, sorted.
func (f *FakeStore) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if len(k) > len(bucket) && k[:len(bucket)+1] == bucket+"/" {
			keys = append(keys, k[len(bucket)+1:])
		}
	}
	sort.Strings(keys)
	return keys
}

// Options returns the upload options an object was initiated with.
func (f *FakeStore) Options(bucket, key string) blob.UploadOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.options[bucket+"/"+key]
}

// Completed returns the part list an upload was completed with.
func (f *FakeStore) Completed(uploadID string) []blob.CompletedPart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed[uploadID]
}

// CompleteCount returns the number of completed uploads.
func (f *FakeStore) CompleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed)
}

// Aborted returns the ids of aborted uploads in abort order.
func (f *FakeStore) Aborted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.aborted...)
}

// ReceivedParts returns part numbers in the order their uploads finished.
func (f *FakeStore) ReceivedParts() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int32(nil), f.received...)
}

// FakeQueue is an in-memory queue source and sink.
// Each Receive returns up to BatchSize messages; Delete records receipt handles.
type FakeQueue struct {
	// BatchSize caps messages per receive; zero means 10.
	BatchSize int

	// FailReceive, when set, is returned by Receive once the queue is empty.
	FailReceive error

	mu       sync.Mutex
	pending  []queue.Message
	receives int
	deleted  []string
}

// NewFakeQueue creates a FakeQueue holding one message per body.
// Receipt handles are "rh-0", "rh-1", ... in body order.
func NewFakeQueue(bodies ...string) *FakeQueue {
	q := &FakeQueue{}
	for i, body := range bodies {
		q.pending = append(q.pending, queue.Message{
			ID:            fmt.Sprintf("msg-%d", i),
			Body:          []byte(body),
			ReceiptHandle: fmt.Sprintf("rh-%d", i),
		})
	}
	return q
}

// Receive implements the transfer's queue source.
func (q *FakeQueue) Receive(_ context.Context) ([]queue.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.receives++
	if len(q.pending) == 0 && q.FailReceive != nil {
		return nil, q.FailReceive
	}
	n := q.BatchSize
	if n <= 0 {
		n = 10
	}
	n = min(n, len(q.pending))
	batch := q.pending[:n]
	q.pending = q.pending[n:]
	return batch, nil
}

// Delete implements the transfer's queue sink.
func (q *FakeQueue) Delete(_ context.Context, handles []string) queue.DeleteResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.deleted = append(q.deleted, handles...)
	return queue.DeleteResult{Deleted: len(handles)}
}

// Deleted returns all deleted receipt handles in deletion order.
func (q *FakeQueue) Deleted() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

// Receives returns the number of Receive calls.
func (q *FakeQueue) Receives() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.receives
}
