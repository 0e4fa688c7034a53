// Package buffer accumulates framed records for the file currently being written
// and decides, after every record, whether the file should roll or a part should flush.
package buffer

import (
	"bytes"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/pool"
)

// Framing holds the optional delimiters written around files and records.
// Empty fields are not written.
type Framing struct {
	FileInitiator    []byte
	FileTerminator   []byte
	RecordInitiator  []byte
	RecordSeparator  []byte
	RecordTerminator []byte
}

// FramingFrom returns the framing configured in cfg.
func FramingFrom(cfg *config.Config) Framing {
	return Framing{
		FileInitiator:    []byte(cfg.FileInitiator),
		FileTerminator:   []byte(cfg.FileTerminator),
		RecordInitiator:  []byte(cfg.RecordInitiator),
		RecordSeparator:  []byte(cfg.RecordSeparator),
		RecordTerminator: []byte(cfg.RecordTerminator),
	}
}

// Limits are the thresholds evaluated after every record.
type Limits struct {
	// MaxRecords rolls the file once this many records are pending.
	MaxRecords int

	// MaxFileSize rolls the file once uploaded plus buffered bytes exceed it.
	MaxFileSize int64

	// PartSize flushes a part once the buffer exceeds it.
	PartSize int64

	// MinPartSize is the floor applied to PartSize on every check.
	// Zero means config.MinPartSize.
	MinPartSize int64
}

// LimitsFrom returns the limits configured in cfg.
func LimitsFrom(cfg *config.Config) Limits {
	return Limits{
		MaxRecords:  cfg.MaxRecordsPerFile,
		MaxFileSize: cfg.MaxFileSize(),
		PartSize:    cfg.PartSize(),
	}
}

// Action is the outcome of a threshold check.
type Action int

const (
	// Accumulate keeps buffering.
	Accumulate Action = iota
	// FlushPart uploads the buffer as a non-final part of the current file.
	FlushPart
	// RollFile uploads the buffer as the final part and finalizes the file.
	RollFile
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case FlushPart:
		return "flush-part"
	case RollFile:
		return "roll-file"
	default:
		return "accumulate"
	}
}

// Buffer is the in-memory state of the file being written: buffered bytes not yet
// uploaded, the receipt tokens of every record in the file and the number of bytes
// already uploaded as parts. It is owned by a single goroutine.
type Buffer struct {
	framing Framing
	limits  Limits
	pool    *pool.BufferPool

	buf      *bytes.Buffer
	first    bool
	tokens   []string
	uploaded int64
}

// New creates an empty Buffer. A nil pool gets a private pool sized to the part threshold.
func New(framing Framing, limits Limits, p *pool.BufferPool) *Buffer {
	if limits.MinPartSize <= 0 {
		limits.MinPartSize = config.MinPartSize
	}
	b := &Buffer{framing: framing, limits: limits, pool: p, first: true}
	if b.pool == nil {
		b.pool = pool.NewBufferPool(int(b.partThreshold()))
	}
	b.buf = b.pool.Get()
	return b
}

// Append writes one framed record and records its receipt token.
func (b *Buffer) Append(body []byte, token string) {
	if b.first {
		b.buf.Write(b.framing.FileInitiator)
	} else if b.buf.Len() > 0 {
		b.buf.Write(b.framing.RecordSeparator)
	}
	b.buf.Write(b.framing.RecordInitiator)
	b.buf.Write(body)
	b.buf.Write(b.framing.RecordTerminator)

	b.first = false
	b.tokens = append(b.tokens, token)
}

// Check evaluates the thresholds. Rolling the file takes precedence over flushing a part.
func (b *Buffer) Check() Action {
	if len(b.tokens) == 0 {
		return Accumulate
	}
	size := int64(b.buf.Len())
	if (b.limits.MaxRecords > 0 && len(b.tokens) >= b.limits.MaxRecords) ||
		b.uploaded+size > b.limits.MaxFileSize {
		return RollFile
	}
	if size > b.partThreshold() {
		return FlushPart
	}
	return Accumulate
}

// Peek returns the buffered bytes without taking them. The slice is only valid
// until the next Append or TakePart.
func (b *Buffer) Peek() []byte {
	return b.buf.Bytes()
}

// TakePart hands the buffered bytes to the caller as the next part of the file.
// The file terminator is appended to the final part. The caller owns the returned
// buffer and should give it back to the pool once the part has been uploaded.
func (b *Buffer) TakePart(final bool) *bytes.Buffer {
	if final {
		b.buf.Write(b.framing.FileTerminator)
	}
	part := b.buf
	b.uploaded += int64(part.Len())
	b.buf = b.pool.Get()
	return part
}

// Reset starts a new file after the previous one was finalized.
func (b *Buffer) Reset() {
	b.buf.Reset()
	b.first = true
	b.tokens = nil
	b.uploaded = 0
}

// Tokens returns the receipt tokens of the current file in receipt order.
func (b *Buffer) Tokens() []string {
	return append([]string(nil), b.tokens...)
}

// Records returns the number of records in the current file.
func (b *Buffer) Records() int {
	return len(b.tokens)
}

// Len returns the number of buffered bytes not yet taken as a part.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Uploaded returns the number of bytes of the current file already taken as parts.
func (b *Buffer) Uploaded() int64 {
	return b.uploaded
}

// Pool returns the pool part buffers are drawn from.
func (b *Buffer) Pool() *pool.BufferPool {
	return b.pool
}

func (b *Buffer) partThreshold() int64 {
	return max(b.limits.PartSize, b.limits.MinPartSize)
}
