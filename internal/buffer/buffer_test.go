package buffer

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/config"
)

var jsonArray = Framing{
	FileInitiator:   []byte("["),
	RecordSeparator: []byte(","),
	FileTerminator:  []byte("]"),
}

func generous() Limits {
	return Limits{MaxRecords: 1000, MaxFileSize: 1 << 30, PartSize: 1 << 20, MinPartSize: 1}
}

func TestBuffer_Framing(t *testing.T) {
	b := New(jsonArray, generous(), nil)

	b.Append([]byte("A"), "t1")
	b.Append([]byte("B"), "t2")

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, Accumulate, b.Check())

	part := b.TakePart(true)
	assert.Equal(t, "[A,B]", part.String())
	assert.Equal(t, []string{"t1", "t2"}, b.Tokens())
	assert.Equal(t, int64(5), b.Uploaded())
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_RecordFraming(t *testing.T) {
	b := New(Framing{
		FileInitiator:    []byte("<file>"),
		RecordInitiator:  []byte("<r>"),
		RecordTerminator: []byte("</r>"),
		RecordSeparator:  []byte("\n"),
		FileTerminator:   []byte("</file>"),
	}, generous(), nil)

	b.Append([]byte("1"), "a")
	b.Append([]byte("2"), "b")

	assert.Equal(t, "<file><r>1</r>\n<r>2</r></file>", b.TakePart(true).String())
}

func TestBuffer_NoSeparatorConfigured(t *testing.T) {
	b := New(Framing{}, generous(), nil)
	b.Append([]byte("x"), "1")
	b.Append([]byte("y"), "2")
	assert.Equal(t, "xy", b.TakePart(true).String())
}

func TestBuffer_TerminatorOnlyOnFinalPart(t *testing.T) {
	b := New(jsonArray, generous(), nil)

	b.Append([]byte("A"), "t1")
	assert.Equal(t, "[A", b.TakePart(false).String())

	b.Append([]byte("B"), "t2")
	assert.Equal(t, "B]", b.TakePart(true).String())
	assert.Equal(t, 2, b.Records())
}

func TestBuffer_PeekLeavesBufferUntouched(t *testing.T) {
	b := New(jsonArray, generous(), nil)
	b.Append([]byte("A"), "t1")

	assert.Equal(t, "[A", string(b.Peek()))
	assert.Equal(t, 2, b.Len())
	assert.Zero(t, b.Uploaded())
}

func TestBuffer_ResetStartsNewFile(t *testing.T) {
	b := New(jsonArray, generous(), nil)
	b.Append([]byte("A"), "t1")
	b.TakePart(true)
	b.Reset()

	assert.Equal(t, 0, b.Records())
	assert.Equal(t, int64(0), b.Uploaded())

	b.Append([]byte("C"), "t3")
	assert.Equal(t, "[C", b.TakePart(false).String())
	assert.Equal(t, []string{"t3"}, b.Tokens())
}

func TestBuffer_Check(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		records []string
		flushed int64
		want    Action
	}{
		{
			name:   "empty",
			limits: Limits{MaxRecords: 1, MaxFileSize: 1, PartSize: 1, MinPartSize: 1},
			want:   Accumulate,
		},
		{
			name:    "below_all_limits",
			limits:  Limits{MaxRecords: 10, MaxFileSize: 100, PartSize: 50, MinPartSize: 1},
			records: []string{"aaaa", "bbbb"},
			want:    Accumulate,
		},
		{
			name:    "record_count_reached",
			limits:  Limits{MaxRecords: 2, MaxFileSize: 100, PartSize: 50, MinPartSize: 1},
			records: []string{"a", "b"},
			want:    RollFile,
		},
		{
			name:    "file_size_exceeded",
			limits:  Limits{MaxRecords: 10, MaxFileSize: 7, PartSize: 4, MinPartSize: 1},
			records: []string{"aaaa", "bbbb"},
			want:    RollFile,
		},
		{
			name:    "file_size_counts_uploaded_parts",
			limits:  Limits{MaxRecords: 10, MaxFileSize: 10, PartSize: 50, MinPartSize: 1},
			records: []string{"aaaa"},
			flushed: 8,
			want:    RollFile,
		},
		{
			name:    "part_size_exceeded",
			limits:  Limits{MaxRecords: 10, MaxFileSize: 100, PartSize: 5, MinPartSize: 1},
			records: []string{"aaaa", "bbbb"},
			want:    FlushPart,
		},
		{
			name:    "part_size_equal_accumulates",
			limits:  Limits{MaxRecords: 10, MaxFileSize: 100, PartSize: 8, MinPartSize: 1},
			records: []string{"aaaa", "bbbb"},
			want:    Accumulate,
		},
		{
			name:    "part_floor_applied_at_check",
			limits:  Limits{MaxRecords: 10, MaxFileSize: 100, PartSize: 2, MinPartSize: 16},
			records: []string{"aaaa", "bbbb"},
			want:    Accumulate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(Framing{}, tt.limits, nil)
			b.uploaded = tt.flushed
			for i, r := range tt.records {
				b.Append([]byte(r), fmt.Sprint(i))
			}
			assert.Equal(t, tt.want, b.Check())
		})
	}
}

func TestBuffer_DefaultPartFloor(t *testing.T) {
	b := New(Framing{}, Limits{MaxRecords: 10, MaxFileSize: 1 << 30, PartSize: 1}, nil)
	b.Append(make([]byte, config.MinPartSize), "t")
	assert.Equal(t, Accumulate, b.Check())

	b.Append([]byte("x"), "u")
	assert.Equal(t, FlushPart, b.Check())
}

// Drive the buffer the way the transfer loop does and check that no file grows
// past the size limit by more than one framed record.
func TestBuffer_FileSizeBound(t *testing.T) {
	limits := Limits{MaxRecords: 1000, MaxFileSize: 64, PartSize: 16, MinPartSize: 1}
	b := New(jsonArray, limits, nil)

	var files [][]byte
	var current []byte
	record := []byte("0123456")
	const framed = 8 // record plus separator

	for i := 0; i < 100; i++ {
		b.Append(record, fmt.Sprint(i))
		switch b.Check() {
		case FlushPart:
			current = append(current, b.TakePart(false).Bytes()...)
		case RollFile:
			current = append(current, b.TakePart(true).Bytes()...)
			files = append(files, current)
			current = nil
			b.Reset()
		}
	}

	require.NotEmpty(t, files)
	for _, f := range files {
		assert.LessOrEqual(t, len(f), int(limits.MaxFileSize)+framed+len(jsonArray.FileTerminator))
	}
}

func TestBuffer_TokensAreCopied(t *testing.T) {
	b := New(Framing{}, generous(), nil)
	b.Append([]byte("a"), "1")
	b.Append([]byte("b"), "2")

	tokens := b.Tokens()
	tokens[0] = "changed"

	if diff := cmp.Diff([]string{"1", "2"}, b.Tokens()); diff != "" {
		t.Errorf("Tokens() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		FileInitiator:     "[",
		RecordSeparator:   ",",
		FileTerminator:    "]",
		MaxRecordsPerFile: 5,
		FileSizeKB:        100,
		PartSizeKB:        10,
	}

	f := FramingFrom(cfg)
	assert.Equal(t, []byte("["), f.FileInitiator)
	assert.Empty(t, f.RecordInitiator)

	l := LimitsFrom(cfg)
	assert.Equal(t, 5, l.MaxRecords)
	assert.Equal(t, int64(100*1024), l.MaxFileSize)
	assert.Equal(t, int64(config.MinPartSize), l.PartSize)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "accumulate", Accumulate.String())
	assert.Equal(t, "flush-part", FlushPart.String())
	assert.Equal(t, "roll-file", RollFile.String())
}
