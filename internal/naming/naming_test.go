package naming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
)

var instant = time.Date(2017, time.March, 4, 15, 6, 7, 891_000_000, time.UTC)

func TestNamer_Name(t *testing.T) {
	n, err := New(`"yyyy-MM-dd'T'HH:mm:ss"*.json`, instant)
	require.NoError(t, err)

	assert.Equal(t, "2017-03-04T15:06:07*.json", n.Base())
	assert.Equal(t, "2017-03-04T15:06:07.json", n.Name(0))
	assert.Equal(t, "2017-03-04T15:06:07-1.json", n.Name(1))
	assert.Equal(t, "2017-03-04T15:06:07-12.json", n.Name(12))
}

func TestNamer_ResolvesInUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	n, err := New(`"HH:mm"*.log`, instant.In(zone))
	require.NoError(t, err)
	assert.Equal(t, "15:06.log", n.Name(0))
}

func TestNamer_PrefixAndPostfix(t *testing.T) {
	n, err := New(`s3"dd/MM/yyyy hh:mm:ss a"*.log`, instant)
	require.NoError(t, err)
	assert.Equal(t, "s304/03/2017 03:06:07 PM.log", n.Name(0))
	assert.Equal(t, "s304/03/2017 03:06:07 PM-2.log", n.Name(2))
}

func TestNew_InvalidPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"no_quotes", "yyyy*.json"},
		{"single_quote_char", `"yyyy*.json`},
		{"no_wildcard", `"yyyy".json`},
		{"week_based_field", `"YYYY-ww"*.json`},
		{"unterminated_literal", `"yyyy'T"*.json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.pattern, instant)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidFilePattern)
		})
	}
}

func TestFormatDateTime(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"yyyy-MM-dd'T'HH:mm:ss", "2017-03-04T15:06:07"},
		{"yyyyMMddHHmmssSSS", "20170304150607891"},
		{"yy-M-d H:m:s", "17-3-4 15:6:7"},
		{"uuuu DDD", "2017 063"},
		{"MMM MMMM MMMMM", "Mar March M"},
		{"E EEEE EEEEE", "Sat Saturday S"},
		{"QQQ QQQQ", "Q1 1st quarter"},
		{"h K k a", "3 3 15 PM"},
		{"G GGGG", "AD Anno Domini"},
		{"'It''s' yyyy", "It's 2017"},
		{"''yyyy''", "'2017'"},
		{"yyyy[-MM]", "2017-03"},
		{"X XX XXX", "Z Z Z"},
		{"x xx xxx", "+00 +0000 +00:00"},
		{"Z ZZZZ ZZZZZ", "+0000 GMT Z"},
		{"O VV", "GMT Z"},
		{"A", "54367891"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := formatDateTime(tt.pattern, instant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDateTime_Midnight(t *testing.T) {
	midnight := time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)
	got, err := formatDateTime("hh a kk KK", midnight)
	require.NoError(t, err)
	assert.Equal(t, "12 AM 24 00", got)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "file.json", Key("", "file.json"))
	assert.Equal(t, "exports/file.json", Key("exports", "file.json"))
}
