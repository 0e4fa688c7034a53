// Package testutil provides test helper functions.
package testutil

import (
	"crypto/md5"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GenerateRandomData returns size random bytes, for record bodies and parts
// whose content does not matter.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}

// GenerateTestBucketName returns a unique, DNS-compliant bucket name starting with prefix.
func GenerateTestBucketName(prefix string) string {
	name := strings.ToLower(strings.ReplaceAll(prefix, "_", "-"))
	name = fmt.Sprintf("%s-%d-%04d", name, time.Now().Unix(), rand.Intn(10000))
	return name[:min(len(name), 63)]
}

// GenerateTestQueueName returns a unique queue name starting with prefix.
func GenerateTestQueueName(prefix string) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().UnixNano(), rand.Intn(10000))
}

// CalculateETag returns the entity tag S3 reports for a single part: its quoted hex MD5.
func CalculateETag(data []byte) string {
	return fmt.Sprintf(`"%x"`, md5.Sum(data))
}
