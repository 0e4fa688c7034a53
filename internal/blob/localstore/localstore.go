// Package localstore implements blob.Store on a billy filesystem.
//
// Buckets are top-level directories and keys are paths below them. Parts are
// staged under <bucket>/.multipart/<upload-id>/ and concatenated into the final
// object on completion, so a half-written file is never visible under its key.
// It backs local runs and tests; memfs gives a fully in-memory store.
package localstore

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
)

const stagingDir = ".multipart"

// Store writes objects to a billy filesystem.
type Store struct {
	fs billy.Filesystem
	mu sync.Mutex
}

// New creates a Store on fs.
func New(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// NewOSStore creates a Store rooted at a directory of the local disk.
func NewOSStore(root string) *Store {
	return New(osfs.New(root))
}

// NewInMemoryStore creates a Store backed by an in-memory filesystem.
func NewInMemoryStore() *Store {
	return New(memfs.New())
}

var _ blob.Store = (*Store)(nil)

// InitiateMultipartUpload implements blob.Store.
func (s *Store) InitiateMultipartUpload(_ context.Context, bucket, key string, _ blob.UploadOptions) (string, error) {
	uploadID := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(s.staging(bucket, uploadID), 0o755); err != nil {
		return "", errors.NewObjectError("createMultipartUpload", bucket, key, err)
	}
	return uploadID, nil
}

// UploadPart implements blob.Store. A body that does not match its Content-MD5 is rejected.
func (s *Store) UploadPart(_ context.Context, part blob.Part) (string, error) {
	if blob.ContentMD5(part.Data) != part.ContentMD5 {
		return "", errors.NewObjectError("uploadPart", part.Bucket, part.Key, errors.ErrChecksumMismatch).
			WithMessage("part " + strconv.Itoa(int(part.Number)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.staging(part.Bucket, part.UploadID)
	if _, err := s.fs.Stat(dir); err != nil {
		return "", errors.NewObjectError("uploadPart", part.Bucket, part.Key, err).WithMessage("unknown upload " + part.UploadID)
	}
	name := s.fs.Join(dir, strconv.Itoa(int(part.Number)))
	if err := util.WriteFile(s.fs, name, part.Data, 0o644); err != nil {
		return "", errors.NewObjectError("uploadPart", part.Bucket, part.Key, err)
	}
	return etag(part.Data), nil
}

// CompleteMultipartUpload implements blob.Store.
func (s *Store) CompleteMultipartUpload(_ context.Context, bucket, key, uploadID string, parts []blob.CompletedPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.staging(bucket, uploadID)
	assembled := s.fs.Join(dir, "object")

	out, err := s.fs.Create(assembled)
	if err != nil {
		return errors.NewObjectError("completeMultipartUpload", bucket, key, err)
	}
	for i, p := range parts {
		if p.Number != int32(i+1) {
			_ = out.Close()
			return errors.NewObjectError("completeMultipartUpload", bucket, key, errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("part %d listed at position %d", p.Number, i+1))
		}
		if err := s.appendPart(out, s.fs.Join(dir, strconv.Itoa(int(p.Number))), p.ETag); err != nil {
			_ = out.Close()
			return errors.NewObjectError("completeMultipartUpload", bucket, key, err)
		}
	}
	if err := out.Close(); err != nil {
		return errors.NewObjectError("completeMultipartUpload", bucket, key, err)
	}

	final := s.fs.Join(bucket, key)
	if err := s.fs.MkdirAll(path.Dir(final), 0o755); err != nil {
		return errors.NewObjectError("completeMultipartUpload", bucket, key, err)
	}
	if err := s.fs.Rename(assembled, final); err != nil {
		return errors.NewObjectError("completeMultipartUpload", bucket, key, err)
	}
	return util.RemoveAll(s.fs, dir)
}

// AbortMultipartUpload implements blob.Store. Aborting an unknown upload is not an error.
func (s *Store) AbortMultipartUpload(_ context.Context, bucket, key, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.RemoveAll(s.fs, s.staging(bucket, uploadID)); err != nil && !os.IsNotExist(err) {
		return errors.NewObjectError("abortMultipartUpload", bucket, key, err)
	}
	return nil
}

// appendPart copies a staged part to out after checking it against its entity tag.
func (s *Store) appendPart(out io.Writer, name, wantETag string) error {
	in, err := s.fs.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	h := md5.New()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		return err
	}
	if got := fmt.Sprintf(`"%x"`, h.Sum(nil)); got != wantETag {
		return fmt.Errorf("%w: %s has etag %s, want %s", errors.ErrChecksumMismatch, name, got, wantETag)
	}
	return nil
}

func (s *Store) staging(bucket, uploadID string) string {
	return s.fs.Join(bucket, stagingDir, uploadID)
}

func etag(data []byte) string {
	return fmt.Sprintf(`"%x"`, md5.Sum(data))
}
