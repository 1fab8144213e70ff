// Package filestore keeps attachment buckets on the local filesystem.
// Each file is stored as <root>/<bucket>/<id> with a JSON sidecar holding
// its metadata.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

var (
	ErrUnknownBucket     = errors.New("unknown bucket")
	ErrExtensionRejected = errors.New("file extension not allowed")
	ErrContentRejected   = errors.New("file content does not match an allowed type")
	ErrTooLarge          = errors.New("file exceeds bucket size limit")
)

// AttachmentExtensions are the image types accepted for question attachments.
var AttachmentExtensions = []string{"jpg", "png", "gif", "jpeg", "webp", "heic"}

type Store struct {
	root string

	mu      sync.RWMutex
	buckets map[string]store.Bucket
}

var _ store.FileStore = (*Store)(nil)

func New(root string) *Store {
	return &Store{root: root, buckets: make(map[string]store.Bucket)}
}

// EnsureBucket creates the bucket directory if missing and registers its
// rules. Calling it again replaces the rules.
func (s *Store) EnsureBucket(ctx context.Context, bucket store.Bucket) error {
	if bucket.ID == "" || strings.ContainsAny(bucket.ID, `/\.`) {
		return fmt.Errorf("invalid bucket id %q", bucket.ID)
	}
	if err := os.MkdirAll(filepath.Join(s.root, bucket.ID), 0o755); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket.ID, err)
	}
	s.mu.Lock()
	s.buckets[bucket.ID] = bucket
	s.mu.Unlock()
	return nil
}

func (s *Store) bucket(id string) (store.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[id]
	if !ok {
		return store.Bucket{}, fmt.Errorf("bucket %s: %w", id, ErrUnknownBucket)
	}
	return b, nil
}

func (s *Store) CreateFile(ctx context.Context, bucketID, fileID, name string, blob io.Reader) (store.FileInfo, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return store.FileInfo{}, err
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if len(b.AllowedExtensions) > 0 && !slices.Contains(b.AllowedExtensions, ext) {
		return store.FileInfo{}, fmt.Errorf("%s: %w", name, ErrExtensionRejected)
	}

	limit := b.MaxFileSize
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(blob, limit+1))
	if err != nil {
		return store.FileInfo{}, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return store.FileInfo{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}

	mt := mimetype.Detect(data)
	if len(b.AllowedExtensions) > 0 && !allowedContent(mt, b.AllowedExtensions) {
		return store.FileInfo{}, fmt.Errorf("%s detected as %s: %w", name, mt.String(), ErrContentRejected)
	}

	if fileID == "" {
		fileID = models.NewID()
	}
	if strings.ContainsAny(fileID, `/\`) || strings.HasPrefix(fileID, ".") {
		return store.FileInfo{}, fmt.Errorf("invalid file id %q", fileID)
	}

	info := store.FileInfo{
		ID:        fileID,
		BucketID:  bucketID,
		Name:      filepath.Base(name),
		MIMEType:  mt.String(),
		Size:      int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}

	path := s.path(bucketID, fileID)
	if _, err := os.Stat(path); err == nil {
		return store.FileInfo{}, fmt.Errorf("file %s: %w", fileID, store.ErrConflict)
	}
	if err := writeAtomic(path, bytes.NewReader(data)); err != nil {
		return store.FileInfo{}, err
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return store.FileInfo{}, fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeAtomic(path+".json", bytes.NewReader(meta)); err != nil {
		_ = os.Remove(path)
		return store.FileInfo{}, err
	}
	return info, nil
}

func (s *Store) GetFile(ctx context.Context, bucketID, fileID string) (store.FileInfo, error) {
	if _, err := s.bucket(bucketID); err != nil {
		return store.FileInfo{}, err
	}
	if strings.ContainsAny(fileID, `/\`) || strings.HasPrefix(fileID, ".") || fileID == "" {
		return store.FileInfo{}, fmt.Errorf("file %q: %w", fileID, store.ErrNotFound)
	}
	raw, err := os.ReadFile(s.path(bucketID, fileID) + ".json")
	if errors.Is(err, os.ErrNotExist) {
		return store.FileInfo{}, fmt.Errorf("file %s: %w", fileID, store.ErrNotFound)
	}
	if err != nil {
		return store.FileInfo{}, fmt.Errorf("read metadata %s: %w", fileID, err)
	}
	var info store.FileInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return store.FileInfo{}, fmt.Errorf("decode metadata %s: %w", fileID, err)
	}
	return info, nil
}

func (s *Store) OpenFile(ctx context.Context, bucketID, fileID string) (io.ReadCloser, store.FileInfo, error) {
	info, err := s.GetFile(ctx, bucketID, fileID)
	if err != nil {
		return nil, store.FileInfo{}, err
	}
	f, err := os.Open(s.path(bucketID, fileID))
	if err != nil {
		return nil, store.FileInfo{}, fmt.Errorf("open %s: %w", fileID, err)
	}
	return f, info, nil
}

func (s *Store) path(bucketID, fileID string) string {
	return filepath.Join(s.root, bucketID, fileID)
}

func allowedContent(mt *mimetype.MIME, exts []string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if slices.Contains(exts, strings.TrimPrefix(m.Extension(), ".")) {
			return true
		}
	}
	return false
}

func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
