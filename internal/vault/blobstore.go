package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// BlobStore persists ciphertext blobs on the local filesystem, one
// directory per reference token.
type BlobStore struct {
	root string
}

// NewBlobStore creates the store root if needed.
func NewBlobStore(root string) (*BlobStore, error) {
	if root == "" {
		return nil, errors.New("blobstore: empty root")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}
	return &BlobStore{root: root}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SafeFilename strips any path component and replaces unsafe characters,
// so declared filenames from the UI cannot escape the token directory.
func SafeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "contract"
	}
	return unsafeFilenameChars.ReplaceAllString(base, "_")
}

// Write stores ciphertext under <root>/<token>/<name>.bin and returns the
// full path. name must already be sanitized.
func (s *BlobStore) Write(token, name string, ciphertext []byte) (string, error) {
	dir := filepath.Join(s.root, token)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("blobstore: mkdir: %w", err)
	}
	path := filepath.Join(dir, name+".bin")
	if err := os.WriteFile(path, ciphertext, 0o600); err != nil {
		return "", fmt.Errorf("blobstore: write: %w", err)
	}
	return path, nil
}

// Read returns the ciphertext stored at path.
func (s *BlobStore) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Remove deletes the blob at path. A missing file is not an error: the
// retention sweep must be idempotent.
func (s *BlobStore) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
