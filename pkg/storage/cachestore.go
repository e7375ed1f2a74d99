package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"inkwell/pkg/errors"
)

// CacheFileExt is the extension of on-disk rich blob files.
const CacheFileExt = ".rtx"

// RichCacheStore persists one serialized rich blob per document under
// a cache directory, keyed by document ID. Blobs live outside the
// collection file so the JSON store stays small.
type RichCacheStore struct {
	rootDir string
	mutex   sync.RWMutex
}

// NewRichCacheStore creates a rich cache store rooted at rootDir.
func NewRichCacheStore(rootDir string) *RichCacheStore {
	// Create the cache directory if it doesn't exist. Failure is not
	// fatal here; it will surface when a blob is actually saved.
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		fmt.Printf("Warning: Failed to create cache directory %s: %v\n", rootDir, err)
	}

	return &RichCacheStore{
		rootDir: rootDir,
	}
}

// RootDir returns the cache root directory.
func (cs *RichCacheStore) RootDir() string {
	return cs.rootDir
}

// PathFor returns the cache file path for a document ID.
func (cs *RichCacheStore) PathFor(docID string) string {
	return filepath.Join(cs.rootDir, docID+CacheFileExt)
}

// Save writes a rich blob for the given document ID and returns the
// cache file path. The write is atomic: the blob goes to a temporary
// file in the cache directory first and is then renamed over the
// target, so a reader never observes a partially written file.
func (cs *RichCacheStore) Save(docID string, blob []byte) (string, error) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if err := os.MkdirAll(cs.rootDir, 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_WRITE_FAILED",
			"failed to create cache directory").WithContext("docId", docID)
	}

	target := cs.PathFor(docID)
	tmp, err := os.CreateTemp(cs.rootDir, docID+"-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_WRITE_FAILED",
			"failed to create temporary cache file").WithContext("docId", docID)
	}

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_WRITE_FAILED",
			"failed to write cache file").WithContext("docId", docID)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_WRITE_FAILED",
			"failed to close cache file").WithContext("docId", docID)
	}

	// Atomic replace; any previous blob stays intact until this succeeds
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_WRITE_FAILED",
			"failed to replace cache file").WithContext("docId", docID)
	}

	return target, nil
}

// Load reads the rich blob for a document. An explicit path, when
// given and readable, is preferred over the path derived from the
// document ID. A missing file is a normal state for documents without
// rich content and returns (nil, nil).
func (cs *RichCacheStore) Load(explicitPath, docID string) ([]byte, error) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if explicitPath != "" {
		data, err := os.ReadFile(explicitPath)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_READ_FAILED",
				"failed to read cache file").WithContext("path", explicitPath)
		}
		// Stale path; fall through to the derived location
	}

	data, err := os.ReadFile(cs.PathFor(docID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_READ_FAILED",
			"failed to read cache file").WithContext("docId", docID)
	}
	return data, nil
}

// Remove deletes the cache file for a document ID. A missing file is
// not an error.
func (cs *RichCacheStore) Remove(docID string) error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	err := os.Remove(cs.PathFor(docID))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "CACHE_REMOVE_FAILED",
			"failed to remove cache file").WithContext("docId", docID)
	}
	return nil
}
