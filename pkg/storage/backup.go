package storage

import (
	"archive/zip"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// BackupDocuments creates a zip archive of the collection file and all
// rich cache blobs, written next to the collection file.
func BackupDocuments(collectionPath, cacheDir string) (string, error) {
	dir := filepath.Dir(collectionPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	timestamp := time.Now().Format("20060102-1504")
	zipPath := filepath.Join(dir, "backup-"+timestamp+".zip")

	// Remove old zip if exists
	if _, err := os.Stat(zipPath); err == nil {
		if err := os.Remove(zipPath); err != nil {
			return "", err
		}
	}

	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	addFile := func(path, name string) {
		f, err := os.Open(path)
		if err != nil {
			return // skip unreadable files
		}
		defer f.Close()
		w, err := zipWriter.Create(name)
		if err != nil {
			return
		}
		if _, err := io.Copy(w, f); err != nil {
			return
		}
	}

	addFile(collectionPath, filepath.Base(collectionPath))

	cacheFiles, err := filepath.Glob(filepath.Join(cacheDir, "*"+CacheFileExt))
	if err != nil {
		return "", err
	}
	for _, file := range cacheFiles {
		addFile(file, "cache/"+filepath.Base(file))
	}

	log.Printf("Backup zip created at: %s", zipPath)
	return zipPath, nil
}
