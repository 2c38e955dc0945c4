// Package storage keeps uploaded photo files on the local filesystem.
// Layout: <root>/inbox holds fresh uploads named "<entryID>.<ext>",
// <root>/inbox/processed holds the output of the external scaling
// pipeline, <root>/inbox/rejected the refused uploads, and
// <root>/photos/<country> the imported canonical photos.
package storage

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/railwaystations/inbox-api/internal/models"
)

// ErrPhotoTooLarge signals that an upload exceeded the size limit. The
// partial file is removed before the error is returned.
var ErrPhotoTooLarge = errors.New("photo too large")

type PhotoStorage interface {
	StoreUpload(r io.Reader, filename string) (uint32, error)
	ImportPhoto(entry *models.InboxEntry, station *models.Station) error
	RejectPhoto(entry *models.InboxEntry) error
	IsProcessed(filename string) bool
	UploadPath(filename string) string
}

type LocalPhotoStorage struct {
	root    string
	maxSize int64
}

func NewLocalPhotoStorage(root string, maxSize int64) (*LocalPhotoStorage, error) {
	for _, dir := range []string{
		filepath.Join(root, "inbox"),
		filepath.Join(root, "inbox", "processed"),
		filepath.Join(root, "inbox", "rejected"),
		filepath.Join(root, "photos"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create photo directory: %w", err)
		}
	}
	return &LocalPhotoStorage{root: root, maxSize: maxSize}, nil
}

// StoreUpload streams the upload to the inbox area, computing a crc32
// checksum on the way. Exceeding maxSize aborts the write and removes
// the partial file.
func (p *LocalPhotoStorage) StoreUpload(r io.Reader, filename string) (uint32, error) {
	path := p.UploadPath(filename)
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	crc := crc32.NewIEEE()
	written, err := io.Copy(io.MultiWriter(f, crc), io.LimitReader(r, p.maxSize+1))
	closeErr := f.Close()

	switch {
	case err != nil:
		os.Remove(path)
		return 0, fmt.Errorf("failed to store upload: %w", err)
	case written > p.maxSize:
		os.Remove(path)
		return 0, ErrPhotoTooLarge
	case closeErr != nil:
		os.Remove(path)
		return 0, fmt.Errorf("failed to store upload: %w", closeErr)
	}
	return crc.Sum32(), nil
}

// ImportPhoto moves the upload into permanent per-country storage under
// the station id. The processed variant wins over the raw upload when
// the scaling pipeline has already run.
func (p *LocalPhotoStorage) ImportPhoto(entry *models.InboxEntry, station *models.Station) error {
	filename := entry.Filename()
	if filename == "" {
		return fmt.Errorf("entry %d has no stored upload", entry.ID)
	}
	src := p.UploadPath(filename)
	if processed := p.processedPath(filename); fileExists(processed) {
		// Keep permanent storage append-only: the raw upload stays
		// behind as the import audit copy.
		src = processed
	}

	destDir := filepath.Join(p.root, "photos", station.Key.Country)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create country directory: %w", err)
	}
	dest := filepath.Join(destDir, station.Key.StationID+"."+entry.Extension)
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("failed to move photo into place: %w", err)
	}
	return nil
}

// RejectPhoto moves the upload and any processed variant aside.
func (p *LocalPhotoStorage) RejectPhoto(entry *models.InboxEntry) error {
	filename := entry.Filename()
	if filename == "" {
		return fmt.Errorf("entry %d has no stored upload", entry.ID)
	}
	rejected := filepath.Join(p.root, "inbox", "rejected", filename)
	if err := os.Rename(p.UploadPath(filename), rejected); err != nil {
		return fmt.Errorf("failed to move rejected photo: %w", err)
	}
	if processed := p.processedPath(filename); fileExists(processed) {
		os.Remove(processed)
	}
	return nil
}

// IsProcessed reports whether the external scaling step has produced
// output for the upload.
func (p *LocalPhotoStorage) IsProcessed(filename string) bool {
	return fileExists(p.processedPath(filename))
}

func (p *LocalPhotoStorage) UploadPath(filename string) string {
	return filepath.Join(p.root, "inbox", filename)
}

func (p *LocalPhotoStorage) processedPath(filename string) string {
	return filepath.Join(p.root, "inbox", "processed", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
