package storage

import (
	"bytes"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/railwaystations/inbox-api/internal/models"
)

func setupStorage(t *testing.T, maxSize int64) *LocalPhotoStorage {
	t.Helper()
	s, err := NewLocalPhotoStorage(t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return s
}

func testUploadEntry(id int64) *models.InboxEntry {
	return &models.InboxEntry{ID: id, Extension: "jpg"}
}

func TestStoreUpload(t *testing.T) {
	s := setupStorage(t, 1024)
	content := []byte("fake jpeg bytes")

	crc, err := s.StoreUpload(bytes.NewReader(content), "1.jpg")
	if err != nil {
		t.Fatalf("StoreUpload failed: %v", err)
	}
	if crc != crc32.ChecksumIEEE(content) {
		t.Errorf("checksum mismatch: got %d", crc)
	}

	stored, err := os.ReadFile(s.UploadPath("1.jpg"))
	if err != nil {
		t.Fatalf("upload not on disk: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Error("stored bytes differ from upload")
	}
}

func TestStoreUpload_TooLarge(t *testing.T) {
	s := setupStorage(t, 10)

	_, err := s.StoreUpload(strings.NewReader("this is more than ten bytes"), "2.jpg")
	if !errors.Is(err, ErrPhotoTooLarge) {
		t.Fatalf("expected ErrPhotoTooLarge, got %v", err)
	}
	if _, err := os.Stat(s.UploadPath("2.jpg")); !os.IsNotExist(err) {
		t.Error("partial file must be removed")
	}
}

func TestStoreUpload_ExactLimit(t *testing.T) {
	s := setupStorage(t, 10)

	if _, err := s.StoreUpload(strings.NewReader("exactly 10"), "3.jpg"); err != nil {
		t.Fatalf("upload at the limit must succeed: %v", err)
	}
}

func TestImportPhoto(t *testing.T) {
	s := setupStorage(t, 1024)
	entry := testUploadEntry(5)
	station := &models.Station{Key: models.StationKey{Country: "de", StationID: "8009"}}

	if _, err := s.StoreUpload(strings.NewReader("photo"), entry.Filename()); err != nil {
		t.Fatal(err)
	}
	if err := s.ImportPhoto(entry, station); err != nil {
		t.Fatalf("ImportPhoto failed: %v", err)
	}

	dest := filepath.Join(s.root, "photos", "de", "8009.jpg")
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("photo not moved to %s: %v", dest, err)
	}
	if _, err := os.Stat(s.UploadPath(entry.Filename())); !os.IsNotExist(err) {
		t.Error("raw upload should have been moved away")
	}
}

func TestImportPhoto_PrefersProcessed(t *testing.T) {
	s := setupStorage(t, 1024)
	entry := testUploadEntry(6)
	station := &models.Station{Key: models.StationKey{Country: "de", StationID: "100"}}

	if _, err := s.StoreUpload(strings.NewReader("raw"), entry.Filename()); err != nil {
		t.Fatal(err)
	}
	processed := s.processedPath(entry.Filename())
	if err := os.WriteFile(processed, []byte("scaled"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.ImportPhoto(entry, station); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(s.root, "photos", "de", "100.jpg")
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "scaled" {
		t.Error("processed variant must win over the raw upload")
	}
	if _, err := os.Stat(s.UploadPath(entry.Filename())); err != nil {
		t.Error("raw upload stays behind as audit copy")
	}
}

func TestImportAndReject_RequireStoredUpload(t *testing.T) {
	s := setupStorage(t, 1024)
	// A problem report has no extension and therefore no filename.
	report := &models.InboxEntry{ID: 8}
	station := &models.Station{Key: models.StationKey{Country: "de", StationID: "8009"}}

	if err := s.ImportPhoto(report, station); err == nil {
		t.Error("import without a stored upload must fail")
	}
	if _, err := os.Stat(filepath.Join(s.root, "inbox", "processed")); err != nil {
		t.Errorf("processed area must be left in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.root, "photos", "de")); !os.IsNotExist(err) {
		t.Error("nothing may land in canonical photo storage")
	}
	if err := s.RejectPhoto(report); err == nil {
		t.Error("reject without a stored upload must fail")
	}
}

func TestRejectPhoto(t *testing.T) {
	s := setupStorage(t, 1024)
	entry := testUploadEntry(7)

	if _, err := s.StoreUpload(strings.NewReader("photo"), entry.Filename()); err != nil {
		t.Fatal(err)
	}
	if err := s.RejectPhoto(entry); err != nil {
		t.Fatalf("RejectPhoto failed: %v", err)
	}

	rejected := filepath.Join(s.root, "inbox", "rejected", entry.Filename())
	if _, err := os.Stat(rejected); err != nil {
		t.Errorf("photo not in rejected area: %v", err)
	}
	if _, err := os.Stat(s.UploadPath(entry.Filename())); !os.IsNotExist(err) {
		t.Error("upload should have been moved away")
	}
}

func TestIsProcessed(t *testing.T) {
	s := setupStorage(t, 1024)

	if s.IsProcessed("9.jpg") {
		t.Error("nothing processed yet")
	}
	if err := os.WriteFile(s.processedPath("9.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !s.IsProcessed("9.jpg") {
		t.Error("expected processed flag")
	}
}
