package inbox

import (
	"bytes"
	"context"
	"hash/crc32"
	"io"
	"sync"

	"github.com/railwaystations/inbox-api/internal/models"
	"github.com/railwaystations/inbox-api/internal/repository"
	"github.com/railwaystations/inbox-api/internal/storage"
)

// In-memory collaborators implementing the store contracts.

type mockStations struct {
	stations map[models.StationKey]*models.Station
	nextID   int64
}

func newMockStations() *mockStations {
	return &mockStations{stations: make(map[models.StationKey]*models.Station)}
}

func (m *mockStations) add(st models.Station) {
	copied := st
	m.stations[st.Key] = &copied
}

func (m *mockStations) FindByKey(ctx context.Context, key models.StationKey) (*models.Station, error) {
	st, ok := m.stations[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (m *mockStations) InsertStation(ctx context.Context, st *models.Station) error {
	copied := *st
	m.stations[st.Key] = &copied
	return nil
}

func (m *mockStations) UpdateActive(ctx context.Context, key models.StationKey, active bool) error {
	st, ok := m.stations[key]
	if !ok {
		return repository.ErrNotFound
	}
	st.Active = active
	return nil
}

func (m *mockStations) UpdateTitle(ctx context.Context, key models.StationKey, title string) error {
	st, ok := m.stations[key]
	if !ok {
		return repository.ErrNotFound
	}
	st.Title = title
	return nil
}

func (m *mockStations) UpdateLocation(ctx context.Context, key models.StationKey, coords models.Coordinates) error {
	st, ok := m.stations[key]
	if !ok {
		return repository.ErrNotFound
	}
	st.Coordinates = coords
	return nil
}

func (m *mockStations) DeleteStation(ctx context.Context, key models.StationKey) error {
	if _, ok := m.stations[key]; !ok {
		return repository.ErrNotFound
	}
	delete(m.stations, key)
	return nil
}

func (m *mockStations) CountNearby(ctx context.Context, coords models.Coordinates) (int, error) {
	count := 0
	for _, st := range m.stations {
		if models.Near(coords, st.Coordinates) {
			count++
		}
	}
	return count, nil
}

func (m *mockStations) FindNearby(ctx context.Context, coords models.Coordinates, maxDistanceKm float64, limit int) ([]models.Station, error) {
	var result []models.Station
	for _, st := range m.stations {
		if coords.DistanceTo(st.Coordinates) <= maxDistanceKm {
			result = append(result, *st)
		}
	}
	return result, nil
}

func (m *mockStations) InsertPhoto(ctx context.Context, p *models.Photo) (int64, error) {
	st, ok := m.stations[p.Key]
	if !ok {
		return 0, repository.ErrNotFound
	}
	m.nextID++
	copied := *p
	copied.ID = m.nextID
	st.Photo = &copied
	return m.nextID, nil
}

func (m *mockStations) UpdatePhoto(ctx context.Context, p *models.Photo) error {
	st, ok := m.stations[p.Key]
	if !ok || st.Photo == nil {
		return repository.ErrNotFound
	}
	copied := *p
	copied.ID = st.Photo.ID
	st.Photo = &copied
	return nil
}

func (m *mockStations) DeletePhoto(ctx context.Context, key models.StationKey) error {
	st, ok := m.stations[key]
	if !ok || st.Photo == nil {
		return repository.ErrNotFound
	}
	st.Photo = nil
	return nil
}

type mockEntries struct {
	entries map[int64]*models.InboxEntry
	nextID  int64
}

func newMockEntries() *mockEntries {
	return &mockEntries{entries: make(map[int64]*models.InboxEntry)}
}

func (m *mockEntries) add(e models.InboxEntry) int64 {
	m.nextID++
	e.ID = m.nextID
	m.entries[e.ID] = &e
	return e.ID
}

func (m *mockEntries) InsertEntry(ctx context.Context, e *models.InboxEntry) (int64, error) {
	copied := *e
	return m.add(copied), nil
}

func (m *mockEntries) FindEntryByID(ctx context.Context, id int64) (*models.InboxEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockEntries) FindNewestPendingByUser(ctx context.Context, key models.StationKey, photographer int64) (*models.InboxEntry, error) {
	var newest *models.InboxEntry
	for _, e := range m.entries {
		if e.Done || e.Key != key || e.Photographer != photographer {
			continue
		}
		if newest == nil || e.ID > newest.ID {
			newest = e
		}
	}
	if newest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *newest
	return &copied, nil
}

func (m *mockEntries) ListPending(ctx context.Context) ([]models.InboxEntry, error) {
	var result []models.InboxEntry
	for id := int64(1); id <= m.nextID; id++ {
		if e, ok := m.entries[id]; ok && !e.Done {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEntries) CountPendingForStation(ctx context.Context, excludeID int64, key models.StationKey) (int, error) {
	count := 0
	for _, e := range m.entries {
		if !e.Done && e.ID != excludeID && e.Key == key {
			count++
		}
	}
	return count, nil
}

func (m *mockEntries) CountPendingNear(ctx context.Context, excludeID int64, coords models.Coordinates) (int, error) {
	count := 0
	for _, e := range m.entries {
		if !e.Done && e.ID != excludeID && models.Near(coords, e.Coordinates) {
			count++
		}
	}
	return count, nil
}

func (m *mockEntries) MarkDone(ctx context.Context, id int64) error {
	e, ok := m.entries[id]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Done {
		return repository.ErrAlreadyDone
	}
	e.Done = true
	return nil
}

func (m *mockEntries) MarkRejected(ctx context.Context, id int64, reason string) error {
	e, ok := m.entries[id]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Done {
		return repository.ErrAlreadyDone
	}
	e.Done = true
	e.RejectReason = &reason
	return nil
}

func (m *mockEntries) UpdateChecksum(ctx context.Context, id int64, crc uint32) error {
	e, ok := m.entries[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Checksum = crc
	return nil
}

func (m *mockEntries) DeleteEntry(ctx context.Context, id int64) error {
	if _, ok := m.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// racingEntries simulates losing every done transition to a concurrent
// command: the precondition check sees an open entry, the conditional
// update then affects no row.
type racingEntries struct {
	*mockEntries
}

func (r *racingEntries) MarkDone(ctx context.Context, id int64) error {
	return repository.ErrAlreadyDone
}

func (r *racingEntries) MarkRejected(ctx context.Context, id int64, reason string) error {
	return repository.ErrAlreadyDone
}

type mockCountries struct {
	countries map[string]models.Country
}

func newMockCountries() *mockCountries {
	return &mockCountries{countries: map[string]models.Country{
		"de": {Code: "de", Name: "Deutschland", Active: true},
		"fr": {Code: "fr", Name: "France", OverrideLicense: models.LicenseCCBYNC40, Active: true},
	}}
}

func (m *mockCountries) FindCountry(ctx context.Context, code string) (*models.Country, error) {
	c, ok := m.countries[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type mockPhotoStorage struct {
	maxSize   int64
	stored    map[string][]byte
	imported  []string
	rejected  []string
	processed map[string]bool
	importErr error
}

func newMockPhotoStorage() *mockPhotoStorage {
	return &mockPhotoStorage{
		maxSize:   1024,
		stored:    make(map[string][]byte),
		processed: make(map[string]bool),
	}
}

func (m *mockPhotoStorage) StoreUpload(r io.Reader, filename string) (uint32, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, m.maxSize+1)); err != nil {
		return 0, err
	}
	if int64(buf.Len()) > m.maxSize {
		return 0, storage.ErrPhotoTooLarge
	}
	m.stored[filename] = buf.Bytes()
	return crc32.ChecksumIEEE(buf.Bytes()), nil
}

func (m *mockPhotoStorage) ImportPhoto(entry *models.InboxEntry, station *models.Station) error {
	if m.importErr != nil {
		return m.importErr
	}
	m.imported = append(m.imported, entry.Filename())
	return nil
}

func (m *mockPhotoStorage) RejectPhoto(entry *models.InboxEntry) error {
	m.rejected = append(m.rejected, entry.Filename())
	return nil
}

func (m *mockPhotoStorage) IsProcessed(filename string) bool {
	return m.processed[filename]
}

func (m *mockPhotoStorage) UploadPath(filename string) string {
	return "/inbox/" + filename
}

type recordedAnnouncement struct {
	station  models.Station
	entryID  int64
	photoID  int64
	photoURL string
}

type recordingHooks struct {
	mu            sync.Mutex
	monitorTexts  []string
	monitorPhotos []string
	announcements []recordedAnnouncement
}

func (h *recordingHooks) NotifyMonitor(text string, photoPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.monitorTexts = append(h.monitorTexts, text)
	h.monitorPhotos = append(h.monitorPhotos, photoPath)
}

func (h *recordingHooks) AnnouncePhoto(station *models.Station, entry *models.InboxEntry, photoID int64, photoURL string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.announcements = append(h.announcements, recordedAnnouncement{
		station:  *station,
		entryID:  entry.ID,
		photoID:  photoID,
		photoURL: photoURL,
	})
}

type testEnv struct {
	service   *Service
	stations  *mockStations
	entries   *mockEntries
	countries *mockCountries
	photos    *mockPhotoStorage
	hooks     *recordingHooks
}

func newTestEnv() *testEnv {
	env := &testEnv{
		stations:  newMockStations(),
		entries:   newMockEntries(),
		countries: newMockCountries(),
		photos:    newMockPhotoStorage(),
		hooks:     &recordingHooks{},
	}
	env.service = NewService(env.stations, env.entries, env.countries, env.photos, env.hooks,
		env.photos.maxSize, "https://inbox.example.org")
	return env
}

func verifiedUser() models.User {
	return models.User{ID: 42, Name: "anonym", License: models.LicenseCC0, EmailVerified: true}
}
