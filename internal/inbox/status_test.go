package inbox

import (
	"context"
	"testing"

	"github.com/railwaystations/inbox-api/internal/models"
)

func TestQueryStatus_DerivedStates(t *testing.T) {
	env := newTestEnv()
	env.stations.add(models.Station{Key: keyDE8009, Title: "Frankfurt", Coordinates: coordsFFM})
	user := verifiedUser()

	reason := "blurry"
	accepted := env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: user.ID, Done: true})
	rejected := env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: user.ID, Done: true, RejectReason: &reason})
	pending := env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: user.ID, Extension: "jpg", Checksum: 123})

	queries := []*models.StateQuery{
		{ID: accepted},
		{ID: rejected},
		{ID: pending},
	}
	if err := env.service.QueryStatus(context.Background(), user, queries); err != nil {
		t.Fatalf("QueryStatus failed: %v", err)
	}

	if queries[0].State != models.StateAccepted {
		t.Errorf("done without reason should be ACCEPTED, got %s", queries[0].State)
	}
	if queries[1].State != models.StateRejected || queries[1].RejectReason != reason {
		t.Errorf("done with reason should be REJECTED with reason, got %s %q", queries[1].State, queries[1].RejectReason)
	}
	// The pending entry is the only open one on the station, no photo
	// exists: REVIEW.
	if queries[2].State != models.StateReview {
		t.Errorf("open entry without conflict should be REVIEW, got %s", queries[2].State)
	}
	if queries[2].Filename != "3.jpg" || queries[2].Checksum != 123 {
		t.Errorf("query should carry filename/checksum, got %q %d", queries[2].Filename, queries[2].Checksum)
	}
	if queries[2].InboxURL == "" {
		t.Error("query should carry the inbox url")
	}
}

func TestQueryStatus_ConflictRecomputedLive(t *testing.T) {
	env := newTestEnv()
	env.stations.add(models.Station{Key: keyDE8009, Title: "Frankfurt", Coordinates: coordsFFM})
	user := verifiedUser()

	first := env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: user.ID})

	queries := []*models.StateQuery{{ID: first}}
	if err := env.service.QueryStatus(context.Background(), user, queries); err != nil {
		t.Fatal(err)
	}
	if queries[0].State != models.StateReview {
		t.Fatalf("expected REVIEW before competitor arrives, got %s", queries[0].State)
	}

	// A competing upload arrives after the entry was created.
	env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: 99})

	if err := env.service.QueryStatus(context.Background(), user, queries); err != nil {
		t.Fatal(err)
	}
	if queries[0].State != models.StateConflict {
		t.Errorf("conflict must be recomputed live, got %s", queries[0].State)
	}
}

func TestQueryStatus_ForeignAndUnknownEntries(t *testing.T) {
	env := newTestEnv()
	user := verifiedUser()
	foreign := env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: 99})

	queries := []*models.StateQuery{
		{ID: foreign},
		{ID: 4711},
		{Key: models.StationKey{Country: "de", StationID: "9999"}},
	}
	if err := env.service.QueryStatus(context.Background(), user, queries); err != nil {
		t.Fatal(err)
	}
	for i, q := range queries {
		if q.State != models.StateUnknown {
			t.Errorf("query %d should stay UNKNOWN, got %s", i, q.State)
		}
	}
}

func TestQueryStatus_ResolveByStationKey(t *testing.T) {
	env := newTestEnv()
	env.stations.add(models.Station{Key: keyDE8009, Title: "Frankfurt", Coordinates: coordsFFM})
	user := verifiedUser()

	env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: user.ID, Done: true})
	newest := env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: user.ID})

	queries := []*models.StateQuery{{Key: keyDE8009}}
	if err := env.service.QueryStatus(context.Background(), user, queries); err != nil {
		t.Fatal(err)
	}
	if queries[0].ID != newest {
		t.Errorf("expected newest open entry %d, got %d", newest, queries[0].ID)
	}
}

func TestListAdminInbox(t *testing.T) {
	env := newTestEnv()
	env.stations.add(models.Station{Key: keyDE8009, Title: "Frankfurt", Coordinates: coordsFFM})

	upload := env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: 1, Extension: "jpg"})
	env.entries.add(models.InboxEntry{Key: keyDE8009, Photographer: 2, Done: true, Extension: "jpg"})
	proposal := env.entries.add(models.InboxEntry{
		Title: "Frankfurt Süd", Photographer: 3, Extension: "jpg",
		Coordinates: models.Coordinates{Lat: coordsFFM.Lat + 0.001, Lon: coordsFFM.Lon},
	})
	env.photos.processed["1.jpg"] = true

	items, err := env.service.ListAdminInbox(context.Background())
	if err != nil {
		t.Fatalf("ListAdminInbox failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 open entries, got %d", len(items))
	}

	byID := map[int64]models.InboxListItem{}
	for _, item := range items {
		byID[item.Entry.ID] = item
	}
	if !byID[upload].Processed {
		t.Error("upload with processed file should be flagged processed")
	}
	if byID[upload].CoordinateConflict {
		t.Error("entry with station key gets no coordinate-conflict annotation")
	}
	if !byID[proposal].CoordinateConflict {
		t.Error("proposal near existing station should be flagged")
	}
}
