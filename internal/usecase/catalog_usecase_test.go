package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

func TestIngestItems(t *testing.T) {
	h := newHarness(t)
	h.embedder.vectors["Blade Runner. Neon noir"] = []float64{-1, 1}
	h.cache.items["m1"] = domain.ItemInfo{ID: "m1", Title: "stale"}
	year := 1982

	res, err := h.catalog.IngestItems(context.Background(), []IngestItemReq{
		{ID: "m1", Title: "Blade Runner", MediaType: domain.MediaTypeMovie, Year: &year, Description: "Neon noir"},
		{ID: "b1", Title: "Dune", MediaType: domain.MediaTypeBook},
	})
	if err != nil {
		t.Fatalf("IngestItems: %v", err)
	}

	if len(res.Items) != 2 || res.Items[0].TasteVector[0] >= 0 {
		t.Errorf("unexpected result %+v", res.Items)
	}
	if h.tx.calls != 1 {
		t.Errorf("ingestion must run in one transaction, calls=%d", h.tx.calls)
	}
	if len(h.embedder.calls) != 1 || h.embedder.calls[0][1] != "Dune" {
		t.Errorf("embed calls = %v", h.embedder.calls)
	}
	p, ok := h.index.points["m1"]
	if !ok || p.ID != domain.PointID("m1") || len(p.Embedding) != 2 || len(p.TasteVector) != 2 {
		t.Errorf("point not indexed: %+v", p)
	}
	if _, err := h.items.GetByID(context.Background(), "b1"); err != nil {
		t.Errorf("item not stored: %v", err)
	}
	if _, ok := h.cache.items["m1"]; ok {
		t.Error("stale cache entry must be dropped")
	}
}

func TestIngestItemsValidation(t *testing.T) {
	tests := []struct {
		name  string
		items []IngestItemReq
		want  error
	}{
		{"empty", nil, e.ErrNoItems},
		{"no title", []IngestItemReq{{ID: "x", MediaType: domain.MediaTypeMovie}}, e.ErrItemTitleRequired},
		{"bad media type", []IngestItemReq{{ID: "x", Title: "X", MediaType: "podcast"}}, e.ErrInvalidMediaType},
		{"duplicate id", []IngestItemReq{
			{ID: "x", Title: "X", MediaType: domain.MediaTypeMovie},
			{ID: "x", Title: "Y", MediaType: domain.MediaTypeMovie},
		}, e.ErrStatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.catalog.IngestItems(context.Background(), tt.items)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(h.embedder.calls) != 0 {
				t.Error("embedder must not be called for invalid input")
			}
		})
	}
}

func TestIngestItemsIndexFailure(t *testing.T) {
	h := newHarness(t)
	h.index.err = errors.New("qdrant down")

	_, err := h.catalog.IngestItems(context.Background(), []IngestItemReq{{ID: "x", Title: "X", MediaType: domain.MediaTypeMusic}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestIngestItemsInvalidatesDependentProfiles(t *testing.T) {
	h := newHarness(t)
	other := "0d5f1c2b-7a3e-4b9c-8d6f-2e1a3b4c5d6e"
	h.ratings.rated = []domain.RatedItem{
		{Rating: domain.Rating{UserID: testUserID, ItemID: "m1", Value: ptrF(5)}, TasteVector: domain.TasteVector{0.1, 0.1}},
		{Rating: domain.Rating{UserID: other, ItemID: "b9", Value: ptrF(2)}, TasteVector: domain.TasteVector{0.3, 0.3}},
	}
	h.cache.profiles[testUserID] = &domain.TasteProfile{UserID: testUserID}
	h.cache.profiles[other] = &domain.TasteProfile{UserID: other}

	if _, err := h.catalog.IngestItems(context.Background(), []IngestItemReq{
		{ID: "m1", Title: "Solaris", MediaType: domain.MediaTypeMovie, Description: "Slow and haunting"},
	}); err != nil {
		t.Fatalf("IngestItems: %v", err)
	}

	if _, ok := h.cache.profiles[testUserID]; ok {
		t.Error("profile built on the old taste vector must be invalidated")
	}
	if _, ok := h.cache.profiles[other]; !ok {
		t.Error("profile of a user who did not rate the item must stay cached")
	}
}

func TestUpsertRating(t *testing.T) {
	h := newHarness(t)
	h.items = newFakeItemRepo(&domain.Item{ID: "m1", Title: "Heat"})
	h.catalog.itemRepo = h.items
	h.cache.profiles[testUserID] = &domain.TasteProfile{UserID: testUserID}

	rating, err := h.catalog.UpsertRating(context.Background(), &UpsertRatingReq{UserID: testUserID, ItemID: "m1", Value: ptrF(4.5), Favorite: true})
	if err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}
	if rating.ID == 0 || *rating.Value != 4.5 || !rating.Favorite {
		t.Errorf("rating = %+v", rating)
	}
	if len(h.outbox.events) != 1 || h.outbox.events[0].EventType != RatingChanged || h.outbox.events[0].AggregateID != testUserID {
		t.Errorf("outbox events = %+v", h.outbox.events)
	}
	if h.outbox.events[0].Status != Pending || string(h.outbox.events[0].Payload) != "rating.changed:m1" {
		t.Errorf("event = %+v", h.outbox.events[0])
	}
	if _, ok := h.cache.profiles[testUserID]; ok {
		t.Error("cached profile must be invalidated")
	}
}

func TestUpsertRatingErrors(t *testing.T) {
	tests := []struct {
		name string
		req  UpsertRatingReq
		want error
	}{
		{"bad user", UpsertRatingReq{UserID: "bob", ItemID: "m1"}, e.ErrInvalidUserID},
		{"bad value", UpsertRatingReq{UserID: testUserID, ItemID: "m1", Value: ptrF(4.2)}, e.ErrInvalidRating},
		{"unknown item", UpsertRatingReq{UserID: testUserID, ItemID: "nope", Value: ptrF(4)}, e.ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.items = newFakeItemRepo(&domain.Item{ID: "m1"})
			h.catalog.itemRepo = h.items

			_, err := h.catalog.UpsertRating(context.Background(), &tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(h.outbox.events) != 0 {
				t.Error("no event must be written on failure")
			}
		})
	}
}

func TestDeleteRating(t *testing.T) {
	h := newHarness(t)
	h.ratings.ratings = map[string]domain.Rating{"m1": {UserID: testUserID, ItemID: "m1"}}

	if err := h.catalog.DeleteRating(context.Background(), testUserID, "m1"); err != nil {
		t.Fatalf("DeleteRating: %v", err)
	}
	if len(h.outbox.events) != 1 || h.outbox.events[0].EventType != RatingDeleted {
		t.Errorf("outbox events = %+v", h.outbox.events)
	}

	err := h.catalog.DeleteRating(context.Background(), testUserID, "m1")
	if !errors.Is(err, e.ErrRatingNotFound) {
		t.Fatalf("got %v, want ErrRatingNotFound", err)
	}
}

func TestListRatings(t *testing.T) {
	h := newHarness(t)
	h.items = newFakeItemRepo(&domain.Item{ID: "m1", Title: "Heat", MediaType: domain.MediaTypeMovie})
	h.catalog.items.itemRepo = h.items
	h.ratings.ratings = map[string]domain.Rating{"m1": {UserID: testUserID, ItemID: "m1", Value: ptrF(4)}}

	ratings, err := h.catalog.ListRatings(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("ListRatings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Item == nil || ratings[0].Item.Title != "Heat" {
		t.Errorf("ratings = %+v", ratings)
	}
}

func TestDeleteUserRatings(t *testing.T) {
	h := newHarness(t)
	h.ratings.ratings = map[string]domain.Rating{"a": {}, "b": {}}

	n, err := h.catalog.DeleteUserRatings(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("DeleteUserRatings: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if len(h.outbox.events) != 1 || h.outbox.events[0].EventType != UserPurged {
		t.Errorf("outbox events = %+v", h.outbox.events)
	}
	if len(h.cache.deletedProfiles) != 1 {
		t.Errorf("profile must be invalidated")
	}
}
