package kafka

import (
	"testing"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/usecase"
)

func TestRatingEventEncoding(t *testing.T) {
	value := 4.5
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event usecase.RatingEvent
	}{
		{"rating changed", usecase.RatingEvent{EventID: "e1", EventType: usecase.RatingChanged, UserID: "u1", ItemID: "m1", Value: &value, Favorite: true, Timestamp: ts}},
		{"user purged", usecase.RatingEvent{EventID: "e2", EventType: usecase.UserPurged, UserID: "u1", Timestamp: ts}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RatingEventEncoder{}.EncodeRatingEvent(&tt.event)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			got, err := DecodeRatingEvent(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.EventType != tt.event.EventType || got.ItemID != tt.event.ItemID || !got.Timestamp.Equal(ts) {
				t.Errorf("event = %+v", got)
			}
			if (got.Value == nil) != (tt.event.Value == nil) || (got.Value != nil && *got.Value != value) {
				t.Errorf("value = %v", got.Value)
			}
		})
	}
}

func TestDecodeRatingEventGarbage(t *testing.T) {
	if _, err := DecodeRatingEvent([]byte{0xff, 0x01}); err == nil {
		t.Fatal("expected error")
	}
}
