package kafka

import (
	"fmt"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// RatingEventEncoder сериализует события оценок в protobuf (google.protobuf.Struct).
type RatingEventEncoder struct{}

func (RatingEventEncoder) EncodeRatingEvent(event *usecase.RatingEvent) ([]byte, error) {
	fields := map[string]any{
		"event_id":        event.EventID,
		"event_type":      string(event.EventType),
		"user_id":         event.UserID,
		"favorite":        event.Favorite,
		"want_to_consume": event.Want,
		"timestamp":       event.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if event.ItemID != "" {
		fields["item_id"] = event.ItemID
	}
	if event.Value != nil {
		fields["value"] = *event.Value
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build rating event: %w", err)
	}

	return proto.Marshal(msg)
}

// DecodeRatingEvent разбирает событие, записанное EncodeRatingEvent.
func DecodeRatingEvent(data []byte) (*usecase.RatingEvent, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode rating event: %w", err)
	}

	f := msg.GetFields()
	ts, err := time.Parse(time.RFC3339Nano, f["timestamp"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid event timestamp: %w", err)
	}

	event := &usecase.RatingEvent{
		EventID:   f["event_id"].GetStringValue(),
		EventType: usecase.OutboxEventType(f["event_type"].GetStringValue()),
		UserID:    f["user_id"].GetStringValue(),
		ItemID:    f["item_id"].GetStringValue(),
		Favorite:  f["favorite"].GetBoolValue(),
		Want:      f["want_to_consume"].GetBoolValue(),
		Timestamp: ts,
	}
	if v, ok := f["value"]; ok {
		value := v.GetNumberValue()
		event.Value = &value
	}

	return event, nil
}
