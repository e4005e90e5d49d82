package usecase

import (
	"context"

	"github.com/DRSN-tech/spectra-backend/internal/recommend"
)

type EmbeddingInfra interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

type Recommender interface {
	Recommend(ctx context.Context, q recommend.Query, opts recommend.Options) (*recommend.Result, error)
}

// EventEncoder сериализует события оценок для outbox.
type EventEncoder interface {
	EncodeRatingEvent(event *RatingEvent) ([]byte, error)
}
