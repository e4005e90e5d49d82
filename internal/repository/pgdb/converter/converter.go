package converter

import (
	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/usecase"
)

// ItemConverter преобразует элементы каталога между domain и моделью PostgreSQL.
type ItemConverter struct{}

func (ItemConverter) ToModel(entity *domain.Item) *ItemModel {
	metadata := entity.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &ItemModel{
		ID:          entity.ID,
		Title:       entity.Title,
		MediaType:   string(entity.MediaType),
		Year:        entity.Year,
		Description: entity.Description,
		Metadata:    metadata,
		Embedding:   entity.Embedding,
		TasteVector: entity.TasteVector,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

func (ItemConverter) ToEntity(model *ItemModel) *domain.Item {
	return &domain.Item{
		ID:          model.ID,
		Title:       model.Title,
		MediaType:   domain.MediaType(model.MediaType),
		Year:        model.Year,
		Description: model.Description,
		Metadata:    model.Metadata,
		Embedding:   model.Embedding,
		TasteVector: model.TasteVector,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// RatingConverter преобразует оценки между domain и моделью PostgreSQL.
type RatingConverter struct{}

func (RatingConverter) ToModel(entity *domain.Rating) *RatingModel {
	return &RatingModel{
		ID:            entity.ID,
		UserID:        entity.UserID,
		ItemID:        entity.ItemID,
		Value:         entity.Value,
		Favorite:      entity.Favorite,
		WantToConsume: entity.WantToConsume,
		Notes:         entity.Notes,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
}

func (RatingConverter) ToEntity(model *RatingModel) *domain.Rating {
	return &domain.Rating{
		ID:            model.ID,
		UserID:        model.UserID,
		ItemID:        model.ItemID,
		Value:         model.Value,
		Favorite:      model.Favorite,
		WantToConsume: model.WantToConsume,
		Notes:         model.Notes,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// OutboxEventConverter преобразует события outbox между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, len(models))
	for i, m := range models {
		out[i] = c.ToEntity(m)
	}
	return out
}
