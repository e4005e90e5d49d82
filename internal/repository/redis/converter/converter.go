package converter

import "github.com/DRSN-tech/spectra-backend/internal/domain"

// ItemInfoConverter преобразует метаданные элементов между domain и моделью кэша.
type ItemInfoConverter struct{}

func (ItemInfoConverter) ToRedisModel(entity *domain.ItemInfo) *ItemInfoRedisModel {
	return &ItemInfoRedisModel{
		ID:          entity.ID,
		Title:       entity.Title,
		MediaType:   string(entity.MediaType),
		Year:        entity.Year,
		Description: entity.Description,
		Metadata:    entity.Metadata,
	}
}

func (ItemInfoConverter) ToEntity(model *ItemInfoRedisModel) *domain.ItemInfo {
	return &domain.ItemInfo{
		ID:          model.ID,
		Title:       model.Title,
		MediaType:   domain.MediaType(model.MediaType),
		Year:        model.Year,
		Description: model.Description,
		Metadata:    model.Metadata,
	}
}

// TasteProfileConverter преобразует вкусовой профиль между domain и моделью кэша.
type TasteProfileConverter struct{}

func (TasteProfileConverter) ToRedisModel(entity *domain.TasteProfile) *TasteProfileRedisModel {
	breakdown := make([]DimensionScoreRedisModel, len(entity.Breakdown))
	for i, s := range entity.Breakdown {
		breakdown[i] = DimensionScoreRedisModel{
			DimensionID: s.DimensionID,
			Name:        s.Name,
			Description: s.Description,
			Score:       s.Score,
			Tendency:    s.Tendency,
		}
	}

	return &TasteProfileRedisModel{
		UserID:      entity.UserID,
		TasteVector: entity.TasteVector,
		Breakdown:   breakdown,
		NumRatings:  entity.NumRatings,
	}
}

func (TasteProfileConverter) ToEntity(model *TasteProfileRedisModel) *domain.TasteProfile {
	breakdown := make([]domain.DimensionScore, len(model.Breakdown))
	for i, s := range model.Breakdown {
		breakdown[i] = domain.DimensionScore{
			DimensionID: s.DimensionID,
			Name:        s.Name,
			Description: s.Description,
			Score:       s.Score,
			Tendency:    s.Tendency,
		}
	}

	return &domain.TasteProfile{
		UserID:      model.UserID,
		TasteVector: model.TasteVector,
		Breakdown:   breakdown,
		NumRatings:  model.NumRatings,
	}
}
