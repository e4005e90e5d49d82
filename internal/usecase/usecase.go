package usecase

import (
	"context"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
)

type TasteUC interface {
	AnalyzeTaste(ctx context.Context, req *AnalyzeTasteReq) (*AnalyzeTasteRes, error)
	ListDimensions(ctx context.Context) []domain.DimensionDefinition
	ComputeUserTasteProfile(ctx context.Context, userID string) (*domain.TasteProfile, error)
}

type RecommendationUC interface {
	RecommendByText(ctx context.Context, req *RecommendReq) (*RecommendRes, error)
	RecommendForUser(ctx context.Context, req *RecommendForUserReq) (*RecommendRes, error)
	FindSimilar(ctx context.Context, req *FindSimilarReq) (*RecommendRes, error)
	ExplainMatch(ctx context.Context, req *ExplainMatchReq) (*domain.MatchExplanation, error)
}

type CatalogUC interface {
	IngestItems(ctx context.Context, items []IngestItemReq) (*IngestItemsRes, error)
	UpsertRating(ctx context.Context, req *UpsertRatingReq) (*domain.Rating, error)
	DeleteRating(ctx context.Context, userID, itemID string) error
	ListRatings(ctx context.Context, userID string) ([]UserRating, error)
	DeleteUserRatings(ctx context.Context, userID string) (int64, error)
}
