package http

import (
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"github.com/goccy/go-json"
)

// REQUESTS

type AnalyzeTasteRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type RecommendRequest struct {
	Text        string    `json:"text" validate:"required_without=TasteVector,max=4000"`
	TasteVector []float64 `json:"taste_vector,omitempty" validate:"omitempty,dive,gte=-1,lte=1"`
	MediaTypes  []string  `json:"media_types,omitempty"`
	TopK        int       `json:"top_k,omitempty" validate:"gte=0"`
	Alpha       *float64  `json:"alpha,omitempty" validate:"omitempty,gte=0,lte=1"`
	ExcludeIDs  []string  `json:"exclude_ids,omitempty"`
	MinYear     *int      `json:"min_year,omitempty"`
	MaxYear     *int      `json:"max_year,omitempty"`
}

type UserRecommendRequest struct {
	Text         string   `json:"text,omitempty" validate:"max=4000"`
	MediaTypes   []string `json:"media_types,omitempty"`
	TopK         int      `json:"top_k,omitempty" validate:"gte=0"`
	Alpha        *float64 `json:"alpha,omitempty" validate:"omitempty,gte=0,lte=1"`
	IncludeRated bool     `json:"include_rated,omitempty"`
	MinYear      *int     `json:"min_year,omitempty"`
	MaxYear      *int     `json:"max_year,omitempty"`
}

type ExplainRequest struct {
	ItemID      string    `json:"item_id" validate:"required"`
	TasteVector []float64 `json:"taste_vector" validate:"required,min=1,dive,gte=-1,lte=1"`
}

type IngestItemRequest struct {
	ID          string         `json:"id" validate:"required,max=256"`
	Title       string         `json:"title" validate:"required"`
	MediaType   string         `json:"media_type" validate:"required"`
	Year        *int           `json:"year,omitempty" validate:"omitempty,gte=0,lte=3000"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type IngestItemsRequest struct {
	Items []IngestItemRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

// RatingRequest — значение оценки передаётся числом JSON и разбирается десятичным
// типом, чтобы 4.5 не превращалось в 4.4999.
type RatingRequest struct {
	Value         *json.Number `json:"value,omitempty"`
	Favorite      bool         `json:"favorite,omitempty"`
	WantToConsume bool         `json:"want_to_consume,omitempty"`
	Notes         *string      `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// RESPONSES

type DimensionScoreResponse struct {
	DimensionID string  `json:"dimension_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	Tendency    string  `json:"tendency"`
}

type AnalyzeTasteResponse struct {
	TasteVector []float64                `json:"taste_vector"`
	Breakdown   []DimensionScoreResponse `json:"breakdown"`
}

type DimensionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	PositiveLabel string `json:"positive_label"`
	NegativeLabel string `json:"negative_label"`
}

type ItemResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	MediaType   string         `json:"media_type"`
	Year        *int           `json:"year,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type RecommendationItemResponse struct {
	ItemID        string        `json:"item_id"`
	MediaType     string        `json:"media_type"`
	FinalScore    float64       `json:"final_score"`
	TasteScore    float64       `json:"taste_score"`
	SemanticScore float64       `json:"semantic_score"`
	Contributions []float64     `json:"contributions,omitempty"`
	Item          *ItemResponse `json:"item,omitempty"`
}

type RecommendationGroupResponse struct {
	MediaType string                       `json:"media_type"`
	Items     []RecommendationItemResponse `json:"items"`
}

type RecommendResponse struct {
	Groups      []RecommendationGroupResponse `json:"groups"`
	TasteVector []float64                     `json:"taste_vector,omitempty"`
	Breakdown   []DimensionScoreResponse      `json:"breakdown,omitempty"`
	Alpha       float64                       `json:"alpha"`
	AlphaReason string                        `json:"alpha_reason,omitempty"`
	Degraded    []string                      `json:"degraded,omitempty"`
	Fallback    bool                          `json:"fallback,omitempty"`
}

type DimensionMatchResponse struct {
	DimensionID  string  `json:"dimension_id"`
	Name         string  `json:"name"`
	UserScore    float64 `json:"user_score"`
	ItemScore    float64 `json:"item_score"`
	Contribution float64 `json:"contribution"`
	Aligned      bool    `json:"aligned"`
}

type ExplainResponse struct {
	Item              ItemResponse             `json:"item"`
	OverallSimilarity float64                  `json:"overall_similarity"`
	Matches           []DimensionMatchResponse `json:"matches"`
	Explanation       string                   `json:"explanation"`
}

type IngestedItemResponse struct {
	ID          string    `json:"id"`
	TasteVector []float64 `json:"taste_vector"`
}

type IngestItemsResponse struct {
	Items []IngestedItemResponse `json:"items"`
}

type TasteProfileResponse struct {
	UserID      string                   `json:"user_id"`
	TasteVector []float64                `json:"taste_vector"`
	Breakdown   []DimensionScoreResponse `json:"breakdown"`
	NumRatings  int                      `json:"num_ratings"`
}

type RatingResponse struct {
	ItemID        string        `json:"item_id"`
	Value         *float64      `json:"value,omitempty"`
	Favorite      bool          `json:"favorite"`
	WantToConsume bool          `json:"want_to_consume"`
	Notes         *string       `json:"notes,omitempty"`
	RatedAt       string        `json:"rated_at,omitempty"`
	Item          *ItemResponse `json:"item,omitempty"`
}

type RatingsResponse struct {
	Ratings []RatingResponse `json:"ratings"`
}

type DeleteUserResponse struct {
	DeletedRatings int64 `json:"deleted_ratings"`
}

// MAPPERS

// parseMediaTypes нормализует типы из запроса. Пустой список остаётся пустым: это все типы.
func parseMediaTypes(raw []string) ([]domain.MediaType, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return domain.ParseMediaTypes(raw)
}

func (r *RecommendRequest) toUsecase() (*usecase.RecommendReq, error) {
	mediaTypes, err := parseMediaTypes(r.MediaTypes)
	if err != nil {
		return nil, err
	}

	return &usecase.RecommendReq{
		Text:        r.Text,
		TasteVector: domain.TasteVector(r.TasteVector),
		MediaTypes:  mediaTypes,
		TopK:        r.TopK,
		Alpha:       r.Alpha,
		ExcludeIDs:  r.ExcludeIDs,
		MinYear:     r.MinYear,
		MaxYear:     r.MaxYear,
	}, nil
}

func (r *UserRecommendRequest) toUsecase(userID string) (*usecase.RecommendForUserReq, error) {
	mediaTypes, err := parseMediaTypes(r.MediaTypes)
	if err != nil {
		return nil, err
	}

	return &usecase.RecommendForUserReq{
		UserID:       userID,
		Text:         r.Text,
		MediaTypes:   mediaTypes,
		TopK:         r.TopK,
		Alpha:        r.Alpha,
		IncludeRated: r.IncludeRated,
		MinYear:      r.MinYear,
		MaxYear:      r.MaxYear,
	}, nil
}

func (r *IngestItemsRequest) toUsecase() ([]usecase.IngestItemReq, error) {
	out := make([]usecase.IngestItemReq, len(r.Items))
	for i, it := range r.Items {
		mt, err := domain.ParseMediaType(it.MediaType)
		if err != nil {
			return nil, err
		}
		out[i] = usecase.IngestItemReq{
			ID:          it.ID,
			Title:       it.Title,
			MediaType:   mt,
			Year:        it.Year,
			Description: it.Description,
			Metadata:    it.Metadata,
		}
	}
	return out, nil
}

func (r *RatingRequest) toUsecase(userID, itemID string) (*usecase.UpsertRatingReq, error) {
	req := &usecase.UpsertRatingReq{
		UserID:        userID,
		ItemID:        itemID,
		Favorite:      r.Favorite,
		WantToConsume: r.WantToConsume,
		Notes:         r.Notes,
	}
	if r.Value != nil {
		v, err := domain.ParseRatingValue(r.Value.String())
		if err != nil {
			return nil, err
		}
		req.Value = &v
	}
	return req, nil
}

func newDimensionScores(scores []domain.DimensionScore) []DimensionScoreResponse {
	out := make([]DimensionScoreResponse, len(scores))
	for i, s := range scores {
		out[i] = DimensionScoreResponse{
			DimensionID: s.DimensionID,
			Name:        s.Name,
			Description: s.Description,
			Score:       s.Score,
			Tendency:    s.Tendency,
		}
	}
	return out
}

func newDimensions(defs []domain.DimensionDefinition) []DimensionResponse {
	out := make([]DimensionResponse, len(defs))
	for i, d := range defs {
		out[i] = DimensionResponse{
			ID:            d.ID,
			Name:          d.Name,
			Description:   d.Description,
			PositiveLabel: d.PositiveLabel,
			NegativeLabel: d.NegativeLabel,
		}
	}
	return out
}

func newItemResponse(info domain.ItemInfo) ItemResponse {
	return ItemResponse{
		ID:          info.ID,
		Title:       info.Title,
		MediaType:   string(info.MediaType),
		Year:        info.Year,
		Description: info.Description,
		Metadata:    info.Metadata,
	}
}

func newRecommendResponse(res *usecase.RecommendRes) *RecommendResponse {
	out := &RecommendResponse{
		Groups:      make([]RecommendationGroupResponse, len(res.Groups)),
		TasteVector: res.TasteVector,
		Alpha:       res.Alpha,
		AlphaReason: res.AlphaReason,
		Fallback:    res.Fallback,
	}
	if len(res.Breakdown) > 0 {
		out.Breakdown = newDimensionScores(res.Breakdown)
	}
	for _, mt := range res.Degraded {
		out.Degraded = append(out.Degraded, string(mt))
	}

	for i, g := range res.Groups {
		items := make([]RecommendationItemResponse, len(g.Items))
		for j, r := range g.Items {
			items[j] = RecommendationItemResponse{
				ItemID:        r.ItemID,
				MediaType:     string(r.MediaType),
				FinalScore:    r.FinalScore,
				TasteScore:    r.TasteScore,
				SemanticScore: r.SemanticScore,
				Contributions: r.Contributions,
			}
			if r.Item != nil {
				item := newItemResponse(*r.Item)
				items[j].Item = &item
			}
		}
		out.Groups[i] = RecommendationGroupResponse{MediaType: string(g.MediaType), Items: items}
	}

	return out
}

func newExplainResponse(res *domain.MatchExplanation) *ExplainResponse {
	matches := make([]DimensionMatchResponse, len(res.Matches))
	for i, m := range res.Matches {
		matches[i] = DimensionMatchResponse{
			DimensionID:  m.DimensionID,
			Name:         m.Name,
			UserScore:    m.UserScore,
			ItemScore:    m.ItemScore,
			Contribution: m.Contribution,
			Aligned:      m.Aligned,
		}
	}

	return &ExplainResponse{
		Item:              newItemResponse(res.Item),
		OverallSimilarity: res.OverallSimilarity,
		Matches:           matches,
		Explanation:       res.Explanation,
	}
}

func newIngestItemsResponse(res *usecase.IngestItemsRes) *IngestItemsResponse {
	out := &IngestItemsResponse{Items: make([]IngestedItemResponse, len(res.Items))}
	for i, it := range res.Items {
		out.Items[i] = IngestedItemResponse{ID: it.ID, TasteVector: it.TasteVector}
	}
	return out
}

func newTasteProfileResponse(p *domain.TasteProfile) *TasteProfileResponse {
	return &TasteProfileResponse{
		UserID:      p.UserID,
		TasteVector: p.TasteVector,
		Breakdown:   newDimensionScores(p.Breakdown),
		NumRatings:  p.NumRatings,
	}
}

func newRatingResponse(r *domain.Rating, info *domain.ItemInfo) RatingResponse {
	out := RatingResponse{
		ItemID:        r.ItemID,
		Value:         r.Value,
		Favorite:      r.Favorite,
		WantToConsume: r.WantToConsume,
		Notes:         r.Notes,
	}
	if at := r.RatedAt(); !at.IsZero() {
		out.RatedAt = at.UTC().Format(time.RFC3339)
	}
	if info != nil {
		item := newItemResponse(*info)
		out.Item = &item
	}
	return out
}
