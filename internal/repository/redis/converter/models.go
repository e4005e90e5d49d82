package converter

// ItemInfoRedisModel — метаданные элемента каталога в кэше.
type ItemInfoRedisModel struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	MediaType   string         `json:"media_type"`
	Year        *int           `json:"year,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// TasteProfileRedisModel — вычисленный вкусовой профиль пользователя в кэше.
type TasteProfileRedisModel struct {
	UserID      string                     `json:"user_id"`
	TasteVector []float64                  `json:"taste_vector"`
	Breakdown   []DimensionScoreRedisModel `json:"breakdown"`
	NumRatings  int                        `json:"num_ratings"`
}

type DimensionScoreRedisModel struct {
	DimensionID string  `json:"dimension_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	Tendency    string  `json:"tendency"`
}
