package domain

// RecommendationResult — результат ранжирования одного кандидата. Не сохраняется.
type RecommendationResult struct {
	ItemID        string
	MediaType     MediaType
	TasteScore    float64
	SemanticScore float64
	FinalScore    float64
	// Contributions[i] = query.taste[i] * item.taste[i]; nil, если в запросе нет вектора вкуса.
	Contributions []float64
	Item          *ItemInfo
}

// DimensionMatch описывает вклад одного измерения в совпадение вкуса.
type DimensionMatch struct {
	DimensionID  string
	Name         string
	UserScore    float64
	ItemScore    float64
	Contribution float64
	Aligned      bool
}

// MatchExplanation объясняет, почему элемент подходит вкусу пользователя.
type MatchExplanation struct {
	Item              ItemInfo
	OverallSimilarity float64
	Matches           []DimensionMatch
	Explanation       string
}
