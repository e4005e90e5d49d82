package recommend

import (
	"cmp"
	"slices"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
)

// Score считает оценки одного кандидата. Отсутствующий вектор запроса даёт 0 для своей оценки.
func Score(q Query, alpha float64, c domain.Candidate) domain.RecommendationResult {
	res := domain.RecommendationResult{
		ItemID:    c.ItemID,
		MediaType: c.MediaType,
	}

	if len(q.TasteVector) > 0 {
		res.TasteScore = taste.Cosine(q.TasteVector, c.TasteVector)
		res.Contributions = Contributions(q.TasteVector, c.TasteVector)
	}
	if len(q.Embedding) > 0 {
		res.SemanticScore = taste.Cosine(q.Embedding, c.Embedding)
	}
	res.FinalScore = alpha*res.TasteScore + (1-alpha)*res.SemanticScore

	return res
}

// Contributions возвращает покомпонентное произведение векторов вкуса запроса и элемента.
// Используется только для объяснения совпадения, не для ранжирования.
func Contributions(query, item domain.TasteVector) []float64 {
	out := make([]float64, len(query))
	if len(item) != len(query) {
		return out
	}
	for i := range query {
		out[i] = query[i] * item[i]
	}
	return out
}

// Rank объединяет кандидатов по ItemID, исключает exclude, считает оценки и
// возвращает top-k по убыванию final, затем semantic, затем по возрастанию id.
func Rank(q Query, alpha float64, candidates []domain.Candidate, topK int, exclude map[string]struct{}) []domain.RecommendationResult {
	seen := make(map[string]struct{}, len(candidates))
	results := make([]domain.RecommendationResult, 0, len(candidates))

	for _, c := range candidates {
		if _, ok := exclude[c.ItemID]; ok {
			continue
		}
		if _, ok := seen[c.ItemID]; ok {
			continue
		}
		seen[c.ItemID] = struct{}{}
		results = append(results, Score(q, alpha, c))
	}

	slices.SortFunc(results, compareResults)

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func compareResults(a, b domain.RecommendationResult) int {
	if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.SemanticScore, a.SemanticScore); c != 0 {
		return c
	}
	return cmp.Compare(a.ItemID, b.ItemID)
}
