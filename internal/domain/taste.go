package domain

// TasteVector — K-мерный вектор вкуса, каждая компонента в [-1, 1],
// порядок компонент совпадает с порядком измерений базиса.
type TasteVector []float64

// Clone возвращает независимую копию вектора.
func (t TasteVector) Clone() TasteVector {
	if t == nil {
		return nil
	}
	out := make(TasteVector, len(t))
	copy(out, t)
	return out
}

// Float32 конвертирует вектор для хранилищ, которые работают с float32.
func (t TasteVector) Float32() []float32 {
	out := make([]float32, len(t))
	for i, v := range t {
		out[i] = float32(v)
	}
	return out
}

// DimensionDefinition описывает одно интерпретируемое измерение вкуса парой промптов.
type DimensionDefinition struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description" json:"description"`
	PositiveLabel  string `yaml:"positive_label" json:"positive_label"`
	NegativeLabel  string `yaml:"negative_label" json:"negative_label"`
	PositivePrompt string `yaml:"positive_prompt" json:"positive_prompt"`
	NegativePrompt string `yaml:"negative_prompt" json:"negative_prompt"`
}

// DirectionVector — единичный вектор измерения в пространстве эмбеддингов.
type DirectionVector struct {
	DimensionDefinition
	Unit []float64
}

// DimensionScore — значение одного измерения с человекочитаемой интерпретацией.
type DimensionScore struct {
	DimensionID string
	Name        string
	Description string
	Score       float64
	Tendency    string
}

// TasteProfile — вычисленный по оценкам вкусовой профиль пользователя.
// Не является источником истины и живёт только в кэше.
type TasteProfile struct {
	UserID      string
	TasteVector TasteVector
	Breakdown   []DimensionScore
	NumRatings  int
}
