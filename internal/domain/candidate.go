package domain

// VectorSpace — пространство, в котором выполняется поиск ближайших соседей.
type VectorSpace string

const (
	SpaceTaste     VectorSpace = "taste"
	SpaceEmbedding VectorSpace = "embedding"
)

// NeighborQuery — запрос ближайших соседей к хранилищу элементов.
type NeighborQuery struct {
	Space     VectorSpace
	Vector    []float64
	MediaType MediaType
	K         int
	Exclude   []string
	MinYear   *int
	MaxYear   *int
}

// Candidate — кандидат, найденный хранилищем, вместе с векторами для пересчёта скоров.
type Candidate struct {
	ItemID      string
	MediaType   MediaType
	Distance    float64
	Embedding   []float64
	TasteVector TasteVector
}
