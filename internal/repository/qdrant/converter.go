package qdrant

import (
	"fmt"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/clients"
	"github.com/qdrant/go-client/qdrant"
)

// neighborFilter строит фильтр по типу, диапазону лет и исключённым элементам.
// Элементы без года проходят фильтр по годам.
func neighborFilter(q domain.NeighborQuery) *qdrant.Filter {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(clients.FieldMediaType, string(q.MediaType))},
	}

	if q.MinYear != nil || q.MaxYear != nil {
		r := &qdrant.Range{}
		if q.MinYear != nil {
			r.Gte = qdrant.PtrOf(float64(*q.MinYear))
		}
		if q.MaxYear != nil {
			r.Lte = qdrant.PtrOf(float64(*q.MaxYear))
		}
		filter.Must = append(filter.Must, qdrant.NewFilterAsCondition(&qdrant.Filter{
			Should: []*qdrant.Condition{
				qdrant.NewRange(clients.FieldYear, r),
				qdrant.NewIsEmpty(clients.FieldYear),
			},
		}))
	}

	if len(q.Exclude) > 0 {
		ids := make([]*qdrant.PointId, len(q.Exclude))
		for i, id := range q.Exclude {
			ids[i] = qdrant.NewIDUUID(domain.PointID(id))
		}
		filter.MustNot = []*qdrant.Condition{qdrant.NewHasID(ids...)}
	}

	return filter
}

func pointStruct(p *domain.ItemPoint) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id: qdrant.NewIDUUID(p.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			clients.VectorEmbedding: qdrant.NewVector(domain.TasteVector(p.Embedding).Float32()...),
			clients.VectorTaste:     qdrant.NewVector(p.TasteVector.Float32()...),
		}),
		Payload: qdrant.NewValueMap(p.Payload()),
	}
}

func candidateFromPoint(p *qdrant.ScoredPoint) (domain.Candidate, error) {
	itemID, mediaType, _ := payloadFields(p.GetPayload())
	if itemID == "" {
		return domain.Candidate{}, fmt.Errorf("point %s has no %s in payload", p.GetId().GetUuid(), clients.FieldItemID)
	}

	vectors := p.GetVectors().GetVectors().GetVectors()
	return domain.Candidate{
		ItemID:      itemID,
		MediaType:   mediaType,
		Distance:    1 - float64(p.GetScore()),
		Embedding:   vectorData(vectors[clients.VectorEmbedding]),
		TasteVector: tasteVector(p.GetPayload(), vectors),
	}, nil
}

func itemPointFromRetrieved(p *qdrant.RetrievedPoint) (domain.ItemPoint, error) {
	itemID, mediaType, year := payloadFields(p.GetPayload())
	if itemID == "" {
		return domain.ItemPoint{}, fmt.Errorf("point %s has no %s in payload", p.GetId().GetUuid(), clients.FieldItemID)
	}

	vectors := p.GetVectors().GetVectors().GetVectors()
	return domain.ItemPoint{
		ID:          p.GetId().GetUuid(),
		ItemID:      itemID,
		MediaType:   mediaType,
		Year:        year,
		Embedding:   vectorData(vectors[clients.VectorEmbedding]),
		TasteVector: tasteVector(p.GetPayload(), vectors),
	}, nil
}

func payloadFields(payload map[string]*qdrant.Value) (string, domain.MediaType, *int) {
	var year *int
	if v, ok := payload[clients.FieldYear]; ok {
		y := int(v.GetIntegerValue())
		year = &y
	}

	return payload[clients.FieldItemID].GetStringValue(),
		domain.MediaType(payload[clients.FieldMediaType].GetStringValue()),
		year
}

// tasteVector возвращает вектор вкуса в исходном масштабе. Именованный вектор
// taste хранится нормированным, поэтому он используется только для точек без taste_raw.
func tasteVector(payload map[string]*qdrant.Value, vectors map[string]*qdrant.VectorOutput) domain.TasteVector {
	values := payload[clients.FieldTasteRaw].GetListValue().GetValues()
	if len(values) == 0 {
		return vectorData(vectors[clients.VectorTaste])
	}

	out := make(domain.TasteVector, len(values))
	for i, v := range values {
		if _, ok := v.GetKind().(*qdrant.Value_IntegerValue); ok {
			out[i] = float64(v.GetIntegerValue())
			continue
		}
		out[i] = v.GetDoubleValue()
	}
	return out
}

// vectorData читает плотный вектор в обоих форматах ответа Qdrant.
func vectorData(v *qdrant.VectorOutput) []float64 {
	if v == nil {
		return nil
	}

	data := v.GetDense().GetData()
	if len(data) == 0 {
		data = v.GetData() //nolint:staticcheck
	}

	out := make([]float64, len(data))
	for i, x := range data {
		out[i] = float64(x)
	}
	return out
}
