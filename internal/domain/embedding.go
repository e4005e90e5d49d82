package domain

import (
	"github.com/google/uuid"
)

// Payload описывает дополнительную информацию точки в векторном хранилище
type Payload map[string]any

// Пространство имён для детерминированных UUID точек каталога.
var itemNamespace = uuid.MustParse("6f1c1d2e-8a4b-4f38-9a51-2d7a4c9e0b13")

// ItemPoint представляет элемент каталога в векторном хранилище: оба вектора и фильтруемые поля.
type ItemPoint struct {
	ID          string // uuid, вычисленный из ItemID
	ItemID      string
	MediaType   MediaType
	Year        *int
	Embedding   []float64
	TasteVector TasteVector
}

func NewItemPoint(item *Item) *ItemPoint {
	return &ItemPoint{
		ID:          PointID(item.ID),
		ItemID:      item.ID,
		MediaType:   item.MediaType,
		Year:        item.Year,
		Embedding:   item.Embedding,
		TasteVector: item.TasteVector,
	}
}

// PointID возвращает стабильный UUID точки для строкового идентификатора элемента.
func PointID(itemID string) string {
	return uuid.NewSHA1(itemNamespace, []byte(itemID)).String()
}

// Payload возвращает поля точки для векторного хранилища. Вектор вкуса дублируется
// в taste_raw: косинусная коллекция нормирует именованные векторы при записи.
func (p *ItemPoint) Payload() Payload {
	raw := make([]any, len(p.TasteVector))
	for i, v := range p.TasteVector {
		raw[i] = v
	}

	payload := Payload{
		"item_id":    p.ItemID,
		"media_type": string(p.MediaType),
		"taste_raw":  raw,
	}
	if p.Year != nil {
		payload["year"] = int64(*p.Year)
	}

	return payload
}
