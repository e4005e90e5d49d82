package domain

import "time"

// Item описывает элемент каталога (фильм, исполнитель, книга).
// После загрузки не изменяется, повторная загрузка заменяет его целиком.
type Item struct {
	ID          string
	Title       string
	MediaType   MediaType
	Year        *int
	Description string
	Metadata    map[string]any
	Embedding   []float64
	TasteVector TasteVector
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ItemInfo — метаданные элемента без векторов.
type ItemInfo struct {
	ID          string
	Title       string
	MediaType   MediaType
	Year        *int
	Description string
	Metadata    map[string]any
}

func (i *Item) Info() ItemInfo {
	return ItemInfo{
		ID:          i.ID,
		Title:       i.Title,
		MediaType:   i.MediaType,
		Year:        i.Year,
		Description: i.Description,
		Metadata:    i.Metadata,
	}
}

// RatedItem — оценка пользователя вместе с вектором вкуса элемента.
type RatedItem struct {
	Rating      Rating
	TasteVector TasteVector
}
