package domain

import (
	"strings"

	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

// MediaType описывает тип элемента каталога
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeMusic MediaType = "music"
	MediaTypeBook  MediaType = "book"
)

// AllMediaTypes возвращает все поддерживаемые типы в фиксированном порядке.
func AllMediaTypes() []MediaType {
	return []MediaType{MediaTypeMovie, MediaTypeMusic, MediaTypeBook}
}

func (m MediaType) Valid() bool {
	switch m {
	case MediaTypeMovie, MediaTypeMusic, MediaTypeBook:
		return true
	default:
		return false
	}
}

// ParseMediaType разбирает строку без учёта регистра.
func ParseMediaType(raw string) (MediaType, error) {
	mt := MediaType(strings.ToLower(strings.TrimSpace(raw)))
	if !mt.Valid() {
		return "", e.Wrap(raw, e.ErrInvalidMediaType)
	}

	return mt, nil
}

// ParseMediaTypes разбирает список типов, убирая дубликаты с сохранением порядка.
// Пустой список означает все типы.
func ParseMediaTypes(raw []string) ([]MediaType, error) {
	if len(raw) == 0 {
		return AllMediaTypes(), nil
	}

	seen := make(map[MediaType]struct{}, len(raw))
	result := make([]MediaType, 0, len(raw))
	for _, r := range raw {
		mt, err := ParseMediaType(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[mt]; ok {
			continue
		}
		seen[mt] = struct{}{}
		result = append(result, mt)
	}

	return result, nil
}
