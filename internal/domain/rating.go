package domain

import (
	"time"

	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/shopspring/decimal"
)

var (
	minRating  = decimal.RequireFromString("0.5")
	maxRating  = decimal.RequireFromString("5")
	ratingStep = decimal.RequireFromString("0.5")
)

// Rating — оценка элемента пользователем. Пара (UserID, ItemID) уникальна.
// Value == nil означает, что элемент добавлен в список без оценки.
type Rating struct {
	ID            int64
	UserID        string
	ItemID        string
	Value         *float64
	Favorite      bool
	WantToConsume bool
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func NewRating(userID, itemID string, value *float64, favorite, wantToConsume bool, notes *string) *Rating {
	return &Rating{
		UserID:        userID,
		ItemID:        itemID,
		Value:         value,
		Favorite:      favorite,
		WantToConsume: wantToConsume,
		Notes:         notes,
	}
}

// RatedAt возвращает момент последнего изменения оценки.
func (r *Rating) RatedAt() time.Time {
	if r.UpdatedAt != nil {
		return *r.UpdatedAt
	}
	return r.CreatedAt
}

// ParseRatingValue разбирает оценку из строки: от 0.5 до 5.0 с шагом 0.5.
func ParseRatingValue(raw string) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, e.Wrap(raw, e.ErrInvalidRating)
	}
	return checkRating(d)
}

// ValidateRatingValue проверяет оценку, пришедшую числом.
func ValidateRatingValue(v float64) error {
	_, err := checkRating(decimal.NewFromFloat(v))
	return err
}

func checkRating(d decimal.Decimal) (float64, error) {
	if d.LessThan(minRating) || d.GreaterThan(maxRating) || !d.Mod(ratingStep).IsZero() {
		return 0, e.Wrap(d.String(), e.ErrInvalidRating)
	}
	return d.InexactFloat64(), nil
}
