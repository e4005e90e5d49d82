package e

import (
	"errors"
	"fmt"
)

var (
	// Ошибки ядра вкусовых векторов
	ErrConfiguration     = errors.New("invalid taste dimension configuration")
	ErrInsufficientData  = errors.New("insufficient rating data")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrRetrieval         = errors.New("item store unavailable")
	ErrEmbeddingProvider = errors.New("embedding provider unavailable")

	// Внутренние ошибки с векторами
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyVectors      = errors.New("empty vectors")
	ErrZeroDirection     = errors.New("direction vector has zero magnitude")

	// 400 Bad Request
	ErrStatusBadRequest  = errors.New("bad request")
	ErrInvalidMediaType  = errors.New("unsupported media type")
	ErrInvalidRating     = errors.New("rating must be between 0.5 and 5.0 in 0.5 steps")
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrEmptyText         = errors.New("text is required")
	ErrNoItems           = errors.New("no items provided")
	ErrItemTitleRequired = errors.New("item title is required")

	// Ошибки конфигурации окружения
	ErrIncorrectEnvVariable = errors.New("incorrect environment variable")

	// 404 Not Found
	ErrItemNotFound   = errors.New("item not found")
	ErrRatingNotFound = errors.New("rating not found")

	// 500 Internal Server Error
	ErrInternalServerError = errors.New("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Mark помечает ошибку категорией из таксономии, сохраняя исходную причину.
// errors.Is срабатывает и для категории, и для причины.
func Mark(kind error, err error) error {
	if err == nil {
		return kind
	}
	if errors.Is(err, kind) {
		return err
	}

	return fmt.Errorf("%w: %w", kind, err)
}
