package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/jimlawless/whereami"
)

const maxRequestBodySize = 4 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// Конкретные причины 400, сообщение которых можно показать клиенту.
var badRequestCauses = []error{
	e.ErrInvalidMediaType,
	e.ErrInvalidRating,
	e.ErrInvalidUserID,
	e.ErrEmptyText,
	e.ErrNoItems,
	e.ErrItemTitleRequired,
	e.ErrDimensionMismatch,
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrItemNotFound):
		return http.StatusNotFound, e.ErrItemNotFound.Error()
	case errors.Is(err, e.ErrRatingNotFound):
		return http.StatusNotFound, e.ErrRatingNotFound.Error()
	case errors.Is(err, e.ErrInsufficientData):
		return http.StatusUnprocessableEntity, e.ErrInsufficientData.Error()
	case errors.Is(err, e.ErrRetrieval):
		return http.StatusServiceUnavailable, e.ErrRetrieval.Error()
	case errors.Is(err, e.ErrEmbeddingProvider):
		return http.StatusServiceUnavailable, e.ErrEmbeddingProvider.Error()
	case errors.Is(err, e.ErrInvalidQuery), errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, badRequestMessage(err)
	}

	for _, cause := range badRequestCauses {
		if errors.Is(err, cause) {
			return http.StatusBadRequest, cause.Error()
		}
	}

	return http.StatusInternalServerError, e.ErrInternalServerError.Error()
}

func badRequestMessage(err error) string {
	for _, cause := range badRequestCauses {
		if errors.Is(err, cause) {
			return cause.Error()
		}
	}
	if errors.Is(err, e.ErrInvalidQuery) {
		return e.ErrInvalidQuery.Error()
	}
	return e.ErrStatusBadRequest.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

// writeBadRequest отвечает 400 с произвольным сообщением (ошибки разбора и валидации тела).
func writeBadRequest(w http.ResponseWriter, msg string) {
	WriteSuccess(w, http.StatusBadRequest, NewErrorResponse(http.StatusBadRequest, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeAndValidate читает JSON-тело запроса в dst и проверяет его теги validate.
// Пустое тело разбирается как пустой объект. Возвращает сообщение для клиента, если тело некорректно.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) (string, bool) {
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Sprintf("invalid request body: %v", err), false
		}
	}

	if err := validate.Struct(dst); err != nil {
		return validationMessage(err), false
	}

	return "", true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return e.ErrStatusBadRequest.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// queryInt читает целочисленный параметр запроса; отсутствие параметра даёт 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, e.Wrap(whereami.WhereAmI(), e.Mark(e.ErrStatusBadRequest, fmt.Errorf("%s must be a non-negative integer", key)))
	}
	return v, nil
}

// queryAlpha читает необязательный параметр alpha в [0, 1].
func queryAlpha(r *http.Request) (*float64, error) {
	raw := r.URL.Query().Get("alpha")
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return nil, e.Wrap(whereami.WhereAmI(), e.Mark(e.ErrInvalidQuery, fmt.Errorf("alpha must be in [0, 1]")))
	}
	return &v, nil
}

// queryList поддерживает и повторяющийся параметр, и значения через запятую.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
