package http

import (
	"net/http"

	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase, logger: logger}
}

// ingestItems
//
//	@Summary		Загрузка элементов каталога
//	@Description	Эмбеддит описания, проецирует их на измерения вкуса и индексирует. Повторная загрузка заменяет элемент
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		IngestItemsRequest	true	"Элементы"
//	@Success		201		{object}	IngestItemsResponse	"Элементы загружены"
//	@Failure		400		{object}	ErrorResponse		"Ошибка валидации"
//	@Failure		503		{object}	ErrorResponse		"Хранилище или сервис эмбеддингов недоступны"
//	@Router			/items [post]
func (h *CatalogHandler) ingestItems(w http.ResponseWriter, r *http.Request) {
	var body IngestItemsRequest
	if msg, ok := decodeAndValidate(w, r, &body); !ok {
		h.logger.Warnf("%d %s", http.StatusBadRequest, msg)
		writeBadRequest(w, msg)
		return
	}

	items, err := body.toUsecase()
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.catalogUsecase.IngestItems(r.Context(), items)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newIngestItemsResponse(res))
}

// listRatings
//
//	@Summary	Оценки пользователя
//	@Tags		users
//	@Produce	json
//	@Param		userID	path		string	true	"UUID пользователя"
//	@Success	200		{object}	RatingsResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/users/{userID}/ratings [get]
func (h *CatalogHandler) listRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.catalogUsecase.ListRatings(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	res := &RatingsResponse{Ratings: make([]RatingResponse, len(ratings))}
	for i := range ratings {
		res.Ratings[i] = newRatingResponse(&ratings[i].Rating, ratings[i].Item)
	}
	WriteSuccess(w, http.StatusOK, res)
}

// upsertRating
//
//	@Summary		Оценка элемента
//	@Description	Создаёт или обновляет оценку: от 0.5 до 5.0 с шагом 0.5, без значения элемент попадает в список
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string			true	"UUID пользователя"
//	@Param			itemID	path		string			true	"Идентификатор элемента"
//	@Param			request	body		RatingRequest	true	"Оценка"
//	@Success		200		{object}	RatingResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректная оценка"
//	@Failure		404		{object}	ErrorResponse	"Элемент не найден"
//	@Router			/users/{userID}/ratings/{itemID} [put]
func (h *CatalogHandler) upsertRating(w http.ResponseWriter, r *http.Request) {
	var body RatingRequest
	if msg, ok := decodeAndValidate(w, r, &body); !ok {
		h.logger.Warnf("%d %s", http.StatusBadRequest, msg)
		writeBadRequest(w, msg)
		return
	}

	req, err := body.toUsecase(chi.URLParam(r, "userID"), chi.URLParam(r, "itemID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	rating, err := h.catalogUsecase.UpsertRating(r.Context(), req)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newRatingResponse(rating, nil))
}

// deleteRating
//
//	@Summary	Удаление оценки
//	@Tags		users
//	@Param		userID	path	string	true	"UUID пользователя"
//	@Param		itemID	path	string	true	"Идентификатор элемента"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse	"Оценка не найдена"
//	@Router		/users/{userID}/ratings/{itemID} [delete]
func (h *CatalogHandler) deleteRating(w http.ResponseWriter, r *http.Request) {
	err := h.catalogUsecase.DeleteRating(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "itemID"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteUser
//
//	@Summary		Удаление пользователя
//	@Description	Удаляет все оценки пользователя и сбрасывает его профиль
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		string	true	"UUID пользователя"
//	@Success		200		{object}	DeleteUserResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/users/{userID} [delete]
func (h *CatalogHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.catalogUsecase.DeleteUserRatings(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &DeleteUserResponse{DeletedRatings: deleted})
}
