package http

import (
	"net/http"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type RecommendationHandler struct {
	recUsecase usecase.RecommendationUC
	logger     logger.Logger
}

func NewRecommendationHandler(recUsecase usecase.RecommendationUC, logger logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recUsecase: recUsecase, logger: logger}
}

// recommend
//
//	@Summary		Рекомендации по описанию вкуса
//	@Description	Ищет элементы по тексту и/или явному вектору вкуса, группируя их по типу
//	@Tags			recommendations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RecommendRequest	true	"Запрос"
//	@Success		200		{object}	RecommendResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		503		{object}	ErrorResponse	"Хранилище или сервис эмбеддингов недоступны"
//	@Router			/recommendations [post]
func (h *RecommendationHandler) recommend(w http.ResponseWriter, r *http.Request) {
	var body RecommendRequest
	if msg, ok := decodeAndValidate(w, r, &body); !ok {
		h.logger.Warnf("%d %s", http.StatusBadRequest, msg)
		writeBadRequest(w, msg)
		return
	}

	req, err := body.toUsecase()
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.recUsecase.RecommendByText(r.Context(), req)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newRecommendResponse(res))
}

// explain
//
//	@Summary	Объяснение совпадения
//	@Tags		recommendations
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ExplainRequest	true	"Элемент и вектор вкуса"
//	@Success	200		{object}	ExplainResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse	"Элемент не найден"
//	@Router		/recommendations/explain [post]
func (h *RecommendationHandler) explain(w http.ResponseWriter, r *http.Request) {
	var body ExplainRequest
	if msg, ok := decodeAndValidate(w, r, &body); !ok {
		h.logger.Warnf("%d %s", http.StatusBadRequest, msg)
		writeBadRequest(w, msg)
		return
	}

	res, err := h.recUsecase.ExplainMatch(r.Context(), &usecase.ExplainMatchReq{
		ItemID:      body.ItemID,
		TasteVector: domain.TasteVector(body.TasteVector),
	})
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newExplainResponse(res))
}

// similar
//
//	@Summary	Похожие элементы
//	@Tags		recommendations
//	@Produce	json
//	@Param		itemID		path		string	true	"Идентификатор элемента"
//	@Param		media_types	query		string	false	"Типы через запятую: movie,music,book"
//	@Param		top_k		query		int		false	"Размер каждой группы"
//	@Param		alpha		query		number	false	"Вес вкуса в итоговом скоре"
//	@Success	200			{object}	RecommendResponse
//	@Failure	404			{object}	ErrorResponse	"Элемент не найден"
//	@Router		/items/{itemID}/similar [get]
func (h *RecommendationHandler) similar(w http.ResponseWriter, r *http.Request) {
	mediaTypes, err := parseMediaTypes(queryList(r, "media_types"))
	if err != nil {
		WriteError(w, err)
		return
	}
	topK, err := queryInt(r, "top_k")
	if err != nil {
		WriteError(w, err)
		return
	}
	alpha, err := queryAlpha(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.recUsecase.FindSimilar(r.Context(), &usecase.FindSimilarReq{
		ItemID:     chi.URLParam(r, "itemID"),
		MediaTypes: mediaTypes,
		TopK:       topK,
		Alpha:      alpha,
	})
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newRecommendResponse(res))
}

// recommendForUser
//
//	@Summary		Рекомендации по истории оценок
//	@Description	Строит профиль по оценкам; если оценок мало и передан text, ищет по тексту
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string					true	"UUID пользователя"
//	@Param			request	body		UserRecommendRequest	false	"Параметры"
//	@Success		200		{object}	RecommendResponse
//	@Failure		422		{object}	ErrorResponse	"Недостаточно оценок"
//	@Router			/users/{userID}/recommendations [post]
func (h *RecommendationHandler) recommendForUser(w http.ResponseWriter, r *http.Request) {
	var body UserRecommendRequest
	if msg, ok := decodeAndValidate(w, r, &body); !ok {
		h.logger.Warnf("%d %s", http.StatusBadRequest, msg)
		writeBadRequest(w, msg)
		return
	}

	req, err := body.toUsecase(chi.URLParam(r, "userID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.recUsecase.RecommendForUser(r.Context(), req)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newRecommendResponse(res))
}
