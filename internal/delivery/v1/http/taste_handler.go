package http

import (
	"net/http"

	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type TasteHandler struct {
	tasteUsecase usecase.TasteUC
	logger       logger.Logger
}

func NewTasteHandler(tasteUsecase usecase.TasteUC, logger logger.Logger) *TasteHandler {
	return &TasteHandler{tasteUsecase: tasteUsecase, logger: logger}
}

// analyzeTaste
//
//	@Summary		Анализ вкуса по тексту
//	@Description	Проецирует свободное описание вкуса на интерпретируемые измерения
//	@Tags			taste
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AnalyzeTasteRequest		true	"Описание вкуса"
//	@Success		200		{object}	AnalyzeTasteResponse	"Вектор вкуса и расшифровка"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации"
//	@Failure		503		{object}	ErrorResponse			"Сервис эмбеддингов недоступен"
//	@Router			/taste/analyze [post]
func (h *TasteHandler) analyzeTaste(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeTasteRequest
	if msg, ok := decodeAndValidate(w, r, &body); !ok {
		h.logger.Warnf("%d %s", http.StatusBadRequest, msg)
		writeBadRequest(w, msg)
		return
	}

	res, err := h.tasteUsecase.AnalyzeTaste(r.Context(), &usecase.AnalyzeTasteReq{Text: body.Text})
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &AnalyzeTasteResponse{
		TasteVector: res.TasteVector,
		Breakdown:   newDimensionScores(res.Breakdown),
	})
}

// listDimensions
//
//	@Summary	Список измерений вкуса
//	@Tags		taste
//	@Produce	json
//	@Success	200	{array}	DimensionResponse
//	@Router		/taste/dimensions [get]
func (h *TasteHandler) listDimensions(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, newDimensions(h.tasteUsecase.ListDimensions(r.Context())))
}

// getUserTasteProfile
//
//	@Summary		Вкусовой профиль пользователя
//	@Description	Строит профиль по оценкам пользователя, результат кэшируется
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		string					true	"UUID пользователя"
//	@Success		200		{object}	TasteProfileResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректный идентификатор"
//	@Failure		422		{object}	ErrorResponse	"Недостаточно оценок"
//	@Router			/users/{userID}/taste-profile [get]
func (h *TasteHandler) getUserTasteProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.tasteUsecase.ComputeUserTasteProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newTasteProfileResponse(profile))
}
