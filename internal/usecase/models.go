package usecase

import (
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
)

// TASTE

// AnalyzeTasteReq — запрос на анализ вкуса по свободному тексту.
type AnalyzeTasteReq struct {
	Text string
}

// AnalyzeTasteRes — вектор вкуса текста и его расшифровка по измерениям.
type AnalyzeTasteRes struct {
	TasteVector domain.TasteVector
	Breakdown   []domain.DimensionScore
}

// RECOMMENDATIONS

// RecommendReq — запрос рекомендаций по тексту и/или явному вектору вкуса.
type RecommendReq struct {
	Text        string
	TasteVector domain.TasteVector
	MediaTypes  []domain.MediaType
	TopK        int
	Alpha       *float64
	ExcludeIDs  []string
	MinYear     *int
	MaxYear     *int
}

// RecommendForUserReq — запрос рекомендаций по истории оценок пользователя.
// Text используется, если оценок недостаточно для профиля.
type RecommendForUserReq struct {
	UserID       string
	Text         string
	MediaTypes   []domain.MediaType
	TopK         int
	Alpha        *float64
	IncludeRated bool
	MinYear      *int
	MaxYear      *int
}

// FindSimilarReq — запрос элементов, похожих на заданный.
type FindSimilarReq struct {
	ItemID     string
	MediaTypes []domain.MediaType
	TopK       int
	Alpha      *float64
}

// ExplainMatchReq — запрос объяснения совпадения элемента и вектора вкуса.
type ExplainMatchReq struct {
	ItemID      string
	TasteVector domain.TasteVector
}

// RecommendationGroup — рекомендации одного типа.
type RecommendationGroup struct {
	MediaType domain.MediaType
	Items     []domain.RecommendationResult
}

// RecommendRes — рекомендации по группам в порядке запроса.
type RecommendRes struct {
	Groups      []RecommendationGroup
	TasteVector domain.TasteVector
	Breakdown   []domain.DimensionScore
	Alpha       float64
	AlphaReason string
	Degraded    []domain.MediaType
	// Профиль пользователя не построен, использован текст запроса.
	Fallback bool
}

// CATALOG

// IngestItemReq — элемент каталога для загрузки. Description эмбеддится целиком.
type IngestItemReq struct {
	ID          string
	Title       string
	MediaType   domain.MediaType
	Year        *int
	Description string
	Metadata    map[string]any
}

// IngestItemsRes — результат загрузки: идентификаторы и вектора вкуса загруженных элементов.
type IngestItemsRes struct {
	Items []IngestedItem
}

type IngestedItem struct {
	ID          string
	TasteVector domain.TasteVector
}

// RATINGS

// UpsertRatingReq — создание или обновление оценки пользователя.
type UpsertRatingReq struct {
	UserID        string
	ItemID        string
	Value         *float64
	Favorite      bool
	WantToConsume bool
	Notes         *string
}

// UserRating — оценка пользователя вместе с метаданными элемента.
type UserRating struct {
	Rating domain.Rating
	Item   *domain.ItemInfo
}

// INFRASTRUCTURE

// WriteRawMessageReq — готовое сообщение для брокера. EventID и EventType уходят в заголовки.
type WriteRawMessageReq struct {
	Key       string
	Payload   []byte
	EventID   string
	EventType OutboxEventType
}

// OutboxStatus — статус события в outbox.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEventType — тип события в outbox.
type OutboxEventType string

const (
	RatingChanged OutboxEventType = "rating.changed"
	RatingDeleted OutboxEventType = "rating.deleted"
	UserPurged    OutboxEventType = "user.purged"
)

// OutboxEvent — событие, сохранённое в одной транзакции с изменением и отправляемое воркером в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	AggregateID string // ключ партиционирования, id пользователя
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// RatingEvent — содержимое события об изменении оценок пользователя.
type RatingEvent struct {
	EventID   string
	EventType OutboxEventType
	UserID    string
	ItemID    string
	Value     *float64
	Favorite  bool
	Want      bool
	Timestamp time.Time
}

// MAPPERS

func NewAnalyzeTasteRes(vector domain.TasteVector, breakdown []domain.DimensionScore) *AnalyzeTasteRes {
	return &AnalyzeTasteRes{
		TasteVector: vector,
		Breakdown:   breakdown,
	}
}

func NewWriteRawMessageReq(event *OutboxEvent) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:       event.AggregateID,
		Payload:   event.Payload,
		EventID:   event.EventID,
		EventType: event.EventType,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, aggregateID string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewItem(req IngestItemReq, embedding []float64, vector domain.TasteVector) *domain.Item {
	return &domain.Item{
		ID:          req.ID,
		Title:       req.Title,
		MediaType:   req.MediaType,
		Year:        req.Year,
		Description: req.Description,
		Metadata:    req.Metadata,
		Embedding:   embedding,
		TasteVector: vector,
	}
}
