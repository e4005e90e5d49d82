package converter

import "time"

// ItemModel представляет запись таблицы media_items в PostgreSQL.
type ItemModel struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	MediaType   string         `db:"media_type"`
	Year        *int           `db:"year"`
	Description string         `db:"description"`
	Metadata    map[string]any `db:"metadata"`
	Embedding   []float64      `db:"embedding"`
	TasteVector []float64      `db:"taste_vector"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   *time.Time     `db:"updated_at"`
}

// RatingModel представляет запись таблицы ratings в PostgreSQL.
type RatingModel struct {
	ID            int64      `db:"id"`
	UserID        string     `db:"user_id"`
	ItemID        string     `db:"item_id"`
	Value         *float64   `db:"value"`
	Favorite      bool       `db:"favorite"`
	WantToConsume bool       `db:"want_to_consume"`
	Notes         *string    `db:"notes"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
