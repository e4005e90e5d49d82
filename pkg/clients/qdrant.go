package clients

import (
	"context"
	"fmt"

	config "github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// Имена векторов точки каталога.
const (
	VectorEmbedding = "embedding"
	VectorTaste     = "taste"
)

// Поля payload, по которым фильтруется поиск.
const (
	FieldItemID    = "item_id"
	FieldMediaType = "media_type"
	FieldYear      = "year"
)

// FieldTasteRaw хранит вектор вкуса без нормировки.
const FieldTasteRaw = "taste_raw"

type QdrantClient struct {
	Client *qdrant.Client
	cfg    *config.QdrantCfg
}

func NewQdrantClient(cfg *config.QdrantCfg) (*QdrantClient, error) {
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.ApiKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &QdrantClient{
		Client: qdrantClient,
		cfg:    cfg,
	}, nil
}

func (c *QdrantClient) Close() error {
	return c.Client.Close()
}

// EnsureCollection создаёт коллекцию каталога с двумя именованными векторами и индексами payload.
// Для существующей коллекции проверяет, что размерности векторов совпадают с конфигурацией.
func EnsureCollection(ctx context.Context, client *QdrantClient, tasteSize uint64) error {
	name := client.cfg.QdrantCollectionName

	exists, err := client.Client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if exists {
		return checkVectorSizes(ctx, client, tasteSize)
	}

	if err := client.Client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			VectorEmbedding: {Size: client.cfg.VectorSize, Distance: qdrant.Distance_Cosine},
			VectorTaste:     {Size: tasteSize, Distance: qdrant.Distance_Cosine},
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	indexes := map[string]qdrant.FieldType{
		FieldItemID:    qdrant.FieldType_FieldTypeKeyword,
		FieldMediaType: qdrant.FieldType_FieldTypeKeyword,
		FieldYear:      qdrant.FieldType_FieldTypeInteger,
	}
	for field, fieldType := range indexes {
		if _, err := client.Client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      field,
			FieldType:      fieldType.Enum(),
			Wait:           qdrant.PtrOf(true),
		}); err != nil {
			return fmt.Errorf("failed to create %s index: %w", field, err)
		}
	}

	return nil
}

func checkVectorSizes(ctx context.Context, client *QdrantClient, tasteSize uint64) error {
	info, err := client.Client.GetCollectionInfo(ctx, client.cfg.QdrantCollectionName)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParamsMap().GetMap()
	want := map[string]uint64{VectorEmbedding: client.cfg.VectorSize, VectorTaste: tasteSize}
	for name, size := range want {
		got := params[name].GetSize()
		if got != size {
			return e.Mark(e.ErrConfiguration, fmt.Errorf("collection vector %q has size %d, want %d", name, got, size))
		}
	}

	return nil
}
