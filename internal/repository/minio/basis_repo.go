package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/internal/taste"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/jitter"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const (
	snapshotPrefix      = "basis/"
	snapshotContentType = "application/json"
	deleteAttempts      = 3
)

// BasisRepo хранит снапшоты базиса вкуса в MinIO, по объекту на ключ базиса.
type BasisRepo struct {
	mc     *minio.Client
	cfg    *cfg.MinIOCfg
	logger logger.Logger
}

func NewBasisRepo(mc *minio.Client, cfg *cfg.MinIOCfg, logger logger.Logger) *BasisRepo {
	return &BasisRepo{
		mc:     mc,
		cfg:    cfg,
		logger: logger,
	}
}

// Load читает снапшот по ключу. Отсутствие объекта не является ошибкой.
func (b *BasisRepo) Load(ctx context.Context, key string) (*taste.Snapshot, error) {
	obj, err := b.mc.GetObject(ctx, b.cfg.BucketName, ObjectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var snapshot taste.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &snapshot, nil
}

// Save загружает снапшот в MinIO, заменяя объект с тем же ключом.
func (b *BasisRepo) Save(ctx context.Context, snapshot *taste.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = b.mc.PutObject(ctx, b.cfg.BucketName, ObjectKey(snapshot.Key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: snapshotContentType,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PruneStale удаляет снапшоты всех ключей, кроме keep: они остаются от прежних
// определений измерений или модели эмбеддингов. Каждое удаление повторяется с backoff.
func (b *BasisRepo) PruneStale(ctx context.Context, keep string) (int, error) {
	keepObject := ObjectKey(keep)
	removed := 0

	for info := range b.mc.ListObjects(ctx, b.cfg.BucketName, minio.ListObjectsOptions{Prefix: snapshotPrefix}) {
		if info.Err != nil {
			return removed, e.Wrap(whereami.WhereAmI(), info.Err)
		}
		if info.Key == keepObject {
			continue
		}

		err := jitter.Retry(ctx, deleteAttempts, 500*time.Millisecond, 4*time.Second, func(error) bool { return true }, func(ctx context.Context) error {
			return b.mc.RemoveObject(ctx, b.cfg.BucketName, info.Key, minio.RemoveObjectOptions{})
		})
		if err != nil {
			b.logger.Warnf("failed to remove stale basis snapshot %s: %v", info.Key, err)
			continue
		}
		removed++
	}

	return removed, nil
}

// ObjectKey возвращает имя объекта снапшота для ключа базиса.
func ObjectKey(key string) string {
	return snapshotPrefix + strings.ToLower(key) + ".json"
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
