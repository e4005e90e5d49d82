package ml_service

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/spectra-backend/internal/cfg"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeEmbeddingServer кодирует текст вектором [len(text), 1] и может падать первые failures вызовов.
type fakeEmbeddingServer struct {
	mu       sync.Mutex
	calls    int
	batches  [][]string
	failures int
	code     codes.Code
}

func (s *fakeEmbeddingServer) embed(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, status.Error(s.code, "model is loading")
	}

	var texts []string
	vectors := make([]any, 0)
	for _, v := range in.GetFields()["texts"].GetListValue().GetValues() {
		texts = append(texts, v.GetStringValue())
		vectors = append(vectors, []any{float64(len(v.GetStringValue())), 1.0})
	}
	s.batches = append(s.batches, texts)

	return structpb.NewStruct(map[string]any{"vectors": vectors, "model_version": "test"})
}

func newTestClient(t *testing.T, srv *fakeEmbeddingServer, batchSize int) *MLService {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "ml.v1.EmbeddingService",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "EmbedTexts",
			Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := &structpb.Struct{}
				if err := dec(in); err != nil {
					return nil, err
				}
				return srv.embed(ctx, in)
			},
		}},
	}, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	m := NewMLService(conn, &cfg.MLServiceCfg{Model: "test", BatchSize: batchSize, MaxConcurrent: 2, MaxRetries: 3}, logger.NewNopLogger())
	m.retryBase, m.retryMax = time.Millisecond, 5*time.Millisecond
	return m
}

func TestEmbedBatchesKeepOrder(t *testing.T) {
	srv := &fakeEmbeddingServer{}
	m := newTestClient(t, srv, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := m.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	for i, v := range vectors {
		if v[0] != float64(len(texts[i])) {
			t.Errorf("vector %d = %v, order broken", i, v)
		}
	}
	if len(srv.batches) != 3 {
		t.Errorf("batches = %v, want 3", srv.batches)
	}
}

func TestEmbedRetriesTemporaryErrors(t *testing.T) {
	srv := &fakeEmbeddingServer{failures: 2, code: codes.Unavailable}
	m := newTestClient(t, srv, 8)

	if _, err := m.Embed(context.Background(), []string{"rainy jazz"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if srv.calls != 3 {
		t.Errorf("calls = %d, want 3", srv.calls)
	}
}

func TestEmbedErrors(t *testing.T) {
	tests := []struct {
		name      string
		srv       *fakeEmbeddingServer
		wantCalls int
	}{
		{"retries exhausted", &fakeEmbeddingServer{failures: 5, code: codes.Unavailable}, 3},
		{"permanent error", &fakeEmbeddingServer{failures: 1, code: codes.InvalidArgument}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestClient(t, tt.srv, 8)

			_, err := m.Embed(context.Background(), []string{"x"})
			if !errors.Is(err, e.ErrEmbeddingProvider) {
				t.Fatalf("got %v, want ErrEmbeddingProvider", err)
			}
			if tt.srv.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.srv.calls, tt.wantCalls)
			}
		})
	}
}

func TestDecodeVectors(t *testing.T) {
	mismatch, _ := structpb.NewStruct(map[string]any{"vectors": []any{[]any{1.0, 2.0}, []any{1.0}}})
	if _, err := decodeVectors(mismatch, 2); !errors.Is(err, e.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}

	short, _ := structpb.NewStruct(map[string]any{"vectors": []any{[]any{1.0}}})
	if _, err := decodeVectors(short, 2); err == nil {
		t.Error("expected error for missing vectors")
	}
}
