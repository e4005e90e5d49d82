package grpc

import (
	"errors"
	"fmt"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrItemNotFound):
		return status.Error(codes.NotFound, e.ErrItemNotFound.Error())
	case errors.Is(err, e.ErrInsufficientData):
		return status.Error(codes.FailedPrecondition, e.ErrInsufficientData.Error())
	case errors.Is(err, e.ErrRetrieval):
		return status.Error(codes.Unavailable, e.ErrRetrieval.Error())
	case errors.Is(err, e.ErrEmbeddingProvider):
		return status.Error(codes.Unavailable, e.ErrEmbeddingProvider.Error())
	case errors.Is(err, e.ErrInvalidUserID):
		return status.Error(codes.InvalidArgument, e.ErrInvalidUserID.Error())
	case errors.Is(err, e.ErrInvalidMediaType):
		return status.Error(codes.InvalidArgument, e.ErrInvalidMediaType.Error())
	case errors.Is(err, e.ErrInvalidQuery), errors.Is(err, e.ErrStatusBadRequest):
		return status.Error(codes.InvalidArgument, e.ErrInvalidQuery.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

// invalidArgument оборачивает ошибку разбора запроса в категорию 400/InvalidArgument.
func invalidArgument(format string, args ...any) error {
	return e.Mark(e.ErrInvalidQuery, fmt.Errorf(format, args...))
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", invalidArgument("%s must be a string", key)
	}
	return s.StringValue, nil
}

func numberField(req *structpb.Struct, key string) (*float64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, invalidArgument("%s must be a number", key)
	}
	return &n.NumberValue, nil
}

func intField(req *structpb.Struct, key string) (*int, error) {
	n, err := numberField(req, key)
	if err != nil || n == nil {
		return nil, err
	}
	if *n != float64(int(*n)) {
		return nil, invalidArgument("%s must be an integer", key)
	}
	v := int(*n)
	return &v, nil
}

func numberListField(req *structpb.Struct, key string) ([]float64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, invalidArgument("%s must be a list of numbers", key)
	}

	out := make([]float64, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, invalidArgument("%s must be a list of numbers", key)
		}
		out = append(out, n.NumberValue)
	}
	return out, nil
}

func stringListField(req *structpb.Struct, key string) ([]string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, invalidArgument("%s must be a list of strings", key)
	}

	out := make([]string, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, invalidArgument("%s must be a list of strings", key)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// structpb принимает только []any, поэтому срезы конвертируются явно.

func floatsToList(v []float64) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = f
	}
	return out
}

func dimensionScoresToList(scores []domain.DimensionScore) []any {
	out := make([]any, len(scores))
	for i, s := range scores {
		out[i] = map[string]any{
			"dimension_id": s.DimensionID,
			"name":         s.Name,
			"score":        s.Score,
			"tendency":     s.Tendency,
		}
	}
	return out
}

func itemInfoToMap(info *domain.ItemInfo) map[string]any {
	m := map[string]any{
		"id":         info.ID,
		"title":      info.Title,
		"media_type": string(info.MediaType),
	}
	if info.Year != nil {
		m["year"] = *info.Year
	}
	if info.Description != "" {
		m["description"] = info.Description
	}
	return m
}
