package grpc

import (
	"context"

	"github.com/DRSN-tech/spectra-backend/internal/domain"
	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"github.com/DRSN-tech/spectra-backend/pkg/e"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const TasteServiceName = "spectra.v1.TasteService"

// TasteServiceServer — сервис вкусовых векторов для внутренних клиентов.
// Сообщения передаются как google.protobuf.Struct с теми же полями, что и в HTTP API.
type TasteServiceServer interface {
	AnalyzeTaste(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetUserTasteProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var TasteServiceDesc = grpc.ServiceDesc{
	ServiceName: TasteServiceName,
	HandlerType: (*TasteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AnalyzeTaste", Handler: unaryHandler("AnalyzeTaste", TasteServiceServer.AnalyzeTaste)},
		{MethodName: "Recommend", Handler: unaryHandler("Recommend", TasteServiceServer.Recommend)},
		{MethodName: "GetUserTasteProfile", Handler: unaryHandler("GetUserTasteProfile", TasteServiceServer.GetUserTasteProfile)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spectra/v1/taste.proto",
}

func unaryHandler(method string, call func(TasteServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + TasteServiceName + "/" + method

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TasteServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TasteServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type TasteService struct {
	tasteUC usecase.TasteUC
	recUC   usecase.RecommendationUC
	logger  logger.Logger
}

func NewTasteService(tasteUC usecase.TasteUC, recUC usecase.RecommendationUC, logger logger.Logger) *TasteService {
	return &TasteService{tasteUC: tasteUC, recUC: recUC, logger: logger}
}

func (g *TasteService) AnalyzeTaste(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.AnalyzeTaste"

	text, err := stringField(req, "text")
	if err != nil {
		return nil, GRPCErrorResponse(err)
	}

	res, err := g.tasteUC.AnalyzeTaste(ctx, &usecase.AnalyzeTasteReq{Text: text})
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return g.toStruct(op, map[string]any{
		"taste_vector": floatsToList(res.TasteVector),
		"breakdown":    dimensionScoresToList(res.Breakdown),
	})
}

func (g *TasteService) Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.Recommend"

	recReq, err := parseRecommendReq(req)
	if err != nil {
		return nil, GRPCErrorResponse(err)
	}

	res, err := g.recUC.RecommendByText(ctx, recReq)
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return g.toStruct(op, recommendResToMap(res))
}

func (g *TasteService) GetUserTasteProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.GetUserTasteProfile"

	userID, err := stringField(req, "user_id")
	if err != nil {
		return nil, GRPCErrorResponse(err)
	}

	profile, err := g.tasteUC.ComputeUserTasteProfile(ctx, userID)
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return g.toStruct(op, map[string]any{
		"user_id":      profile.UserID,
		"taste_vector": floatsToList(profile.TasteVector),
		"breakdown":    dimensionScoresToList(profile.Breakdown),
		"num_ratings":  profile.NumRatings,
	})
}

func (g *TasteService) toStruct(op string, m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "failed to encode response")
		return nil, GRPCErrorResponse(err)
	}
	return out, nil
}

func parseRecommendReq(req *structpb.Struct) (*usecase.RecommendReq, error) {
	text, err := stringField(req, "text")
	if err != nil {
		return nil, err
	}
	vector, err := numberListField(req, "taste_vector")
	if err != nil {
		return nil, err
	}
	rawTypes, err := stringListField(req, "media_types")
	if err != nil {
		return nil, err
	}
	var mediaTypes []domain.MediaType
	if len(rawTypes) > 0 {
		if mediaTypes, err = domain.ParseMediaTypes(rawTypes); err != nil {
			return nil, err
		}
	}
	topK, err := intField(req, "top_k")
	if err != nil {
		return nil, err
	}
	alpha, err := numberField(req, "alpha")
	if err != nil {
		return nil, err
	}
	exclude, err := stringListField(req, "exclude_ids")
	if err != nil {
		return nil, err
	}
	minYear, err := intField(req, "min_year")
	if err != nil {
		return nil, err
	}
	maxYear, err := intField(req, "max_year")
	if err != nil {
		return nil, err
	}

	res := &usecase.RecommendReq{
		Text:        text,
		TasteVector: domain.TasteVector(vector),
		MediaTypes:  mediaTypes,
		Alpha:       alpha,
		ExcludeIDs:  exclude,
		MinYear:     minYear,
		MaxYear:     maxYear,
	}
	if topK != nil {
		res.TopK = *topK
	}
	return res, nil
}

func recommendResToMap(res *usecase.RecommendRes) map[string]any {
	groups := make([]any, len(res.Groups))
	for i, g := range res.Groups {
		items := make([]any, len(g.Items))
		for j, r := range g.Items {
			item := map[string]any{
				"item_id":        r.ItemID,
				"media_type":     string(r.MediaType),
				"final_score":    r.FinalScore,
				"taste_score":    r.TasteScore,
				"semantic_score": r.SemanticScore,
			}
			if r.Item != nil {
				item["item"] = itemInfoToMap(r.Item)
			}
			items[j] = item
		}
		groups[i] = map[string]any{"media_type": string(g.MediaType), "items": items}
	}

	degraded := make([]any, len(res.Degraded))
	for i, mt := range res.Degraded {
		degraded[i] = string(mt)
	}

	return map[string]any{
		"groups":       groups,
		"taste_vector": floatsToList(res.TasteVector),
		"alpha":        res.Alpha,
		"alpha_reason": res.AlphaReason,
		"degraded":     degraded,
	}
}
