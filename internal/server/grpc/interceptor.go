package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/rpc"
	"github.com/dmitrijs2005/codifyr/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// protectedMethods require a valid access token.
var protectedMethods = map[string]bool{
	rpc.MethodGetProfile:         true,
	rpc.MethodInsertVerification: true,
	rpc.MethodRequestUploadSlot:  true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, rpc.Error(codes.Unauthenticated, "missing token", common.ReasonInvalidToken, 0)
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, rpc.Error(codes.Unauthenticated, common.ErrTokenExpired.Error(), common.ReasonTokenExpired, 0)
		}
		return nil, rpc.Error(codes.Unauthenticated, common.ErrInvalidToken.Error(), common.ReasonInvalidToken, 0)
	}

	return handler(context.WithValue(ctx, userIDKey, userID), req)
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
