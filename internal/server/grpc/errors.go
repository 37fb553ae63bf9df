package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/rpc"
	"github.com/dmitrijs2005/codifyr/internal/server/ratelimit"
	"github.com/dmitrijs2005/codifyr/internal/validation"
	"google.golang.org/grpc/codes"
)

// toStatus maps service errors to gRPC statuses with a reason code.
// Unknown errors are logged and reported as Internal without detail.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return rpc.Error(codes.InvalidArgument, fe.Message, common.ReasonInvalidArgument, 0)
	}

	var le *ratelimit.LimitError
	if errors.As(err, &le) {
		if errors.Is(le.Err, common.ErrQuotaExceeded) {
			return rpc.Error(codes.ResourceExhausted, le.Error(), common.ReasonQuotaExceeded, le.RetryAfter)
		}
		return rpc.Error(codes.ResourceExhausted, le.Error(), common.ReasonRateLimited, le.RetryAfter)
	}

	switch {
	case errors.Is(err, validation.ErrInvalidInput):
		return rpc.Error(codes.InvalidArgument, err.Error(), common.ReasonInvalidArgument, 0)
	case errors.Is(err, common.ErrInvalidCredentials):
		return rpc.Error(codes.Unauthenticated, err.Error(), common.ReasonInvalidCredentials, 0)
	case errors.Is(err, common.ErrEmailNotConfirmed):
		return rpc.Error(codes.FailedPrecondition, err.Error(), common.ReasonEmailNotConfirmed, 0)
	case errors.Is(err, common.ErrRateLimited):
		return rpc.Error(codes.ResourceExhausted, err.Error(), common.ReasonRateLimited, 0)
	case errors.Is(err, common.ErrQuotaExceeded):
		return rpc.Error(codes.ResourceExhausted, err.Error(), common.ReasonQuotaExceeded, 0)
	case errors.Is(err, common.ErrAlreadyRegistered):
		return rpc.Error(codes.AlreadyExists, err.Error(), common.ReasonAlreadyRegistered, 0)
	case errors.Is(err, common.ErrTokenExpired):
		return rpc.Error(codes.Unauthenticated, err.Error(), common.ReasonTokenExpired, 0)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return rpc.Error(codes.Unauthenticated, err.Error(), common.ReasonSessionExpired, 0)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return rpc.Error(codes.Unauthenticated, err.Error(), common.ReasonInvalidToken, 0)
	case errors.Is(err, common.ErrLinkExpired):
		return rpc.Error(codes.InvalidArgument, err.Error(), common.ReasonInvalidToken, 0)
	case errors.Is(err, common.ErrUnsupportedMedia):
		return rpc.Error(codes.InvalidArgument, err.Error(), common.ReasonUnsupportedMedia, 0)
	case errors.Is(err, common.ErrorNotFound):
		return rpc.Error(codes.NotFound, err.Error(), "", 0)
	case errors.Is(err, context.Canceled):
		return rpc.Error(codes.Canceled, err.Error(), "", 0)
	case errors.Is(err, context.DeadlineExceeded):
		return rpc.Error(codes.DeadlineExceeded, err.Error(), "", 0)
	}

	s.logger.Error(ctx, "request failed", "error", err)
	return rpc.Error(codes.Internal, common.ErrorInternal.Error(), "", 0)
}
