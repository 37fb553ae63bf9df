package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/rpc"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
	"github.com/dmitrijs2005/codifyr/internal/server/services"
	"google.golang.org/grpc/codes"
)

var _ rpc.IdentityServer = (*GRPCServer)(nil)

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) SignUp(ctx context.Context, req *rpc.SignUpRequest) (*rpc.SignUpResponse, error) {
	id, err := s.users.SignUp(ctx, req.Email, req.Password, req.Metadata, req.RedirectTo)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", id)
	return &rpc.SignUpResponse{UserID: id}, nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *rpc.SignInRequest) (*rpc.SessionResponse, error) {
	pair, err := s.users.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return sessionResponse(pair), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.SessionResponse, error) {
	pair, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return sessionResponse(pair), nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *rpc.SignOutRequest) (*rpc.Empty, error) {
	if err := s.users.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *rpc.VerifyEmailRequest) (*rpc.SessionResponse, error) {
	pair, err := s.users.VerifyEmail(ctx, req.Token)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return sessionResponse(pair), nil
}

func (s *GRPCServer) ResendConfirmation(ctx context.Context, req *rpc.ResendConfirmationRequest) (*rpc.Empty, error) {
	if err := s.users.ResendConfirmation(ctx, req.Email); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) ResetPasswordForEmail(ctx context.Context, req *rpc.ResetPasswordRequest) (*rpc.Empty, error) {
	if err := s.users.RequestPasswordReset(ctx, req.Email, req.RedirectTo); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) UpdatePassword(ctx context.Context, req *rpc.UpdatePasswordRequest) (*rpc.Empty, error) {
	if err := s.users.UpdatePassword(ctx, req.Token, req.Password); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

// GetProfile reports Found=false for a profile that is not provisioned yet.
// Callers may only read their own profile.
func (s *GRPCServer) GetProfile(ctx context.Context, req *rpc.GetProfileRequest) (*rpc.ProfileResponse, error) {
	userID, err := s.callerMatches(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &rpc.ProfileResponse{Found: false}, nil
		}
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.ProfileResponse{Found: true, Profile: &rpc.Profile{
		UserID:             p.UserID,
		FullName:           p.FullName,
		Bio:                p.Bio,
		XPScore:            p.XPScore,
		Level:              p.Level,
		VerificationStatus: p.VerificationStatus,
		TechStack:          p.TechStack,
		AvatarURL:          p.AvatarURL,
	}}, nil
}

func (s *GRPCServer) InsertVerificationRequest(ctx context.Context, req *rpc.InsertVerificationRequest) (*rpc.VerificationResponse, error) {
	userID, err := s.callerMatches(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	v, err := s.verifications.Submit(ctx, userID, req.FileReference, req.Description)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.VerificationResponse{Request: verificationRecord(v)}, nil
}

func (s *GRPCServer) RequestUploadSlot(ctx context.Context, req *rpc.UploadSlotRequest) (*rpc.UploadSlotResponse, error) {
	slot, err := s.verifications.RequestUploadSlot(ctx, userIDFromContext(ctx), req.ContentType, req.Size)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.UploadSlotResponse{Key: slot.Key, URL: slot.URL, ExpiresAt: slot.ExpiresAt}, nil
}

// callerMatches returns the authenticated user id. A requested id that
// names somebody else is refused.
func (s *GRPCServer) callerMatches(ctx context.Context, requested string) (string, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return "", rpc.Error(codes.Unauthenticated, "missing token", common.ReasonInvalidToken, 0)
	}
	if requested != "" && requested != userID {
		return "", rpc.Error(codes.PermissionDenied, "permission denied", "", 0)
	}
	return userID, nil
}

func sessionResponse(p *services.TokenPair) *rpc.SessionResponse {
	return &rpc.SessionResponse{
		UserID:       p.UserID,
		Email:        p.Email,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt,
	}
}

func verificationRecord(v *models.VerificationRequest) rpc.VerificationRecord {
	return rpc.VerificationRecord{
		ID:            v.ID,
		UserID:        v.UserID,
		FileReference: v.FileReference,
		Description:   v.Description,
		Status:        v.Status,
		CreatedAt:     v.CreatedAt,
	}
}
