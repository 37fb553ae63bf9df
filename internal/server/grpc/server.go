package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/rpc"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
	"github.com/dmitrijs2005/codifyr/internal/server/services"
	"github.com/dmitrijs2005/codifyr/internal/telemetry"
	"google.golang.org/grpc"
)

type UserService interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string, redirectTo string) (string, error)
	SignIn(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) (*services.TokenPair, error)
	ResendConfirmation(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, token, password string) error
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
}

type VerificationService interface {
	Submit(ctx context.Context, userID, fileReference, description string) (*models.VerificationRequest, error)
	RequestUploadSlot(ctx context.Context, userID, contentType string, size int64) (*services.UploadSlot, error)
}

type GRPCServer struct {
	address       string
	users         UserService
	profiles      ProfileService
	verifications VerificationService
	logger        logging.Logger
	jwtSecret     []byte
}

func NewGRPCServer(a string, l logging.Logger, us UserService, ps ProfileService, vs VerificationService, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		users:         us,
		profiles:      ps,
		verifications: vs,
		jwtSecret:     []byte(secretKey),
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(
		telemetry.ServerOption(),
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
	)
	rpc.RegisterIdentityServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
