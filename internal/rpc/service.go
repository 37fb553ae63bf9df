package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "codifyr.identity.IdentityService"

// Full method names, as seen by interceptors.
const (
	MethodPing               = "/" + ServiceName + "/Ping"
	MethodSignUp             = "/" + ServiceName + "/SignUp"
	MethodSignIn             = "/" + ServiceName + "/SignIn"
	MethodRefreshToken       = "/" + ServiceName + "/RefreshToken"
	MethodSignOut            = "/" + ServiceName + "/SignOut"
	MethodVerifyEmail        = "/" + ServiceName + "/VerifyEmail"
	MethodResendConfirmation = "/" + ServiceName + "/ResendConfirmation"
	MethodResetPassword      = "/" + ServiceName + "/ResetPasswordForEmail"
	MethodUpdatePassword     = "/" + ServiceName + "/UpdatePassword"
	MethodGetProfile         = "/" + ServiceName + "/GetProfile"
	MethodInsertVerification = "/" + ServiceName + "/InsertVerificationRequest"
	MethodRequestUploadSlot  = "/" + ServiceName + "/RequestUploadSlot"
)

// IdentityServer is implemented by the server's gRPC handler.
type IdentityServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	SignUp(context.Context, *SignUpRequest) (*SignUpResponse, error)
	SignIn(context.Context, *SignInRequest) (*SessionResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*SessionResponse, error)
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*SessionResponse, error)
	ResendConfirmation(context.Context, *ResendConfirmationRequest) (*Empty, error)
	ResetPasswordForEmail(context.Context, *ResetPasswordRequest) (*Empty, error)
	UpdatePassword(context.Context, *UpdatePasswordRequest) (*Empty, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	InsertVerificationRequest(context.Context, *InsertVerificationRequest) (*VerificationResponse, error)
	RequestUploadSlot(context.Context, *UploadSlotRequest) (*UploadSlotResponse, error)
}

// RegisterIdentityServer attaches srv to a gRPC server.
func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&identityServiceDesc, srv)
}

var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", IdentityServer.Ping),
		unary("SignUp", IdentityServer.SignUp),
		unary("SignIn", IdentityServer.SignIn),
		unary("RefreshToken", IdentityServer.RefreshToken),
		unary("SignOut", IdentityServer.SignOut),
		unary("VerifyEmail", IdentityServer.VerifyEmail),
		unary("ResendConfirmation", IdentityServer.ResendConfirmation),
		unary("ResetPasswordForEmail", IdentityServer.ResetPasswordForEmail),
		unary("UpdatePassword", IdentityServer.UpdatePassword),
		unary("GetProfile", IdentityServer.GetProfile),
		unary("InsertVerificationRequest", IdentityServer.InsertVerificationRequest),
		unary("RequestUploadSlot", IdentityServer.RequestUploadSlot),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "codifyr/identity",
}

func unary[Req, Resp any](name string, call func(IdentityServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(IdentityServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(IdentityServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
