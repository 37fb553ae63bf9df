package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/client/models"
	"github.com/dmitrijs2005/codifyr/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcmd "google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SessionKey is the metadata key the session is persisted under.
const SessionKey = "session"

const pingTimeout = 5 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.IdentityClient
	store       metadata.Repository
	logger      logging.Logger
	events      *broadcaster

	mu      sync.Mutex
	session *models.Session

	// serialises refreshes so concurrent expiries rotate the token once
	refreshMu sync.Mutex
}

// NewClientService dials endpointURL and restores the session persisted in
// store, if any.
func NewClientService(ctx context.Context, endpointURL string, store metadata.Repository, logger logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := newGRPCClient(nil, store, logger)
	c.endpointURL = endpointURL
	if err := c.initGRPCClient(opts...); err != nil {
		c.events.close()
		return nil, err
	}
	if err := c.restoreSession(ctx); err != nil {
		c.logger.Warn(ctx, "stored session discarded", "error", err)
	}
	return c, nil
}

func newGRPCClient(ic rpc.IdentityClient, store metadata.Repository, logger logging.Logger) *GRPCClient {
	if logger == nil {
		logger = logging.Nop()
	}
	return &GRPCClient{
		client: ic,
		store:  store,
		logger: logger.With("module", "grpc_client"),
		events: newBroadcaster(),
	}
}

func (c *GRPCClient) initGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(c.endpointURL, opts...)
	if err != nil {
		return err
	}
	c.conn = conn
	c.client = rpc.NewIdentityClient(conn)
	return nil
}

func (c *GRPCClient) Close() error {
	c.events.close()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := grpcmd.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AccessTokenHeaderName, token)
	return grpcmd.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// accessTokenInterceptor attaches the access token and, when the server
// reports it expired, rotates the token pair once and retries the call.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == rpc.MethodRefreshToken {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	token := c.accessToken()
	callCtx := ctx
	if token != "" {
		callCtx = withAccessToken(ctx, token)
	}

	err := invoker(callCtx, method, req, reply, cc, opts...)
	if err == nil || token == "" || !isTokenExpired(err) {
		return err
	}

	if rerr := c.refresh(ctx, token); rerr != nil {
		return err
	}
	return invoker(withAccessToken(ctx, c.accessToken()), method, req, reply, cc, opts...)
}

func isTokenExpired(err error) bool {
	if status.Code(err) != codes.Unauthenticated {
		return false
	}
	reason, _ := rpc.Details(err)
	if reason != "" {
		return reason == common.ReasonTokenExpired
	}
	return status.Convert(err).Message() == common.ErrTokenExpired.Error()
}

// refresh rotates the token pair. stale is the access token that was
// rejected; if another call already replaced it, refresh does nothing.
func (c *GRPCClient) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.Lock()
	cur := copySession(c.session)
	c.mu.Unlock()

	if cur == nil || cur.RefreshToken == "" {
		return ErrUnauthorized
	}
	if cur.AccessToken != stale {
		return nil
	}

	resp, err := c.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: cur.RefreshToken})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			c.logger.Info(ctx, "refresh token rejected, signing out")
			c.replaceSession(ctx, nil, EventSignedOut)
		}
		return c.mapError(err)
	}

	c.replaceSession(ctx, sessionFromRPC(resp), EventTokenRefreshed)
	return nil
}

// replaceSession stores s (nil clears it), persists it and publishes the
// change. The publish happens under the session lock so listeners observe
// changes in the order they were made.
func (c *GRPCClient) replaceSession(ctx context.Context, s *models.Session, event AuthEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = copySession(s)
	if err := c.persistLocked(ctx); err != nil {
		c.logger.Warn(ctx, "session not persisted", "error", err)
	}
	c.events.publish(change{event: event, session: copySession(s)})
}

func (c *GRPCClient) persistLocked(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if c.session == nil {
		return c.store.Delete(ctx, SessionKey)
	}
	b, err := json.Marshal(c.session)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, SessionKey, b)
}

func (c *GRPCClient) restoreSession(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	b, err := c.store.Get(ctx, SessionKey)
	if err != nil || b == nil {
		return err
	}
	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil {
		_ = c.store.Delete(ctx, SessionKey)
		return err
	}
	if !s.IsActive() {
		return nil
	}

	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	return nil
}

func sessionFromRPC(r *rpc.SessionResponse) *models.Session {
	return &models.Session{
		UserID:       r.UserID,
		Email:        r.Email,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
	}
}

func (c *GRPCClient) GetSession(ctx context.Context) (*models.Session, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySession(c.session), nil
}

func (c *GRPCClient) OnSessionChange(fn SessionChangeFunc) Subscription {
	return c.events.subscribe(fn)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := c.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return c.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) SignUp(ctx context.Context, email, password string, md map[string]string, redirectTo string) (string, error) {
	resp, err := c.client.SignUp(ctx, &rpc.SignUpRequest{
		Email:      email,
		Password:   password,
		Metadata:   md,
		RedirectTo: redirectTo,
	})
	if err != nil {
		return "", c.mapError(err)
	}
	return resp.UserID, nil
}

func (c *GRPCClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := c.client.SignIn(ctx, &rpc.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, c.mapError(err)
	}
	s := sessionFromRPC(resp)
	c.replaceSession(ctx, s, EventSignedIn)
	return s, nil
}

func (c *GRPCClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	_, err := c.client.ResetPasswordForEmail(ctx, &rpc.ResetPasswordRequest{Email: email, RedirectTo: redirectTo})
	return c.mapError(err)
}

func (c *GRPCClient) ResendSignupConfirmation(ctx context.Context, email string) error {
	_, err := c.client.ResendConfirmation(ctx, &rpc.ResendConfirmationRequest{Email: email})
	return c.mapError(err)
}

// VerifyEmail redeems a confirmation token. The server signs the user in,
// so a successful call publishes EventSignedIn.
func (c *GRPCClient) VerifyEmail(ctx context.Context, token string) (*models.Session, error) {
	resp, err := c.client.VerifyEmail(ctx, &rpc.VerifyEmailRequest{Token: token})
	if err != nil {
		return nil, c.mapError(err)
	}
	s := sessionFromRPC(resp)
	c.replaceSession(ctx, s, EventSignedIn)
	return s, nil
}

func (c *GRPCClient) UpdatePassword(ctx context.Context, token, password string) error {
	_, err := c.client.UpdatePassword(ctx, &rpc.UpdatePasswordRequest{Token: token, Password: password})
	return c.mapError(err)
}

// SignOut revokes the refresh token on the server and always clears the
// local session. Server-side rejection of an already invalid token is not
// reported.
func (c *GRPCClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	cur := copySession(c.session)
	c.mu.Unlock()

	var err error
	if cur != nil && cur.RefreshToken != "" {
		_, err = c.client.SignOut(ctx, &rpc.SignOutRequest{RefreshToken: cur.RefreshToken})
		err = c.mapError(err)
	}

	c.replaceSession(ctx, nil, EventSignedOut)

	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

func (c *GRPCClient) ReadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	resp, err := c.client.GetProfile(ctx, &rpc.GetProfileRequest{UserID: userID})
	if err != nil {
		return nil, c.mapError(err)
	}
	if !resp.Found || resp.Profile == nil {
		return nil, nil
	}
	p := resp.Profile
	return &models.Profile{
		UserID:             p.UserID,
		FullName:           p.FullName,
		Bio:                p.Bio,
		XPScore:            p.XPScore,
		Level:              p.Level,
		VerificationStatus: p.VerificationStatus,
		TechStack:          append([]string(nil), p.TechStack...),
		AvatarURL:          p.AvatarURL,
	}, nil
}

func (c *GRPCClient) InsertVerificationRequest(ctx context.Context, req *models.VerificationRequest) (*models.VerificationRequest, error) {
	resp, err := c.client.InsertVerificationRequest(ctx, &rpc.InsertVerificationRequest{
		UserID:        req.UserID,
		FileReference: req.FileReference,
		Description:   req.Description,
	})
	if err != nil {
		return nil, c.mapError(err)
	}
	r := resp.Request
	return &models.VerificationRequest{
		ID:            r.ID,
		UserID:        r.UserID,
		FileReference: r.FileReference,
		Description:   r.Description,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}, nil
}

func (c *GRPCClient) RequestUploadSlot(ctx context.Context, contentType string, size int64) (*models.UploadSlot, error) {
	resp, err := c.client.RequestUploadSlot(ctx, &rpc.UploadSlotRequest{ContentType: contentType, Size: size})
	if err != nil {
		return nil, c.mapError(err)
	}
	return &models.UploadSlot{Key: resp.Key, URL: resp.URL, ExpiresAt: resp.ExpiresAt}, nil
}

// mapError turns a gRPC status into a *ProviderError. Transport failures
// keep their code so errors.Is(err, ErrUnavailable) still works.
func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	st := status.Convert(err)
	reason, retry := rpc.Details(err)
	return &ProviderError{
		Code:       st.Code(),
		Reason:     reason,
		Message:    st.Message(),
		RetryAfter: retry,
	}
}
