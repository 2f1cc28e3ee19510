package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/samber/lo"
	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var federatedScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/identitytoolkit",
}

var (
	ErrFederatedDisabled = errors.New("federated provider is not configured")
	ErrFederatedNoLink   = errors.New("federated provider returned no reset link")
)

var _ core.FederatedService = (*FederatedServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.FEDERATED_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewFederatedService()
		},
	})
}

// FederatedServiceDefault looks up accounts and reset links through the Firebase Auth admin API.
type FederatedServiceDefault struct {
	client *auth.Client
}

func NewFederatedService() (*FederatedServiceDefault, []core.ContextBuilderOption, error) {
	svc := &FederatedServiceDefault{}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cfg := ctx.Config().Config().Core.Federated
			if !cfg.Enabled {
				ctx.Logger().Debug("federated provider disabled")
				return nil
			}

			client, err := newFederatedAuthClient(ctx, cfg)
			if err != nil {
				return err
			}

			svc.client = client

			return nil
		}),
	)

	return svc, opts, nil
}

// NewFederatedClient wraps an already configured auth client.
func NewFederatedClient(client *auth.Client) *FederatedServiceDefault {
	return &FederatedServiceDefault{
		client: client,
	}
}

// NewFederatedAuthClient builds an auth client for projectID. The FIREBASE_AUTH_EMULATOR_HOST environment
// variable points it at an emulator instead of the production API.
func NewFederatedAuthClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*auth.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating federated app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating federated auth client: %w", err)
	}

	return client, nil
}

func newFederatedAuthClient(ctx context.Context, cfg config.FederatedConfig) (*auth.Client, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading federated credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, federatedScopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing federated credentials: %w", err)
	}

	base := &http.Client{Timeout: cfg.Timeout}
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)

	client := oauth2.NewClient(tokenCtx, creds.TokenSource)
	client.Timeout = cfg.Timeout

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = creds.ProjectID
	}

	return NewFederatedAuthClient(ctx, projectID, option.WithCredentials(creds), option.WithHTTPClient(client))
}

func (f *FederatedServiceDefault) ID() string {
	return core.FEDERATED_SERVICE
}

func (f *FederatedServiceDefault) Enabled() bool {
	return f.client != nil
}

func (f *FederatedServiceDefault) LookupByEmail(ctx context.Context, email string) (*core.FederatedAccount, error) {
	if !f.Enabled() {
		return nil, nil
	}

	user, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &core.FederatedAccount{
		ID:    user.UID,
		Email: user.Email,
		Providers: lo.Map(user.ProviderUserInfo, func(p *auth.UserInfo, _ int) string {
			return p.ProviderID
		}),
	}, nil
}

func (f *FederatedServiceDefault) GenerateResetLink(ctx context.Context, email string) (string, error) {
	if !f.Enabled() {
		return "", ErrFederatedDisabled
	}

	link, err := f.client.PasswordResetLink(ctx, email)
	if err != nil {
		return "", err
	}

	if link == "" {
		return "", ErrFederatedNoLink
	}

	return link, nil
}
