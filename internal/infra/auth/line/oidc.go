package line

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"

	"github.com/coreos/go-oidc/v3/oidc"
)

type idTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// oidcVerifier checks ID tokens locally against LINE's published keys.
// Discovery runs lazily on first use and is retried after a failure.
type oidcVerifier struct {
	issuerURL  string
	channelID  string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(issuerURL, channelID string, httpClient *http.Client, logger *slog.Logger) service.LineTokenVerifier {
	return &oidcVerifier{
		issuerURL:  issuerURL,
		channelID:  channelID,
		httpClient: httpClient,
		logger:     logger,
	}
}

// newOIDCVerifierWith wires a prepared verifier, skipping discovery.
func newOIDCVerifierWith(verifier *oidc.IDTokenVerifier, logger *slog.Logger) *oidcVerifier {
	return &oidcVerifier{verifier: verifier, logger: logger}
}

func (v *oidcVerifier) VerifyIDToken(ctx context.Context, idToken string) (*entity.ProviderIdentity, error) {
	verifier, err := v.load(ctx)
	if err != nil {
		return nil, err
	}

	token, err := verifier.Verify(ctx, idToken)
	if err != nil {
		v.logger.Warn("LINE ID token failed local verification", slog.Any("error", err))

		return nil, &service.ProviderRejectedError{
			Provider:   entity.ProviderTypeLine,
			StatusCode: http.StatusUnauthorized,
			Raw:        err.Error(),
		}
	}

	var claims idTokenClaims
	if err := token.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "failed to parse line id token claims")
	}

	return &entity.ProviderIdentity{
		Provider:          entity.ProviderTypeLine,
		ProviderAccountID: token.Subject,
		Email:             claims.Email,
		Name:              claims.Name,
		Picture:           claims.Picture,
	}, nil
}

func (v *oidcVerifier) load(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.verifier != nil {
		return v.verifier, nil
	}

	// The key set keeps the discovery context for later JWKS refreshes, so it must outlive this request.
	discoveryCtx := oidc.ClientContext(context.WithoutCancel(ctx), v.httpClient)
	provider, err := oidc.NewProvider(discoveryCtx, v.issuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover line oidc provider")
	}

	v.verifier = provider.Verifier(&oidc.Config{ClientID: v.channelID})
	v.logger.Info("LINE OIDC provider discovered", slog.String("issuer", v.issuerURL))

	return v.verifier, nil
}
