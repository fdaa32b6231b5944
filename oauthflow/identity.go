package oauthflow

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	googleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// Identity is the account behind a freshly exchanged credential.
type Identity struct {
	Subject string
	Email   string
}

// IdentityVerifier validates the id_token returned alongside an exchanged
// access token.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, rawIDToken string) (Identity, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleIdentityVerifier checks Google ID tokens against Google's published
// keys. Keys are fetched lazily, so construction makes no network call.
func NewGoogleIdentityVerifier(clientID string, client *http.Client) IdentityVerifier {
	ctx := context.Background()
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}
	keySet := oidc.NewRemoteKeySet(ctx, googleJWKSURL)
	return &oidcVerifier{
		verifier: oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{ClientID: clientID}),
	}
}

func (v *oidcVerifier) VerifyIdentity(ctx context.Context, rawIDToken string) (Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, fmt.Errorf("id token verification failed: %w", err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("failed to extract claims: %w", err)
	}
	return Identity{Subject: claims.Sub, Email: claims.Email}, nil
}
