package gcal

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// CredentialProvider supplies a refreshable access token for the Google
// collaborators. The token is passed into each call rather than stashed in
// process-wide state, so refreshes stay in one place.
type CredentialProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

type tokenSourceProvider struct {
	src oauth2.TokenSource
}

// TokenSourceCredentials adapts an oauth2.TokenSource (typically a
// refreshing source from an oauth2.Config) into a CredentialProvider.
func TokenSourceCredentials(src oauth2.TokenSource) CredentialProvider {
	return &tokenSourceProvider{src: src}
}

func (p *tokenSourceProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	if !tok.Valid() {
		return nil, &AuthError{Err: errors.New("token expired and not refreshable")}
	}
	return tok, nil
}

// StaticCredentials returns a provider that always yields the given access
// token. Intended for tests and one-shot tooling.
func StaticCredentials(accessToken string) CredentialProvider {
	return TokenSourceCredentials(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

// LocalCredentials satisfies the credential gate for self-contained
// deployments whose collaborators call no upstream API.
func LocalCredentials() CredentialProvider {
	return StaticCredentials("local")
}
