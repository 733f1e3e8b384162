package ports

import (
	"context"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

// TokenIssuer talks to the token endpoints of the remote service.
type TokenIssuer interface {
	Obtain(ctx context.Context, username, password string) (domain.Credential, error)
	// Refresh exchanges a refresh token for a new access token. RefreshToken in
	// the result is empty unless the service rotated it.
	Refresh(ctx context.Context, refreshToken string) (domain.Credential, error)
}
