package domain

import "strings"

// Credential is the access/refresh token pair of the signed-in user.
type Credential struct {
	AccessToken  string
	RefreshToken string
}

func (c Credential) HasAccess() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

func (c Credential) HasRefresh() bool {
	return strings.TrimSpace(c.RefreshToken) != ""
}
