package config

type SecurityConfig interface {
	GetAdminSecret() string
}

type Security struct {
	s Settings
}

var _ SecurityConfig = Security{}

// GetAdminSecret is the HS256 key for admin bearer tokens. Empty disables the
// admin check on the status and revoke endpoints.
func (sc Security) GetAdminSecret() string {
	return sc.s.AdminSecret
}
