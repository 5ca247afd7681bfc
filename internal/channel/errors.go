package channel

import "fmt"

// ConfigError reports a channel whose effective configuration cannot be used.
type ConfigError struct {
	Channel string
	Field   string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Channel, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", e.Channel, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AuthError reports a failed login (SMTP) or credential exchange (WeCom
// access token).
type AuthError struct {
	Channel string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Channel, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
