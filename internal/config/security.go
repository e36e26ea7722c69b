package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" default:"*"`
	MaxRequestSize     int64    `env:"MAX_REQUEST_SIZE" yaml:"max_request_size" default:"102400"` // 100kb, same as express.json
}

// Validate checks SecurityConfig
func (s SecurityConfig) Validate() error {
	var result error
	if s.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}
	if len(s.CORSAllowedOrigins) == 0 {
		result = multierror.Append(result, fmt.Errorf("cors_allowed_origins must not be empty"))
	}
	return result
}
