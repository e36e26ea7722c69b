package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// MonitoringConfig holds metrics and gRPC liveness settings
type MonitoringConfig struct {
	MetricsEnabled bool `env:"METRICS_ENABLED" yaml:"metrics_enabled" default:"false"`
	MetricsPort    int  `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`
	// GRPCHealthPort enables grpc.health.v1 on this port when > 0.
	GRPCHealthPort int `env:"GRPC_HEALTH_PORT" yaml:"grpc_health_port"`
}

// Validate checks ports only for the listeners that are enabled.
func (m MonitoringConfig) Validate(httpPort int) error {
	var result error
	if m.MetricsEnabled {
		if m.MetricsPort < 1 || m.MetricsPort > 65535 {
			result = multierror.Append(result, fmt.Errorf("metrics port must be between 1-65535, got %d", m.MetricsPort))
		} else if m.MetricsPort == httpPort {
			result = multierror.Append(result, fmt.Errorf("metrics port %d collides with the relay port", m.MetricsPort))
		}
	}
	if m.GRPCHealthPort < 0 || m.GRPCHealthPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("grpc health port must be between 0-65535, got %d", m.GRPCHealthPort))
	}
	return result
}
