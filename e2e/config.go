package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// GATEWAY_HTTP_ADDR is the base url of a running gateway, e.g. http://localhost:8080.
	// The suites skip when it is empty.
	GatewayHTTP string `envconfig:"GATEWAY_HTTP_ADDR"`
	GatewayGRPC string `envconfig:"GATEWAY_GRPC_ADDR" default:"localhost:9090"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	JWTIssuer   string `envconfig:"JWT_ISSUER"`
	InternalKey string `envconfig:"INTERNAL_API_KEY"`
	// E2E_DEBUG_JSON dumps gRPC request/response bodies and websocket frames
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
