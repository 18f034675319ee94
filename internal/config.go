package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	Host           string `env:"HOST,default=0.0.0.0"`
	HTTPPort       int    `env:"HTTP_PORT,default=8080"`
	GRPCPort       int    `env:"GRPC_PORT,default=9090"`
	DebugPort      int    `env:"DEBUG_PORT,default=8081"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	JWTSecret      string `env:"JWT_SECRET,required=true"`
	JWTIssuer      string `env:"JWT_ISSUER"`
	AuthCookieName string `env:"AUTH_COOKIE_NAME,default=agora_session"`
	InternalAPIKey string `env:"INTERNAL_API_KEY"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	ClusterURL     string `env:"CLUSTER_URL"`
	ClusterChannel string `env:"CLUSTER_CHANNEL,default=agora"`
	NodeID         string `env:"NODE_ID"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=128"`
	PingPeriod           time.Duration `env:"PING_PERIOD,default=30s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	MaxFrameBytes        int64         `env:"MAX_FRAME_BYTES,default=65536"`

	HistoryPageSize       int           `env:"HISTORY_PAGE_SIZE,default=20"`
	DebounceWindow        time.Duration `env:"DEBOUNCE_WINDOW,default=30s"`
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION,default=720h"`
	PushTimeout           time.Duration `env:"PUSH_TIMEOUT,default=5s"`
	PushEnabled           bool          `env:"PUSH_ENABLED,default=true"`
	PushTTL               time.Duration `env:"PUSH_TTL,default=24h"`
	VAPIDPublicKey        string        `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey       string        `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber       string        `env:"VAPID_SUBSCRIBER,default=ops@agora.local"`

	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MaxRestartBackoff time.Duration `env:"MAX_RESTART_BACKOFF,default=30s"`
	RestartBudget     int           `env:"RESTART_BUDGET,default=0"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=15s"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL,default=10m"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads an optional .env file then decodes the environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	switch {
	case c.HistoryPageSize <= 0:
		return fmt.Errorf("HISTORY_PAGE_SIZE must be positive, got %d", c.HistoryPageSize)
	case c.ConnectionBufferSize <= 0:
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	case c.PongTimeout <= c.PingPeriod:
		return fmt.Errorf("PONG_TIMEOUT (%s) must exceed PING_PERIOD (%s)", c.PongTimeout, c.PingPeriod)
	case len(c.JWTSecret) < 16:
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	case c.RestartBudget < 0:
		return fmt.Errorf("RESTART_BUDGET must not be negative, got %d", c.RestartBudget)
	case (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == ""):
		return fmt.Errorf("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY go together")
	}
	_, err := CharacterRune(c.CharReplacement)
	return err
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}

// Words splits CENSORED_WORDS on commas.
func (c Config) Words() []string {
	return splitList(c.CensoredWords)
}

// Origins splits ALLOWED_ORIGINS on commas. Empty means same-origin only.
func (c Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
