package app

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string `env:"APP_ENV,default=dev"`
	Port      string `env:"PORT,default=8080"`
	ClientURL string `env:"CLIENT_URL"`

	// Empty disables the room journal
	DBPath string `env:"ROOMSYNC_DB_PATH,default=./data/roomsync.db"`

	GracePeriod time.Duration `env:"ROOM_GRACE_PERIOD,default=60s"`
	DedupWindow time.Duration `env:"DEDUP_WINDOW,default=2s"`
	DedupDepth  int           `env:"DEDUP_DEPTH,default=64"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
	LogFile  string `env:"LOG_FILE"`

	JournalRetention   time.Duration `env:"JOURNAL_RETENTION,default=168h"`
	JournalKeep        int           `env:"JOURNAL_KEEP,default=1000"`
	CompactionInterval time.Duration `env:"COMPACTION_INTERVAL,default=5m"`

	APIRate  float64 `env:"API_RATE,default=20"`
	APIBurst int     `env:"API_BURST,default=40"`
}

// LoadConfig reads an optional .env file and then the environment. Values
// already set in the environment win over the file.
func LoadConfig(files ...string) (Config, error) {
	_ = godotenv.Load(files...)

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// AllowedOrigins splits CLIENT_URL on commas. Empty means any origin.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.ClientURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) validate() error {
	if c.GracePeriod <= 0 {
		return fmt.Errorf("config error: ROOM_GRACE_PERIOD must be positive, got %s", c.GracePeriod)
	}
	if c.DedupWindow < 0 {
		return fmt.Errorf("config error: DEDUP_WINDOW must not be negative, got %s", c.DedupWindow)
	}
	if c.APIRate <= 0 || c.APIBurst <= 0 {
		return fmt.Errorf("config error: API_RATE and API_BURST must be positive")
	}
	return nil
}
