package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Tracker  *trackerConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"narration"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"NARRATION_PLANNER_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"NARRATION_PLANNER_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string `envconfig:"NARRATION_PLANNER_BASE_URL" default:"http://localhost:3443"`
	LogLevel        string `envconfig:"NARRATION_PLANNER_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"NARRATION_PLANNER_MIGRATIONS_FOLDER" default:""`
	// GenerateInterval is the cadence at which the generation worker drains
	// queued jobs.
	GenerateInterval time.Duration `envconfig:"NARRATION_PLANNER_GENERATE_INTERVAL" default:"1s"`
}

// trackerConfig holds the client-side cadences of the job tracker.
type trackerConfig struct {
	// PollInterval is the per-job status poll cadence.
	PollInterval time.Duration `envconfig:"NARRATION_PLANNER_POLL_INTERVAL" default:"2s"`
	// ResyncInterval is the cadence of the whole-list reconciliation.
	ResyncInterval time.Duration `envconfig:"NARRATION_PLANNER_RESYNC_INTERVAL" default:"30s"`
	// RequestTimeout bounds every single request issued by the tracker.
	RequestTimeout time.Duration `envconfig:"NARRATION_PLANNER_REQUEST_TIMEOUT" default:"60s"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns the configuration built only from defaults, ignoring
// the environment. Used by tests.
func NewDefault() *Config {
	cfg := &Config{
		Database: &dbConfig{Type: "sqlite", Name: ":memory:"},
		Service:  &svcConfig{Address: "localhost:0", LogLevel: "debug", GenerateInterval: time.Second},
		Tracker: &trackerConfig{
			PollInterval:   2 * time.Second,
			ResyncInterval: 30 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
	}
	return cfg
}
