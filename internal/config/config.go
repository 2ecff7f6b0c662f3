package config

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`

	// DataSource is "json" (DataPath is a URL or file) or "postgres".
	DataSource     string `mapstructure:"DATA_SOURCE"`
	DataPath       string `mapstructure:"DATA_PATH"`
	TrackIndexPath string `mapstructure:"TRACK_INDEX_PATH"`
	TrackProxy     string `mapstructure:"TRACK_PROXY"`

	TrackFetchRPS       float64       `mapstructure:"TRACK_FETCH_RPS"`
	TrackCacheTTL       time.Duration `mapstructure:"TRACK_CACHE_TTL"`
	GeometryConcurrency int           `mapstructure:"GEOMETRY_CONCURRENCY"`
	BootstrapTimeout    time.Duration `mapstructure:"BOOTSTRAP_TIMEOUT"`
	ViewerIdleTimeout   time.Duration `mapstructure:"VIEWER_IDLE_TIMEOUT"`

	PageLength    int `mapstructure:"PAGE_LENGTH"`
	FitMaxZoom    int `mapstructure:"FIT_MAX_ZOOM"`
	FitPadding    int `mapstructure:"FIT_PADDING"`
	FitDurationMs int `mapstructure:"FIT_DURATION_MS"`
}

var loadDotEnv = godotenv.Load

// Load reads the configuration from the environment, after a .env file in
// the working directory when there is one. Variables already set win.
func Load() Config {
	cfg, _ := load(nil)
	return cfg
}

// LoadArgs is Load with command-line flags layered over the environment.
func LoadArgs(args []string) (Config, error) {
	flags := pflag.NewFlagSet("opotopo", pflag.ContinueOnError)
	flags.String("port", "", "listen address, e.g. :8080")
	flags.String("data", "", "dataset URL or file")
	flags.String("data-source", "", "catalogue source: json or postgres")
	flags.String("tracks", "", "track index URL or file")
	flags.Int("page-length", 0, "rows per table page")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	return load(flags)
}

func load(flags *pflag.FlagSet) (Config, error) {
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("ignoring .env: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")

	v.SetDefault("DATA_SOURCE", "json")
	v.SetDefault("DATA_PATH", "randonnees_enrich.json")
	v.SetDefault("TRACK_INDEX_PATH", "gpx_urls.json")
	v.SetDefault("TRACK_PROXY", "https://corsproxy.io/?")

	v.SetDefault("TRACK_FETCH_RPS", 5.0)
	v.SetDefault("TRACK_CACHE_TTL", 24*time.Hour)
	v.SetDefault("GEOMETRY_CONCURRENCY", 4)
	v.SetDefault("BOOTSTRAP_TIMEOUT", 30*time.Second)
	v.SetDefault("VIEWER_IDLE_TIMEOUT", 2*time.Hour)

	v.SetDefault("PAGE_LENGTH", 10)
	v.SetDefault("FIT_MAX_ZOOM", 12)
	v.SetDefault("FIT_PADDING", 50)
	v.SetDefault("FIT_DURATION_MS", 1000)

	if flags != nil {
		for key, flag := range map[string]string{
			"SERVER_PORT":      "port",
			"DATA_PATH":        "data",
			"DATA_SOURCE":      "data-source",
			"TRACK_INDEX_PATH": "tracks",
			"PAGE_LENGTH":      "page-length",
		} {
			if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
				return Config{}, err
			}
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg)
	return cfg, err
}
