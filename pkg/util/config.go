package util

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config owns the externally provided knobs of the enrichment pipeline:
// service base urls, the shared request timeout, remote size limits and
// the per-column segmentation policy map.
type Config struct {
	OsrmAPIServer          string `mapstructure:"OSRM_API_URL" validate:"required,url"`
	OverpassAPIServer      string `mapstructure:"OVERPASS_API_URL" validate:"required,url"`
	OpenElevationAPIServer string `mapstructure:"OPEN_ELEVATION_API_URL" validate:"required,url"`

	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	OsrmLocationLimit int           `mapstructure:"OSRM_LOCATION_LIMIT" validate:"gt=0"`

	MatchConfidence float64 `mapstructure:"MATCH_CONFIDENCE" validate:"gte=0,lte=1"`
	MatchStrictMode bool    `mapstructure:"MATCH_STRICT_MODE"`

	NodeQueryWorkers int     `mapstructure:"NODE_QUERY_WORKERS" validate:"gt=0"`
	NodeQueryRate    float64 `mapstructure:"NODE_QUERY_RATE" validate:"gt=0"`

	DropUnwantedColumns bool `mapstructure:"DROP_UNWANTED_COLUMNS"`

	// column name -> "linear" | "nearest" | "once"
	SegmentationOptions map[string]string `mapstructure:"SEGMENTATION_OPTIONS"`

	TownsFile string `mapstructure:"TOWNS_FILE"`
}

func ReadConfig() (*Config, error) {
	viper.SetDefault("OSRM_API_URL", "http://viroco.nti.tul.cz:5555")
	viper.SetDefault("OVERPASS_API_URL", "http://viroco.nti.tul.cz:12345")
	viper.SetDefault("OPEN_ELEVATION_API_URL", "http://viroco.nti.tul.cz:8080")
	viper.SetDefault("REQUEST_TIMEOUT", "30s")
	viper.SetDefault("OSRM_LOCATION_LIMIT", 20000)
	viper.SetDefault("MATCH_CONFIDENCE", 0.8)
	viper.SetDefault("MATCH_STRICT_MODE", false)
	viper.SetDefault("NODE_QUERY_WORKERS", 8)
	viper.SetDefault("NODE_QUERY_RATE", 20.0)
	viper.SetDefault("DROP_UNWANTED_COLUMNS", true)
	viper.SetDefault("TOWNS_FILE", "towns_eu_reduce.csv")

	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return nil, WrapErrorf(err, ErrBadParamInput, "invalid config")
	}

	return &config, nil
}
