package backtest

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/flxgn/buyTheBoop/pkg/errors"
	"github.com/flxgn/buyTheBoop/pkg/strategy"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v2"
)

const defaultBufferSize = 64

// Config holds the recognized simulation options.
type Config struct {
	// Pair labels the traded pair in events and reports.
	Pair string `yaml:"pair" json:"pair" validate:"required" jsonschema:"title=Pair,description=Traded pair label"`
	// WindowSize is the number of prices in the sliding window.
	WindowSize int `yaml:"window_size" json:"window_size" validate:"required,min=1" jsonschema:"title=Window Size,description=Number of prices in the sliding window,minimum=1"`
	// BandOffset widens the trigger corridor around the average, in
	// absolute price units.
	BandOffset float64 `yaml:"band_offset" json:"band_offset" validate:"min=0" jsonschema:"title=Band Offset,description=Absolute offset of the bands around the average,minimum=0"`
	// InitialCash seeds both the traded and the baseline account.
	InitialCash float64 `yaml:"initial_cash" json:"initial_cash" validate:"min=0" jsonschema:"title=Initial Cash,description=Starting capital for the simulation,minimum=0"`
	// TriggerLine selects the comparison line for crossing detection.
	TriggerLine strategy.TriggerLine `yaml:"trigger_line" json:"trigger_line" validate:"oneof=average band" jsonschema:"title=Trigger Line,description=Comparison line for crossing detection"`
	// BufferSize is the capacity of the channels between stages.
	BufferSize int `yaml:"buffer_size" json:"buffer_size" validate:"min=1" jsonschema:"title=Buffer Size,description=Capacity of the channels between stages,minimum=1"`
	// StartTime optionally drops points before this instant.
	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the simulated period"`
	// EndTime optionally drops points after this instant.
	EndTime optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the simulated period"`
}

// UnmarshalYAML implements custom unmarshaling for Config
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		Pair        string               `yaml:"pair"`
		WindowSize  int                  `yaml:"window_size"`
		BandOffset  float64              `yaml:"band_offset"`
		InitialCash float64              `yaml:"initial_cash"`
		TriggerLine strategy.TriggerLine `yaml:"trigger_line"`
		BufferSize  int                  `yaml:"buffer_size"`
		StartTime   *time.Time           `yaml:"start_time"`
		EndTime     *time.Time           `yaml:"end_time"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.Pair = raw.Pair
	c.WindowSize = raw.WindowSize
	c.BandOffset = raw.BandOffset
	c.InitialCash = raw.InitialCash
	c.TriggerLine = raw.TriggerLine
	c.BufferSize = raw.BufferSize

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// ParseConfig unmarshals and validates a YAML configuration, applying
// defaults for omitted fields.
func ParseConfig(content string) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, "failed to parse config", err)
	}

	if config.TriggerLine == "" {
		config.TriggerLine = strategy.TriggerAverage
	}

	if config.BufferSize == 0 {
		config.BufferSize = defaultBufferSize
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the configuration against its constraints.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, "invalid config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfig, "end_time precedes start_time")
	}

	return nil
}

// DefaultConfig returns a Config with default values. WindowSize and
// InitialCash have no meaningful defaults and must be set explicitly.
func DefaultConfig() Config {
	return Config{
		Pair:        "BTC/USDT",
		WindowSize:  0,
		BandOffset:  0,
		InitialCash: 0,
		TriggerLine: strategy.TriggerAverage,
		BufferSize:  defaultBufferSize,
		StartTime:   optional.None[time.Time](),
		EndTime:     optional.None[time.Time](),
	}
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "strategy.TriggerLine") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: strategy.AllTriggerLines,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for the crossover backtest"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
