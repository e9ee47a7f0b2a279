package config

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/HaPhanBaoMinh/sre/help"
	"github.com/HaPhanBaoMinh/sre/internal/domain"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type ScaleConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	Timeout      time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config mirrors $HOME/.sre/config.yaml. Command-line flags override it.
type Config struct {
	Kubeconfig     string        `yaml:"kubeconfig"`
	Context        string        `yaml:"context"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	Output         string        `yaml:"output"`
	Scale          ScaleConfig   `yaml:"scale"`
	Logging        LoggingConfig `yaml:"logging"`
}

func Default() *Config {
	return &Config{
		RequestTimeout: 30 * time.Second,
		Output:         OutputText,
		Scale: ScaleConfig{
			PollInterval: 2 * time.Second,
			Timeout:      120 * time.Second,
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

func DefaultPath() string {
	return filepath.Join(help.HomeDir(), ".sre", "config.yaml")
}

// LoadConfig reads filePath over the defaults. A missing file is not an error.
func LoadConfig(filePath string) (*Config, error) {
	config := Default()
	file, err := os.Open(help.ExpandHome(filePath))
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening config file")
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "decoding config file %s", filePath)
	}
	config.Kubeconfig = help.ExpandHome(config.Kubeconfig)
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config file %s", filePath)
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return invalid("output must be one of text, json, yaml; got %q", c.Output)
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return invalid("logging.level must be one of %s; got %q", strings.Join(logLevels, ", "), c.Logging.Level)
	}
	if c.RequestTimeout <= 0 {
		return invalid("requestTimeout must be positive, got %s", c.RequestTimeout)
	}
	if c.Scale.PollInterval <= 0 {
		return invalid("scale.pollInterval must be positive, got %s", c.Scale.PollInterval)
	}
	if c.Scale.Timeout <= 0 {
		return invalid("scale.timeout must be positive, got %s", c.Scale.Timeout)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), domain.ErrInvalidArgument)
}

var logLevels = []string{"debug", "info", "warn", "error", "none"}

func ParseLevel(lvl string) zapcore.Level {
	var level zapcore.Level
	switch lvl {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	case "none":
		level = zapcore.PanicLevel
	default:
		level = zapcore.InfoLevel
	}
	return level
}
