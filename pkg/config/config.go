package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every configuration environment variable
const EnvPrefix = "SNAPBACK_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// Runner configures the external command runner
type Runner struct {
	Timeout    time.Duration `koanf:"timeout"`
	PowerShell string        `koanf:"powershell"`
}

// Store configures the snapshot store
type Store struct {
	// Dir overrides the snapshot directory under the data dir
	Dir            string `koanf:"dir"`
	ValidateSchema bool   `koanf:"validate_schema"`
}

// Restore configures restore defaults
type Restore struct {
	DryRun bool `koanf:"dry_run"`
}

// Settings is a list of setting names captured by default
type Settings struct {
	Settings []string `koanf:"settings"`
}

// Config is the fully merged configuration
type Config struct {
	Runner  Runner   `koanf:"runner"`
	Store   Store    `koanf:"store"`
	Restore Restore  `koanf:"restore"`
	Network Settings `koanf:"network"`
	TcpIp   Settings `koanf:"tcpip"`
}

// rawBytesProvider implements koanf.Provider for embedded bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// envKey maps SNAPBACK_STORE_VALIDATE_SCHEMA to store.validate_schema.
// Only the first underscore separates the section.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Load merges the built-in defaults, the file at configFile (skipped when
// empty or missing) and the environment
func Load(configFile string) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load built-in defaults")
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", configFile).
					WithDetail("path", configFile)
			}
			logger.Debug().Str("path", configFile).Msg("Config file loaded")
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to stat config %s", configFile)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
	}

	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Runner.Timeout <= 0 {
		return errors.Newf(errors.ErrConfigParse, "runner.timeout must be positive, got %s", c.Runner.Timeout)
	}
	if strings.TrimSpace(c.Runner.PowerShell) == "" {
		return errors.New(errors.ErrConfigParse, "runner.powershell must not be empty")
	}
	return nil
}

// Default returns the built-in configuration without reading the
// environment or any file
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		panic("invalid built-in config: " + err.Error())
	}
	cfg, err := unmarshal(k)
	if err != nil {
		panic("invalid built-in config: " + err.Error())
	}
	return cfg
}

// DefaultContent returns the built-in defaults file, used by
// `snapback config` to seed a user file
func DefaultContent() string {
	return string(defaultConfig)
}
