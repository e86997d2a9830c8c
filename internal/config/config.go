package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/viper"
)

const (
	configName    = "config"
	configType    = "toml"
	defaultDir    = ".eziii"
	stateFileName = "state.toml"
	secretsDir    = "secrets"
	envPrefix     = "EZ_"
)

// ClientConfig is built once at startup and handed to every component that
// needs a base URL, a storage location or a key namespace.
type ClientConfig struct {
	APIBaseURL    string `env:"EZ_API_BASE_URL, default=http://127.0.0.1:8000/api" validate:"required,url"`
	PortalBaseURL string `env:"EZ_PORTAL_BASE_URL, default=http://127.0.0.1:8000" validate:"required,url"`
	// Namespace prefixes every durable key so several backends can share one store.
	Namespace string `env:"EZ_NAMESPACE, default=eziii" validate:"required"`

	Dir            string `env:"EZ_CONFIG_DIR"`
	StatePath      string `env:"EZ_STATE_PATH"`
	SecretsDir     string `env:"EZ_SECRETS_DIR"`
	SecretsBackend string `env:"EZ_SECRETS_BACKEND, default=auto" validate:"oneof=auto file pass"`
	StateBackend   string `env:"EZ_STATE_BACKEND, default=toml" validate:"oneof=toml redis"`

	Redis RedisConfig

	RequestTimeout time.Duration `env:"EZ_REQUEST_TIMEOUT, default=30s" validate:"gt=0"`
	LogLevel       string        `env:"EZ_LOG_LEVEL, default=warn"`
	LogPretty      bool          `env:"EZ_LOG_PRETTY, default=true"`
	MetricsFile    string        `env:"EZ_METRICS_FILE"`
}

type RedisConfig struct {
	Addr     string `env:"EZ_REDIS_ADDR, default=127.0.0.1:6379"`
	Password string `env:"EZ_REDIS_PASSWORD"`
	DB       int    `env:"EZ_REDIS_DB, default=0" validate:"gte=0"`
}

// Load resolves the configuration from env (the process environment when
// nil), falling back to <dir>/config.toml and then to the built-in defaults.
// File keys map to variables by upper-casing and prefixing with EZ_, so
// api_base_url sets EZ_API_BASE_URL and [redis] addr sets EZ_REDIS_ADDR.
func Load(ctx context.Context, env envconfig.Lookuper) (ClientConfig, error) {
	if env == nil {
		env = envconfig.OsLookuper()
	}

	dir, err := resolveDir(env)
	if err != nil {
		return ClientConfig{}, err
	}

	fileValues, err := readConfigFile(dir)
	if err != nil {
		return ClientConfig{}, err
	}

	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MultiLookuper(env, envconfig.MapLookuper(fileValues)),
	}); err != nil {
		return ClientConfig{}, fmt.Errorf("process config: %w", err)
	}

	cfg.Dir = dir
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(dir, stateFileName)
	}
	if cfg.SecretsDir == "" {
		cfg.SecretsDir = filepath.Join(dir, secretsDir)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.PortalBaseURL = strings.TrimRight(cfg.PortalBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c ClientConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func resolveDir(env envconfig.Lookuper) (string, error) {
	if dir, ok := env.Lookup(envPrefix + "CONFIG_DIR"); ok && strings.TrimSpace(dir) != "" {
		return normalizePath(dir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, defaultDir), nil
}

func readConfigFile(dir string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	values := make(map[string]string, len(v.AllKeys()))
	for _, key := range v.AllKeys() {
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		values[name] = v.GetString(key)
	}

	return values, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}

	return filepath.Clean(absPath), nil
}
