package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "NOTEBOOKLM"
	// Dir is the per-user directory holding config, task ledger and secrets.
	Dir = ".notebooklm"
)

const (
	keyLogLevel          = "log.level"
	keyDebugRPC          = "debug_rpc"
	keyBaseURL           = "service.base_url"
	keyBatchPath         = "service.batch_path"
	keyLanguage          = "service.language"
	keyBuildLabel        = "service.build_label"
	keyHTTPTimeout       = "http.timeout"
	keyMaxResponseSize   = "http.max_response_size"
	keyRefreshDelay      = "refresh.delay"
	keyRefreshTimeout    = "refresh.timeout"
	keyPollInterval      = "poll.interval"
	keyPollMaxBackoff    = "poll.max_backoff"
	keyPollTimeout       = "poll.timeout"
	keyStatusGeneration  = "poll.status.generation"
	keyStatusResearch    = "poll.status.research"
	keyRateLimitCodes    = "poll.rate_limit.codes"
	keyRateLimitReasons  = "poll.rate_limit.reasons"
	keyMethodOverrides   = "methods.overrides"
	keyTasksPath         = "storage.tasks_path"
	keySecretsFileRoot   = "secrets.file_root"
	keySecretsBundleKey  = "secrets.bundle_key"
	keyMetricsAddr       = "metrics.addr"
	defaultBaseURL       = "https://notebooklm.google.com"
	defaultBatchPath     = "/_/LabsTailwindUi/data/batchexecute"
	defaultBundleKey     = "notebooklm/storage_state"
	defaultMaxResponse   = "16MB"
	userDisplayableError = "USER_DISPLAYABLE_ERROR"
)

type Config struct {
	LogLevel        string
	Service         ServiceConfig
	HTTP            HTTPConfig
	Refresh         RefreshConfig
	Poll            PollConfig
	MethodOverrides map[string]string
	TasksPath       string
	SecretsRoot     string
	BundleKey       string
	MetricsAddr     string
}

type ServiceConfig struct {
	BaseURL    string
	BatchPath  string
	Language   string
	BuildLabel string
}

type HTTPConfig struct {
	Timeout         time.Duration
	MaxResponseSize datasize.ByteSize
}

type RefreshConfig struct {
	Delay   time.Duration
	Timeout time.Duration
}

type PollConfig struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Timeout    time.Duration
	Status     map[domain.TaskKind]StatusTable
	RateLimit  RateLimitPolicy
}

// Load reads ~/.notebooklm/config.toml when present and layers NOTEBOOKLM_*
// environment variables over the defaults.
func Load(v *viper.Viper, homeDir string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	if homeDir == "" {
		return Config{}, errors.New("home directory is empty")
	}

	configDir := filepath.Join(homeDir, Dir)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault(keyLogLevel, "off")
	v.SetDefault(keyDebugRPC, false)
	v.SetDefault(keyBaseURL, defaultBaseURL)
	v.SetDefault(keyBatchPath, defaultBatchPath)
	v.SetDefault(keyLanguage, "en")
	v.SetDefault(keyBuildLabel, "")
	v.SetDefault(keyHTTPTimeout, 30*time.Second)
	v.SetDefault(keyMaxResponseSize, defaultMaxResponse)
	v.SetDefault(keyRefreshDelay, 200*time.Millisecond)
	v.SetDefault(keyRefreshTimeout, 30*time.Second)
	v.SetDefault(keyPollInterval, 2*time.Second)
	v.SetDefault(keyPollMaxBackoff, 30*time.Second)
	v.SetDefault(keyPollTimeout, 5*time.Minute)
	v.SetDefault(keyStatusGeneration, map[string]string{
		"1": string(domain.TaskStateProcessing),
		"2": string(domain.TaskStatePending),
		"3": string(domain.TaskStateCompleted),
		"4": string(domain.TaskStateFailed),
	})
	v.SetDefault(keyStatusResearch, map[string]string{
		"1": string(domain.TaskStateProcessing),
		"2": string(domain.TaskStateCompleted),
		"6": string(domain.TaskStateCompleted),
	})
	v.SetDefault(keyRateLimitCodes, []int{429, 8})
	v.SetDefault(keyRateLimitReasons, []string{userDisplayableError})
	v.SetDefault(keyMethodOverrides, map[string]string{})
	v.SetDefault(keyTasksPath, filepath.Join(configDir, "tasks.toml"))
	v.SetDefault(keySecretsFileRoot, filepath.Join(configDir, "secrets"))
	v.SetDefault(keySecretsBundleKey, defaultBundleKey)
	v.SetDefault(keyMetricsAddr, "")
}

func decode(v *viper.Viper) (Config, error) {
	logLevel := strings.ToLower(strings.TrimSpace(v.GetString(keyLogLevel)))
	if v.GetBool(keyDebugRPC) {
		logLevel = "debug"
	}

	var maxResponse datasize.ByteSize
	if err := maxResponse.UnmarshalText([]byte(v.GetString(keyMaxResponseSize))); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", keyMaxResponseSize, err)
	}

	generation, err := ParseStatusTable(v.GetStringMapString(keyStatusGeneration))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", keyStatusGeneration, err)
	}
	research, err := ParseStatusTable(v.GetStringMapString(keyStatusResearch))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", keyStatusResearch, err)
	}

	codes, err := cast.ToIntSliceE(v.Get(keyRateLimitCodes))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", keyRateLimitCodes, err)
	}

	cfg := Config{
		LogLevel: logLevel,
		Service: ServiceConfig{
			BaseURL:    strings.TrimRight(v.GetString(keyBaseURL), "/"),
			BatchPath:  v.GetString(keyBatchPath),
			Language:   v.GetString(keyLanguage),
			BuildLabel: v.GetString(keyBuildLabel),
		},
		HTTP: HTTPConfig{
			Timeout:         v.GetDuration(keyHTTPTimeout),
			MaxResponseSize: maxResponse,
		},
		Refresh: RefreshConfig{
			Delay:   v.GetDuration(keyRefreshDelay),
			Timeout: v.GetDuration(keyRefreshTimeout),
		},
		Poll: PollConfig{
			Interval:   v.GetDuration(keyPollInterval),
			MaxBackoff: v.GetDuration(keyPollMaxBackoff),
			Timeout:    v.GetDuration(keyPollTimeout),
			Status: map[domain.TaskKind]StatusTable{
				domain.TaskKindGeneration: generation,
				domain.TaskKindResearch:   research,
			},
			RateLimit: RateLimitPolicy{
				Codes:   codes,
				Reasons: v.GetStringSlice(keyRateLimitReasons),
			},
		},
		MethodOverrides: v.GetStringMapString(keyMethodOverrides),
		TasksPath:       v.GetString(keyTasksPath),
		SecretsRoot:     v.GetString(keySecretsFileRoot),
		BundleKey:       v.GetString(keySecretsBundleKey),
		MetricsAddr:     v.GetString(keyMetricsAddr),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LogLevel {
	case "off", "info", "debug":
	default:
		return fmt.Errorf("invalid %s %q (want off, info or debug)", keyLogLevel, c.LogLevel)
	}
	if c.Service.BaseURL == "" {
		return fmt.Errorf("%s is empty", keyBaseURL)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", keyHTTPTimeout)
	}
	if c.Refresh.Delay < 0 {
		return fmt.Errorf("%s must not be negative", keyRefreshDelay)
	}
	if c.Poll.Interval <= 0 || c.Poll.Timeout <= 0 {
		return errors.New("poll interval and timeout must be positive")
	}
	if c.Poll.MaxBackoff < c.Poll.Interval {
		return fmt.Errorf("%s must be at least %s", keyPollMaxBackoff, keyPollInterval)
	}
	return nil
}
