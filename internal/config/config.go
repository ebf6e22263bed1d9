package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"focusync/internal/utils"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	_ "embed"
)

var configOnce sync.Once

var (
	globalConfig *Config
	configErr    error
)

var customConfigPath string // Custom config path set via --config flag

//go:embed config.sample.yaml
var sampleConfig []byte

const (
	CONFIG_DIR_PATH  = utils.AppName
	CONFIG_FILE_PATH = "config.yaml"
	CONFIG_DIR_PERM  = 0755
	CONFIG_FILE_PERM = 0644
)

// Config represents the application configuration.
type Config struct {
	Remote  RemoteConfig  `yaml:"remote"`
	Storage StorageConfig `yaml:"storage"`
	Sync    SyncConfig    `yaml:"sync"`
	Verbose bool          `yaml:"verbose"`
}

// RemoteConfig locates the hosted database
type RemoteConfig struct {
	Name     string        `yaml:"name" validate:"required,alphanum"`
	URL      string        `yaml:"url" validate:"required,url"`
	Username string        `yaml:"username,omitempty"` // keyring account
	Timeout  time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// StorageConfig selects the offline store
type StorageConfig struct {
	Driver    string `yaml:"driver,omitempty" validate:"omitempty,oneof=sqlite memory"`
	Path      string `yaml:"path,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	MaxBytes  int64  `yaml:"max_bytes,omitempty" validate:"gte=0"`
	Compress  bool   `yaml:"compress"`
}

// SyncConfig tunes the flush engine and coordinator
type SyncConfig struct {
	Enabled         bool            `yaml:"enabled"`
	RetryDelays     []time.Duration `yaml:"retry_delays,omitempty" validate:"max=10,dive,gte=0"`
	MaxPerFlush     int             `yaml:"max_per_flush,omitempty" validate:"gte=0"`
	Interval        time.Duration   `yaml:"interval,omitempty" validate:"gte=0"`
	ProbeTimeout    time.Duration   `yaml:"probe_timeout,omitempty" validate:"gte=0"`
	BackgroundFlush bool            `yaml:"background_flush"`
	OfflineUserID   string          `yaml:"offline_user_id,omitempty"`
}

// Defaults applied by ApplyDefaults
const (
	DefaultSyncInterval = 5 * time.Minute
	DefaultProbeTimeout = 3 * time.Second
)

// Validate checks field constraints
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := strings.ToLower(strings.TrimPrefix(verrs[0].Namespace(), "Config."))
			return utils.ErrInvalidConfig(field, fmt.Sprintf("failed '%s' check", verrs[0].Tag()))
		}
		return err
	}
	return nil
}

// ApplyDefaults fills unset fields and expands paths
func (c *Config) ApplyDefaults() error {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" {
		path, err := utils.DefaultDatabasePath()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		c.Storage.Path = path
	}
	path, err := utils.ExpandPath(c.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to expand storage.path: %w", err)
	}
	c.Storage.Path = path

	if c.Storage.Namespace == "" {
		c.Storage.Namespace = utils.AppName
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.Sync.ProbeTimeout == 0 {
		c.Sync.ProbeTimeout = DefaultProbeTimeout
	}
	return nil
}

// SetCustomConfigPath sets a custom config path to use instead of the default user config directory.
// If path is empty or ".", it uses "./focusync/config.yaml" (current directory).
// If path is a directory, it looks for "config.yaml" inside it.
// If path is a file, it uses that file directly.
// This must be called before GetConfig() is called for the first time.
func SetCustomConfigPath(path string) {
	if path == "" || path == "." {
		customConfigPath = filepath.Join(".", CONFIG_DIR_PATH, CONFIG_FILE_PATH)
		return
	}
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		customConfigPath = filepath.Join(path, CONFIG_FILE_PATH)
	} else {
		customConfigPath = path
	}
}

// GetConfig loads the configuration once per process
func GetConfig() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = loadUserOrSampleConfig()
	})
	return globalConfig, configErr
}

func loadUserOrSampleConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	configData, err := configDataFromPath(configPath)
	if err != nil {
		return nil, err
	}
	return parseConfig(configData, configPath)
}

// GetConfigPath returns the custom path when set, else the XDG config path
func GetConfigPath() (string, error) {
	if customConfigPath != "" {
		return customConfigPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, CONFIG_FILE_PATH), nil
}

// LoadFromPath reads, defaults and validates the config file at path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, utils.ErrConfigFileNotFound(path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return parseConfig(data, path)
}

// SampleConfig returns the embedded sample configuration
func SampleConfig() []byte {
	return append([]byte(nil), sampleConfig...)
}

func createConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), CONFIG_DIR_PERM)
}

func WriteConfigFile(configPath string, data []byte) error {
	return os.WriteFile(configPath, data, CONFIG_FILE_PERM)
}

func createConfigFromSample(configPath string) ([]byte, error) {
	if err := createConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := WriteConfigFile(configPath, sampleConfig); err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}
	return sampleConfig, nil
}

func parseConfig(configData []byte, configPath string) (*Config, error) {
	var configObj Config
	if err := yaml.Unmarshal(configData, &configObj); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file %s: %w", configPath, err)
	}
	if err := configObj.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := configObj.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	return &configObj, nil
}

// configDataFromPath reads the config file. A missing file is offered to be
// created from the sample when running interactively; otherwise the sample
// is used in memory.
func configDataFromPath(configPath string) ([]byte, error) {
	configData, err := os.ReadFile(configPath)
	if err == nil {
		return configData, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	utils.Warnf("No config exists at %s", configPath)
	if utils.IsInteractive() && utils.PromptYesNo("Do you want to copy config sample to "+configPath+"?") {
		return createConfigFromSample(configPath)
	}
	return sampleConfig, nil
}
