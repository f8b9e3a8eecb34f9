package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yok-tottii/cry-interpreter/internal/audio"
	"github.com/yok-tottii/cry-interpreter/internal/classifier"
	"github.com/yok-tottii/cry-interpreter/internal/logger"
)

// EnvPrefix prefixes environment overrides, e.g. CRYINT_THRESHOLD=0.3
const EnvPrefix = "CRYINT"

const (
	minInterval = 100 * time.Millisecond
	maxInterval = 60 * time.Second
)

// Config holds application configuration
type Config struct {
	ModelPath     string       `yaml:"model_path" mapstructure:"model_path"`
	Labels        []string     `yaml:"labels" mapstructure:"labels"`
	Threshold     float64      `yaml:"threshold" mapstructure:"threshold"`
	IntervalMS    int          `yaml:"interval_ms" mapstructure:"interval_ms"`
	AudioDeviceID int          `yaml:"audio_device_id" mapstructure:"audio_device_id"` // -1 for the system default
	Latency       string       `yaml:"latency" mapstructure:"latency"`                 // "low" or "high"
	Hotkey        HotkeyConfig `yaml:"hotkey" mapstructure:"hotkey"`
	LogLevel      string       `yaml:"log_level" mapstructure:"log_level"`
	Display       string       `yaml:"display" mapstructure:"display"` // "tray" or "console"
	mu            sync.RWMutex
}

// HotkeyConfig holds the start/stop toggle hotkey
type HotkeyConfig struct {
	Ctrl  bool   `yaml:"ctrl" mapstructure:"ctrl"`
	Shift bool   `yaml:"shift" mapstructure:"shift"`
	Alt   bool   `yaml:"alt" mapstructure:"alt"`
	Cmd   bool   `yaml:"cmd" mapstructure:"cmd"`
	Key   string `yaml:"key" mapstructure:"key"` // e.g., "Space"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ModelPath:     "", // Empty by default - user must specify
		Labels:        []string{"Tired", "Burping", "Discomfort", "Hungry", "Belly Pain"},
		Threshold:     0.20,
		IntervalMS:    1000,
		AudioDeviceID: -1,
		Latency:       "high",
		Hotkey: HotkeyConfig{
			Ctrl: true,
			Alt:  true,
			Key:  "Space",
		},
		LogLevel: "info",
		Display:  "tray",
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("model_path", d.ModelPath)
	v.SetDefault("labels", d.Labels)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("interval_ms", d.IntervalMS)
	v.SetDefault("audio_device_id", d.AudioDeviceID)
	v.SetDefault("latency", d.Latency)
	v.SetDefault("hotkey.ctrl", d.Hotkey.Ctrl)
	v.SetDefault("hotkey.shift", d.Hotkey.Shift)
	v.SetDefault("hotkey.alt", d.Hotkey.Alt)
	v.SetDefault("hotkey.cmd", d.Hotkey.Cmd)
	v.SetDefault("hotkey.key", d.Hotkey.Key)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("display", d.Display)
}

// Load loads configuration from the specified path.
// A .env file next to the config file or in the working directory is read
// first; CRYINT_* variables override file values.
func Load(path string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")
	return LoadFs(afero.NewOsFs(), path)
}

// loadDotEnv loads the .env files that exist. Variables already set win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// LoadFs is Load on an arbitrary filesystem, without .env handling
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// If file doesn't exist, defaults and environment apply
	if path != "" {
		if _, err := fs.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to check config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Hotkey.Key == "" {
		config.Hotkey.Key = "Space"
	}

	return config, nil
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "cry-interpreter", "config.yaml")
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		ModelPath:     c.ModelPath,
		Labels:        append([]string(nil), c.Labels...),
		Threshold:     c.Threshold,
		IntervalMS:    c.IntervalMS,
		AudioDeviceID: c.AudioDeviceID,
		Latency:       c.Latency,
		Hotkey:        c.Hotkey,
		LogLevel:      c.LogLevel,
		Display:       c.Display,
	}
}

// Interval returns the tick interval
func (c *Config) Interval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return time.Duration(c.IntervalMS) * time.Millisecond
}

// AudioConfig returns the microphone settings
func (c *Config) AudioConfig() audio.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config := audio.DefaultConfig()
	config.DeviceID = c.AudioDeviceID
	if c.Latency == "low" {
		config.Latency = audio.LowLatency
	}
	return config
}

// SetAudioDeviceID selects the input device; -1 is the system default
func (c *Config) SetAudioDeviceID(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.AudioDeviceID = id
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// GetModelPath returns the expanded model path
func (c *Config) GetModelPath() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ExpandPath(c.ModelPath)
}

// ValidateModelPath validates the model file path
func (c *Config) ValidateModelPath(fs afero.Fs) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ModelPath == "" {
		return fmt.Errorf("model path is not set")
	}

	expandedPath, err := ExpandPath(c.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to expand model path: %w", err)
	}

	info, err := fs.Stat(expandedPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", expandedPath)
	}
	if err != nil {
		return fmt.Errorf("failed to check model file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("model path is a directory, not a file: %s", expandedPath)
	}

	if !classifier.IsValidModelExtension(expandedPath) {
		return fmt.Errorf("model file must have .eim extension: %s", expandedPath)
	}

	return nil
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.Labels) == 0 {
		return fmt.Errorf("labels cannot be empty")
	}
	for i, label := range c.Labels {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("label %d is empty", i)
		}
		for _, other := range c.Labels[:i] {
			if strings.EqualFold(label, other) {
				return fmt.Errorf("duplicate label: %s", label)
			}
		}
	}

	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("invalid threshold: %v (must be in [0, 1))", c.Threshold)
	}

	interval := time.Duration(c.IntervalMS) * time.Millisecond
	if interval < minInterval || interval > maxInterval {
		return fmt.Errorf("invalid interval_ms: %d (must be between %d and %d)",
			c.IntervalMS, minInterval.Milliseconds(), maxInterval.Milliseconds())
	}

	if c.AudioDeviceID < -1 {
		return fmt.Errorf("invalid audio_device_id: %d", c.AudioDeviceID)
	}

	if c.Latency != "low" && c.Latency != "high" {
		return fmt.Errorf("invalid latency: %s (must be 'low' or 'high')", c.Latency)
	}

	if c.Display != "tray" && c.Display != "console" {
		return fmt.Errorf("invalid display: %s (must be 'tray' or 'console')", c.Display)
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	if c.Hotkey.Key == "" {
		return fmt.Errorf("hotkey key cannot be empty")
	}

	// Model path validation is separate (can be empty until the user picks a model)
	return nil
}
