package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScreenConfig describes the panel geometry and border.
type ScreenConfig struct {
	// Width and Height are the panel dimensions in pixels. Width must
	// be a multiple of 8.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// Border selects the border waveform color: "white", "black" or
	// "red".
	Border string `yaml:"border" json:"border"`
}

// PanelConfig names the SPI port and GPIO lines wired to the panel.
type PanelConfig struct {
	// SPI is the periph.io spireg port name. Empty selects the default
	// port.
	SPI string `yaml:"spi" json:"spi"`
	// DC, RST and Busy are periph.io gpioreg pin names.
	DC   string `yaml:"dc" json:"dc"`
	RST  string `yaml:"rst" json:"rst"`
	Busy string `yaml:"busy" json:"busy"`

	// Partial enables the partial refresh waveform for routine redraws.
	// A full refresh is always used for the first draw after start.
	Partial bool `yaml:"partial" json:"partial"`
}

// WeatherConfig holds the forecast provider credentials and location.
type WeatherConfig struct {
	// Key is the provider API key.
	Key string `yaml:"key" json:"key"`
	// Location is the provider location ID used in API requests.
	Location string `yaml:"location" json:"location"`
	// City is the human-readable label shown on the panel.
	City string `yaml:"city" json:"city"`
}

// SensorConfig names the I2C bus the temperature/humidity sensor sits
// on.
type SensorConfig struct {
	// Bus is the periph.io i2creg bus name. Empty selects the default
	// bus.
	Bus string `yaml:"bus" json:"bus"`
	// Enabled gates sensor polling; a station without the sensor still
	// renders weather screens.
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for the clock and schedules
	// (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is the cron schedule for daytime screen refreshes.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// NightRefreshCron is the schedule used between 22:00 and 06:00,
	// when the panel can update less often to save refresh cycles.
	NightRefreshCron string `yaml:"night_refresh" json:"night_refresh"`

	Screen  ScreenConfig  `yaml:"screen" json:"screen"`
	Panel   PanelConfig   `yaml:"panel" json:"panel"`
	Weather WeatherConfig `yaml:"weather" json:"weather"`
	Sensor  SensorConfig  `yaml:"sensor" json:"sensor"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		Timezone:         "Asia/Seoul",
		RefreshCron:      "*/5 * * * *",
		NightRefreshCron: "0 * * * *",
		Screen: ScreenConfig{
			Width:  400,
			Height: 300,
			Border: "white",
		},
		Panel: PanelConfig{
			DC:      "GPIO13",
			RST:     "GPIO14",
			Busy:    "GPIO12",
			Partial: true,
		},
		Sensor: SensorConfig{
			Enabled: true,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g. older versions) still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.NightRefreshCron == "" {
		c.NightRefreshCron = def.NightRefreshCron
	}
	if c.Screen.Width <= 0 || c.Screen.Width%8 != 0 {
		c.Screen.Width = def.Screen.Width
	}
	if c.Screen.Height <= 0 {
		c.Screen.Height = def.Screen.Height
	}
	switch c.Screen.Border {
	case "white", "black", "red":
	default:
		c.Screen.Border = def.Screen.Border
	}
	if c.Panel.DC == "" {
		c.Panel.DC = def.Panel.DC
	}
	if c.Panel.RST == "" {
		c.Panel.RST = def.Panel.RST
	}
	if c.Panel.Busy == "" {
		c.Panel.Busy = def.Panel.Busy
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written there with
// 0600 permissions and returned, so a fresh install boots with a
// template the operator can edit.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The write is atomic: marshal to a temp file in the same directory,
// chmod 0600, rename over the target. The parent directory is created
// (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epdweather-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function, which keeps web
// handler code short:
//
//	cfg, _ := config.Load(path)
//	// ... mutate cfg ...
//	if err := cfg.Save(path); err != nil { ... }
func (c *Config) Save(path string) error {
	return Save(path, c)
}
