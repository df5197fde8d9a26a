// Package config loads the gpanel settings from a YAML file and GPANEL_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SimPort selects the built-in simulated firmware instead of a device.
const SimPort = "sim"

type Config struct {
	Machine MachineConfig `mapstructure:"machine"`
	Panel   PanelConfig   `mapstructure:"panel"`
	UI      UIConfig      `mapstructure:"ui"`
}

type MachineConfig struct {
	// Port is a serial device, an SPJS port name, or "sim".
	Port           string `mapstructure:"port"`
	Baud           int    `mapstructure:"baud"`
	SPJS           string `mapstructure:"spjs"`
	Profile        string `mapstructure:"profile"`
	MaxOutstanding int    `mapstructure:"max_outstanding"`
}

type PanelConfig struct {
	UpdateInterval time.Duration `mapstructure:"update_interval"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type UIConfig struct {
	// Mode is one of desktop, web or tui.
	Mode      string `mapstructure:"mode"`
	Addr      string `mapstructure:"addr"`
	PublicURL string `mapstructure:"public_url"`
}

var modes = []string{"desktop", "web", "tui"}

func defaults(v *viper.Viper) {
	v.SetDefault("machine.port", SimPort)
	v.SetDefault("machine.baud", 115200)
	v.SetDefault("machine.spjs", "")
	v.SetDefault("machine.profile", "")
	v.SetDefault("machine.max_outstanding", 1)
	v.SetDefault("panel.update_interval", time.Second)
	v.SetDefault("panel.poll_interval", 700*time.Millisecond)
	v.SetDefault("ui.mode", "desktop")
	v.SetDefault("ui.addr", ":9091")
	v.SetDefault("ui.public_url", "")
}

// Load reads the config file at path, or config.yaml from the user config
// directory when path is empty. A missing default file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)
	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv("GPANEL_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "gpanel"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	valid := false
	for _, m := range modes {
		if c.UI.Mode == m {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("unknown ui mode %q (want one of %s)", c.UI.Mode, strings.Join(modes, ", "))
	}
	if c.Machine.Port == "" {
		return errors.New("machine port is required")
	}
	if c.Machine.SPJS != "" && c.Machine.Port == SimPort {
		return errors.New("machine port must name the bridge's serial port when spjs is set")
	}
	if c.Machine.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Machine.Baud)
	}
	if c.Panel.UpdateInterval <= 0 || c.Panel.PollInterval <= 0 {
		return errors.New("panel intervals must be positive")
	}
	return nil
}
