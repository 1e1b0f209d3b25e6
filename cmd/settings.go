package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"xrctl/pkg/rm"
	"xrctl/pkg/transport"
)

// Settings describe how to reach the device. Every key can be overridden
// with an XRCTL_ environment variable, e.g. XRCTL_PASSWORD.
type Settings struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	KeyFile    string        `mapstructure:"key_file"`
	KnownHosts string        `mapstructure:"known_hosts"`
	Insecure   bool          `mapstructure:"insecure"`
	Timeout    time.Duration `mapstructure:"timeout"`

	// RunningConfig selects the file transport: running config is read
	// from this file instead of a device.
	RunningConfig string `mapstructure:"running_config"`
	// Output receives commands pushed through the file transport.
	Output string `mapstructure:"output"`

	// MetricsFile, when set, receives run counters in the Prometheus
	// text format after every run.
	MetricsFile string `mapstructure:"metrics_file"`
	// Interval is the periodic reconcile interval of watch.
	Interval time.Duration `mapstructure:"interval"`
}

// loadSettings reads path, the environment and any flags in flags named
// like a settings key, in increasing precedence.
func loadSettings(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetDefault("host", "")
	v.SetDefault("port", 22)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("key_file", "")
	v.SetDefault("known_hosts", defaultKnownHosts())
	v.SetDefault("insecure", false)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("running_config", "")
	v.SetDefault("output", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("interval", 30*time.Second)

	v.SetEnvPrefix("XRCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading settings %s: %w", path, err)
		}
		log.WithField("file", v.ConfigFileUsed()).Debug("loaded settings")
	}

	if flags != nil {
		var err error
		flags.VisitAll(func(f *pflag.Flag) {
			if err == nil && v.IsSet(f.Name) {
				err = v.BindPFlag(f.Name, f)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &s, nil
}

func defaultKnownHosts() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

// Transport picks the file transport when a running config file is set,
// SSH when a host is set and nothing otherwise.
func (s *Settings) Transport() rm.Transport {
	switch {
	case s.RunningConfig != "":
		return &transport.File{RunningPath: s.RunningConfig, OutputPath: s.Output}
	case s.Host != "":
		return transport.NewSSH(transport.SSHConfig{
			Host:       s.Host,
			Port:       s.Port,
			Username:   s.Username,
			Password:   s.Password,
			KeyFile:    s.KeyFile,
			KnownHosts: s.KnownHosts,
			Insecure:   s.Insecure,
			Timeout:    s.Timeout,
		})
	}
	return nil
}

// Target names the configured device for output.
func (s *Settings) Target() string {
	switch {
	case s.RunningConfig != "":
		return s.RunningConfig
	case s.Host != "":
		return fmt.Sprintf("%s:%d", s.Host, s.Port)
	}
	return "no device"
}
