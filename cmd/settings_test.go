package cmd

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/transport"
)

func TestLoadSettings(t *testing.T) {
	p := writeFile(t, t.TempDir(), "settings.yaml", `host: 192.0.2.10
username: admin
password: from-file
timeout: 10s
insecure: true
`)
	t.Setenv("XRCTL_PASSWORD", "from-env")
	t.Setenv("XRCTL_PORT", "2222")

	s, err := loadSettings(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", s.Host)
	assert.Equal(t, 2222, s.Port)
	assert.Equal(t, "admin", s.Username)
	assert.Equal(t, "from-env", s.Password)
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.True(t, s.Insecure)
	assert.Equal(t, 30*time.Second, s.Interval)
	assert.Equal(t, "192.0.2.10:2222", s.Target())
	assert.IsType(t, &transport.SSH{}, s.Transport())
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := loadSettings("", nil)
	require.NoError(t, err)
	assert.Equal(t, 22, s.Port)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Nil(t, s.Transport())
	assert.Equal(t, "no device", s.Target())
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := loadSettings("/nonexistent/settings.yaml", nil)
	assert.ErrorContains(t, err, "reading settings")
}

func TestFileTransportWins(t *testing.T) {
	s := &Settings{Host: "192.0.2.10", RunningConfig: "running.cfg", Output: "out.cfg"}
	assert.Equal(t, &transport.File{RunningPath: "running.cfg", OutputPath: "out.cfg"}, s.Transport())
	assert.Equal(t, "running.cfg", s.Target())
}

func TestLoadSettingsFlags(t *testing.T) {
	flags := func(args ...string) *pflag.FlagSet {
		fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
		fs.Duration("interval", time.Minute, "")
		fs.String("tasks", "", "")
		require.NoError(t, fs.Parse(args))
		return fs
	}

	s, err := loadSettings("", flags("--interval", "5s", "--tasks", "x.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, s.Interval)

	p := writeFile(t, t.TempDir(), "settings.yaml", "interval: 2m\n")
	s, err = loadSettings(p, flags())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, s.Interval)
}
