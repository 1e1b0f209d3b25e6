package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig holds the device connection settings.
type SSHConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// KeyFile is a private key used before password authentication.
	KeyFile string
	// KnownHosts is the known_hosts file used to verify the device key.
	KnownHosts string
	// Insecure skips host key verification. Lab use only.
	Insecure bool
	Timeout  time.Duration
}

// SSH talks to the IOS-XR CLI over SSH. Every call opens its own
// connection.
type SSH struct {
	cfg SSHConfig
	log *log.Entry
}

// NewSSH returns an SSH transport. Port defaults to 22 and Timeout to 30s.
func NewSSH(cfg SSHConfig) *SSH {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SSH{
		cfg: cfg,
		log: log.WithFields(log.Fields{"transport": "ssh", "host": cfg.Host}),
	}
}

// errorMarkers are the prefixes IOS-XR uses for rejected input.
var errorMarkers = []string{
	"% Invalid input",
	"% Incomplete command",
	"% Ambiguous command",
	"% Failed",
}

// RunningConfig runs "show running-config <scope>" once per scope prefix
// and returns the matching stanzas.
func (s *SSH) RunningConfig(ctx context.Context, scope string) (string, error) {
	scopes := Scopes(scope)
	if len(scopes) == 0 {
		scopes = []string{""}
	}
	var b strings.Builder
	for _, sc := range scopes {
		cmd := strings.TrimSpace("show running-config " + sc)
		s.log.WithField("command", cmd).Debug("reading running config")
		out, err := s.exec(ctx, cmd)
		if err != nil {
			return "", fmt.Errorf("%s: %w", cmd, err)
		}
		b.WriteString(Section(out, sc))
	}
	return b.String(), nil
}

// Push enters configuration mode, sends the commands and commits them.
// The commands are first entered into a candidate that is discarded, and
// only committed when the device accepted every line, so a rejected line
// leaves the running config untouched. Device-side rejections are
// returned as errors naming the failing line.
func (s *SSH) Push(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return nil
	}
	s.log.WithField("commands", len(commands)).Debug("checking configuration")
	out, err := s.shell(ctx, CheckScript(commands))
	if err != nil {
		return err
	}
	if err := CheckOutput(out); err != nil {
		return err
	}

	s.log.WithField("commands", len(commands)).Info("pushing configuration")
	out, err = s.shell(ctx, ConfigScript(commands))
	if err != nil {
		return err
	}
	return CheckOutput(out)
}

// CheckScript enters commands into a configuration session and aborts it
// without committing.
func CheckScript(commands []string) string {
	return script(commands, false)
}

// ConfigScript wraps commands in a configuration session and commits it.
// A failed commit is discarded by abort instead of prompting.
func ConfigScript(commands []string) string {
	return script(commands, true)
}

func script(commands []string, commit bool) string {
	var b strings.Builder
	b.WriteString("terminal length 0\n")
	b.WriteString("configure terminal\n")
	for _, c := range commands {
		b.WriteString(c)
		b.WriteString("\n")
	}
	if commit {
		b.WriteString("commit\n")
	}
	b.WriteString("abort\n")
	b.WriteString("exit\n")
	return b.String()
}

// CheckOutput scans CLI output for error markers.
func CheckOutput(out string) error {
	var failures []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		for _, m := range errorMarkers {
			if strings.HasPrefix(line, m) {
				failures = append(failures, line)
				break
			}
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("device rejected configuration:\n - %s", strings.Join(failures, "\n - "))
	}
	return nil
}

func (s *SSH) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if s.cfg.KeyFile != "" {
		key, err := os.ReadFile(s.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing key file: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.cfg.Password != "" {
		password := s.cfg.Password
		auth = append(auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	if len(auth) == 0 {
		return nil, errors.New("no ssh credentials: set a password or key file")
	}

	var hostKey ssh.HostKeyCallback
	switch {
	case s.cfg.Insecure:
		hostKey = ssh.InsecureIgnoreHostKey()
	case s.cfg.KnownHosts != "":
		cb, err := knownhosts.New(s.cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKey = cb
	default:
		return nil, errors.New("no known_hosts file configured")
	}

	return &ssh.ClientConfig{
		User:            s.cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         s.cfg.Timeout,
	}, nil
}

func (s *SSH) dial(ctx context.Context) (*ssh.Client, error) {
	config, err := s.clientConfig()
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	d := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	s.log.Debug("connected")
	return ssh.NewClient(c, chans, reqs), nil
}

// exec runs one exec-mode command.
func (s *SSH) exec(ctx context.Context, cmd string) (string, error) {
	return s.session(ctx, func(sess *ssh.Session) error {
		return sess.Run(cmd)
	})
}

// shell feeds input to an interactive shell and returns its output.
func (s *SSH) shell(ctx context.Context, input string) (string, error) {
	return s.session(ctx, func(sess *ssh.Session) error {
		sess.Stdin = strings.NewReader(input)
		if err := sess.Shell(); err != nil {
			return err
		}
		return sess.Wait()
	})
}

func (s *SSH) session(ctx context.Context, fn func(*ssh.Session) error) (string, error) {
	client, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	sess, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("opening session: %w", err)
	}
	defer sess.Close()

	var out bytes.Buffer
	sess.Stdout = &out
	sess.Stderr = &out
	if err := fn(sess); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var missing *ssh.ExitMissingError
		if !errors.As(err, &missing) {
			return out.String(), fmt.Errorf("%w: %s", err, strings.TrimSpace(out.String()))
		}
	}
	return out.String(), nil
}
