package transport

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// fakeDevice is a minimal SSH server answering exec requests from a fixed
// table and recording shell input. Shell input holding the reject command
// is answered with an invalid input marker.
type fakeDevice struct {
	exec   map[string]string
	reply  string
	reject string

	mu     sync.Mutex
	shells []string
}

func (d *fakeDevice) start(t *testing.T) (host string, port int) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "admin" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, assert.AnError
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go d.serve(conn, config)
		}
	}()

	h, p, _ := net.SplitHostPort(ln.Addr().String())
	port, _ = strconv.Atoi(p)
	return h, port
}

func (d *fakeDevice) serve(conn net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)
	for nc := range chans {
		ch, requests, err := nc.Accept()
		if err != nil {
			continue
		}
		go d.session(ch, requests)
	}
}

func (d *fakeDevice) session(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()
	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			_ = ssh.Unmarshal(req.Payload, &payload)
			req.Reply(true, nil)
			io.WriteString(ch, d.exec[payload.Command])
			ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
			return
		case "shell":
			req.Reply(true, nil)
			input, _ := io.ReadAll(ch)
			d.mu.Lock()
			d.shells = append(d.shells, string(input))
			d.mu.Unlock()
			if d.reject != "" && strings.Contains(string(input), d.reject+"\n") {
				io.WriteString(ch, d.reject+"\n% Invalid input detected at '^' marker.\n")
			} else {
				io.WriteString(ch, d.reply)
			}
			ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
			return
		default:
			req.Reply(false, nil)
		}
	}
}

func (d *fakeDevice) inputs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.shells...)
}

func TestSSHRunningConfig(t *testing.T) {
	dev := &fakeDevice{exec: map[string]string{
		"show running-config ipv4 prefix-list": "Thu Oct 17 10:12:01.123 UTC\nipv4 prefix-list pl1\n 10 permit 10.0.0.0/8\n!\n",
		"show running-config ipv6 prefix-list": "Thu Oct 17 10:12:01.456 UTC\n% No such configuration item(s)\n",
	}}
	host, port := dev.start(t)

	s := NewSSH(SSHConfig{Host: host, Port: port, Username: "admin", Password: "secret", Insecure: true})
	got, err := s.RunningConfig(context.Background(), "ipv4 prefix-list,ipv6 prefix-list")
	require.NoError(t, err)
	assert.Equal(t, "ipv4 prefix-list pl1\n 10 permit 10.0.0.0/8\n", got)
}

func TestSSHPush(t *testing.T) {
	dev := &fakeDevice{reply: "RP/0/RP0/CPU0:r1(config)#commit\n"}
	host, port := dev.start(t)

	s := NewSSH(SSHConfig{Host: host, Port: port, Username: "admin", Password: "secret", Insecure: true})
	require.NoError(t, s.Push(context.Background(), []string{"hostname r2"}))
	shells := dev.inputs()
	require.Len(t, shells, 2)
	assert.Equal(t, "terminal length 0\nconfigure terminal\nhostname r2\nabort\nexit\n", shells[0])
	assert.Equal(t, "terminal length 0\nconfigure terminal\nhostname r2\ncommit\nabort\nexit\n", shells[1])
}

func TestSSHPushRejectedLineCommitsNothing(t *testing.T) {
	dev := &fakeDevice{reply: "RP/0/RP0/CPU0:r1(config)#commit\n", reject: "ipv4 address bogus"}
	host, port := dev.start(t)

	s := NewSSH(SSHConfig{Host: host, Port: port, Username: "admin", Password: "secret", Insecure: true})
	err := s.Push(context.Background(), []string{"description uplink", "ipv4 address bogus", "mtu 9000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid input")

	shells := dev.inputs()
	require.Len(t, shells, 1)
	assert.NotContains(t, shells[0], "commit")
}

func TestSSHAuthFailure(t *testing.T) {
	host, port := (&fakeDevice{}).start(t)
	s := NewSSH(SSHConfig{Host: host, Port: port, Username: "admin", Password: "wrong", Insecure: true})
	_, err := s.RunningConfig(context.Background(), "hostname")
	assert.Error(t, err)
}

func TestSSHClientConfig(t *testing.T) {
	_, err := NewSSH(SSHConfig{Host: "r1", Insecure: true}).clientConfig()
	assert.ErrorContains(t, err, "no ssh credentials")

	_, err = NewSSH(SSHConfig{Host: "r1", Password: "x"}).clientConfig()
	assert.ErrorContains(t, err, "known_hosts")

	c, err := NewSSH(SSHConfig{Host: "r1", Username: "u", Password: "x", Insecure: true}).clientConfig()
	require.NoError(t, err)
	assert.Equal(t, "u", c.User)
	assert.Len(t, c.Auth, 2)
}
