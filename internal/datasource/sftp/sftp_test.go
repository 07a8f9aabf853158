package sftp

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/sftp"
)

// pipeClient connects an SFTP client to an in-process server that serves the
// local filesystem.
func pipeClient(t *testing.T) *sftp.Client {
	t.Helper()

	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()

	server, err := sftp.NewServer(struct {
		io.Reader
		io.WriteCloser
	}{serverR, serverW})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go func() { _ = server.Serve() }()
	t.Cleanup(func() { _ = server.Close() })

	client, err := sftp.NewClientPipe(clientR, clientW)
	if err != nil {
		t.Fatalf("NewClientPipe: %v", err)
	}
	return client
}

func TestOpenRemote_ReadsFile(t *testing.T) {
	const export = "User/Employee ID,Business\n10045,11000408-Fenesta\n"
	path := filepath.Join(t.TempDir(), "EmpMaster.csv")
	if err := os.WriteFile(path, []byte(export), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rc, err := openRemote(pipeClient(t), path)
	if err != nil {
		t.Fatalf("openRemote: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != export {
		t.Fatalf("content = %q, want %q", got, export)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenRemote_MissingFile(t *testing.T) {
	_, err := openRemote(pipeClient(t), filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil || !strings.Contains(err.Error(), "sftp: open") {
		t.Fatalf("err = %v, want open error", err)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	base := Config{Host: "sftp.example.com", User: "hr", Password: "pw", Path: "/EmpMaster.csv"}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no host", func(c *Config) { c.Host = "" }},
		{"no user", func(c *Config) { c.User = "" }},
		{"no path", func(c *Config) { c.Path = "" }},
		{"no auth", func(c *Config) { c.Password = "" }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	s, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Addr() != "sftp.example.com:22" {
		t.Fatalf("Addr = %q", s.Addr())
	}
	if s.cfg.Timeout == 0 {
		t.Fatalf("default timeout not applied")
	}
}

func TestClientConfig(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Host: "h", Port: 2222, User: "hr", Password: "pw", Path: "/x"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cc, err := s.clientConfig()
	if err != nil {
		t.Fatalf("clientConfig: %v", err)
	}
	if cc.User != "hr" || len(cc.Auth) != 1 || cc.HostKeyCallback == nil {
		t.Fatalf("client config = %+v", cc)
	}

	dir := t.TempDir()
	badKey := filepath.Join(dir, "id_rsa")
	if err := os.WriteFile(badKey, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s.cfg.KeyFile = badKey
	if _, err := s.clientConfig(); err == nil || !strings.Contains(err.Error(), "parse key") {
		t.Fatalf("err = %v, want parse key error", err)
	}

	s.cfg.KeyFile = ""
	s.cfg.KnownHosts = filepath.Join(dir, "missing_known_hosts")
	if _, err := s.clientConfig(); err == nil || !strings.Contains(err.Error(), "known_hosts") {
		t.Fatalf("err = %v, want known_hosts error", err)
	}
}
