// Package sftp implements a data source that downloads the export from an
// SFTP server over SSH.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config describes the remote export.
type Config struct {
	Host string
	Port int // default 22
	User string

	// Password and KeyFile select the auth methods; both may be set.
	Password string
	KeyFile  string

	// KnownHosts is an OpenSSH known_hosts file. When empty the host key is
	// not verified and a warning is logged.
	KnownHosts string

	// Path is the remote file path, e.g. "/EmpMaster.csv".
	Path string

	// Timeout bounds the TCP dial and SSH handshake. Default 30s.
	Timeout time.Duration
}

// Source opens Config.Path on every Open call with a fresh SSH connection.
type Source struct {
	cfg Config
}

// New validates cfg and returns a Source.
func New(cfg Config) (*Source, error) {
	if cfg.Host == "" {
		return nil, errors.New("sftp: host is required")
	}
	if cfg.User == "" {
		return nil, errors.New("sftp: user is required")
	}
	if cfg.Path == "" {
		return nil, errors.New("sftp: path is required")
	}
	if cfg.Password == "" && cfg.KeyFile == "" {
		return nil, errors.New("sftp: password or key_file is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Source{cfg: cfg}, nil
}

// Addr is the host:port the source dials.
func (s *Source) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Open dials the server and opens the remote file. Closing the returned
// reader closes the file, the SFTP session, and the SSH connection.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	clientCfg, err := s.clientConfig()
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", s.Addr())
	if err != nil {
		return nil, fmt.Errorf("sftp: dial %s: %w", s.Addr(), err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, s.Addr(), clientCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sftp: ssh handshake: %w", err)
	}
	// The handshake deadline must not cut off the transfer itself.
	_ = conn.SetDeadline(time.Time{})
	sshClient := ssh.NewClient(c, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("sftp: start subsystem: %w", err)
	}
	rc, err := openRemote(client, s.cfg.Path)
	if err != nil {
		_ = sshClient.Close()
		return nil, err
	}
	rc.closers = append(rc.closers, sshClient)
	log.Printf("sftp: opened %s:%s", s.Addr(), s.cfg.Path)
	return rc, nil
}

func (s *Source) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if s.cfg.KeyFile != "" {
		pem, err := os.ReadFile(s.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("sftp: read key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("sftp: parse key %s: %w", s.cfg.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.cfg.Password != "" {
		auth = append(auth, ssh.Password(s.cfg.Password))
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if s.cfg.KnownHosts != "" {
		cb, err := knownhosts.New(s.cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("sftp: known_hosts: %w", err)
		}
		hostKey = cb
	} else {
		log.Printf("sftp: WARNING host key for %s is not verified (no known_hosts configured)", s.Addr())
	}

	return &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         s.cfg.Timeout,
	}, nil
}

// remoteFile closes the remote file and then every transport beneath it.
type remoteFile struct {
	*sftp.File
	closers []io.Closer
}

func (r *remoteFile) Close() error {
	err := r.File.Close()
	for _, c := range r.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openRemote opens path on client; on success the returned reader owns client.
func openRemote(client *sftp.Client, path string) (*remoteFile, error) {
	f, err := client.Open(path)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sftp: open %s: %w", path, err)
	}
	return &remoteFile{File: f, closers: []io.Closer{client}}, nil
}
