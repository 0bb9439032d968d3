package publish

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"curator/internal/config"
	"curator/internal/services"
)

const dialTimeout = 20 * time.Second

// Config describes the SFTP endpoint.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	RemoteDir  string
	KnownHosts string
}

// FromConfig maps the [publish] section.
func FromConfig(cfg config.Publish) Config {
	return Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		User:       cfg.User,
		Password:   cfg.Password,
		RemoteDir:  cfg.RemoteDir,
		KnownHosts: cfg.KnownHosts,
	}
}

func (c Config) normalized() (Config, error) {
	c.Host = strings.TrimSpace(c.Host)
	c.User = strings.TrimSpace(c.User)
	if c.Host == "" || c.User == "" || c.Password == "" {
		return c, services.Wrap(services.ErrConfiguration, "publish", "config", "host, user and password are required", nil)
	}
	if c.Port <= 0 {
		c.Port = 22
	}
	if strings.TrimSpace(c.RemoteDir) == "" {
		c.RemoteDir = "/"
	}
	return c, nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Remote is the subset of an SFTP session the uploader uses.
type Remote interface {
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
	Rename(oldname, newname string) error
	Close() error
}

// Dialer opens a Remote session.
type Dialer func(ctx context.Context, cfg Config) (Remote, error)

// HostKeyCallback verifies against the known_hosts file when one is
// configured and accepts any key otherwise.
func HostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, bool, error) {
	knownHostsPath = strings.TrimSpace(knownHostsPath)
	if knownHostsPath == "" {
		return ssh.InsecureIgnoreHostKey(), false, nil
	}
	cb, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, false, services.Wrap(services.ErrConfiguration, "publish", "known_hosts", knownHostsPath, err)
	}
	return cb, true, nil
}

// DialSFTP connects over SSH with password authentication.
func DialSFTP(ctx context.Context, cfg Config) (Remote, error) {
	cb, _, err := HostKeyCallback(cfg.KnownHosts)
	if err != nil {
		return nil, err
	}
	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: cb,
		Timeout:         dialTimeout,
	}

	addr := cfg.Address()
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "publish", "dial", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		_ = conn.Close()
		return nil, services.Wrap(services.ErrExternalTool, "publish", "handshake", addr, err)
	}
	sshClient := ssh.NewClient(c, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, services.Wrap(services.ErrExternalTool, "publish", "sftp session", addr, err)
	}
	return &sftpRemote{client: client, conn: sshClient}, nil
}

type sftpRemote struct {
	client *sftp.Client
	conn   *ssh.Client
}

func (r *sftpRemote) MkdirAll(path string) error { return r.client.MkdirAll(path) }

func (r *sftpRemote) Create(path string) (io.WriteCloser, error) {
	return r.client.Create(path)
}

// Rename prefers the posix-rename extension, which replaces an existing
// target.
func (r *sftpRemote) Rename(oldname, newname string) error {
	if err := r.client.PosixRename(oldname, newname); err == nil {
		return nil
	}
	return r.client.Rename(oldname, newname)
}

func (r *sftpRemote) Close() error {
	clientErr := r.client.Close()
	connErr := r.conn.Close()
	if clientErr != nil {
		return fmt.Errorf("close sftp client: %w", clientErr)
	}
	return connErr
}
