// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package producer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/tomtom215/dumpwarden/internal/logging"
)

// Endpoint is a resolved SSH login.
type Endpoint struct {
	Addr string
	User string

	Password      string
	KeyFile       string
	KeyPassphrase string

	// KnownHostsFile enables host key checking. When empty, Insecure must be set.
	KnownHostsFile string
	Insecure       bool

	Timeout time.Duration
}

// Dialer opens a session on a database host.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Remote, error)
}

// Remote is an open connection to a database host.
type Remote interface {
	// Run executes cmd. A non-zero exit is reported through exitCode with a
	// nil error; err is only set when the command could not be run at all.
	Run(ctx context.Context, cmd string) (exitCode int, stderr string, err error)

	// Fetch copies the remote file to w.
	Fetch(ctx context.Context, path string, w io.Writer) (int64, error)

	// Remove deletes the remote file.
	Remove(ctx context.Context, path string) error

	Close() error
}

// SSHDialer dials with golang.org/x/crypto/ssh and transfers with SFTP.
type SSHDialer struct{}

// Dial implements Dialer.
func (SSHDialer) Dial(ctx context.Context, ep Endpoint) (Remote, error) {
	cfg, err := clientConfig(ep)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: ep.Timeout}
	conn, err := d.DialContext(ctx, "tcp", ep.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ep.Addr, err)
	}

	// Bound the handshake; NewClientConn does not take a context.
	if deadline, ok := handshakeDeadline(ctx, ep.Timeout); ok {
		_ = conn.SetDeadline(deadline)
	}
	sc, chans, reqs, err := ssh.NewClientConn(conn, ep.Addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", ep.Addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshRemote{client: ssh.NewClient(sc, chans, reqs)}, nil
}

func handshakeDeadline(ctx context.Context, timeout time.Duration) (time.Time, bool) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline, !deadline.IsZero()
}

func clientConfig(ep Endpoint) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if ep.KeyFile != "" {
		signer, err := loadSigner(ep.KeyFile, ep.KeyPassphrase)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if ep.Password != "" {
		auth = append(auth, ssh.Password(ep.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("no ssh credentials: set a password or a key file")
	}

	var hostKey ssh.HostKeyCallback
	switch {
	case ep.KnownHostsFile != "":
		cb, err := knownhosts.New(ep.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
		hostKey = cb
	case ep.Insecure:
		logging.Warn().Str("addr", ep.Addr).Msg("SSH host key verification disabled")
		hostKey = ssh.InsecureIgnoreHostKey() //nolint:gosec // explicit opt-in via insecure_ignore_host_key
	default:
		return nil, errors.New("no host key policy: set known_hosts_file or insecure_ignore_host_key")
	}

	return &ssh.ClientConfig{
		User:            ep.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         ep.Timeout,
	}, nil
}

func loadSigner(path, passphrase string) (ssh.Signer, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pem)
	}
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %s: %w", path, err)
	}
	return signer, nil
}

type sshRemote struct {
	client *ssh.Client
}

func (r *sshRemote) Run(ctx context.Context, cmd string) (int, string, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return 0, "", fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	var stderr bytes.Buffer
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		// Closing the client unblocks Run.
		_ = r.client.Close()
		<-done
		return 0, stderr.String(), ctx.Err()
	}

	if err == nil {
		return 0, stderr.String(), nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), stderr.String(), nil
	}
	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return -1, stderr.String(), nil
	}
	return 0, stderr.String(), err
}

func (r *sshRemote) Fetch(ctx context.Context, path string, w io.Writer) (int64, error) {
	sc, err := sftp.NewClient(r.client)
	if err != nil {
		return 0, fmt.Errorf("start sftp: %w", err)
	}
	defer sc.Close()

	stop := context.AfterFunc(ctx, func() { _ = sc.Close() })
	defer stop()

	f, err := sc.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open remote %s: %w", path, err)
	}
	defer f.Close()

	n, err := f.WriteTo(w)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		return n, fmt.Errorf("download %s: %w", path, err)
	}
	return n, nil
}

func (r *sshRemote) Remove(ctx context.Context, path string) error {
	sc, err := sftp.NewClient(r.client)
	if err != nil {
		return fmt.Errorf("start sftp: %w", err)
	}
	defer sc.Close()

	stop := context.AfterFunc(ctx, func() { _ = sc.Close() })
	defer stop()

	return sc.Remove(path)
}

func (r *sshRemote) Close() error {
	err := r.client.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
