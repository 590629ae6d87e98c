// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
producer.go - Remote Dump Producer

One Produce call for a source:

 1. Connect over SSH (password or key)
 2. Run the dump command on the host, writing dump_YYYYMMDD_HHMMSS<ext> in the login directory
 3. Download it over SFTP into the source's archive folder (temp file + rename)
 4. Remove the remote file (best effort)

Failures map to backup.ProducerError kinds: 1 is ConnectionFailed, a non-zero
exit in 2 is RemoteCommandFailed, 3 is TransferFailed. Nothing is retried; the
next scheduled run is the retry.
*/

//nolint:staticcheck // File documentation, not package doc
package producer

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/dumpwarden/internal/backup"
	"github.com/tomtom215/dumpwarden/internal/config"
	"github.com/tomtom215/dumpwarden/internal/logging"
)

// Job is everything needed to dump one source.
type Job struct {
	Endpoint Endpoint
	Database Database

	// Timeout bounds the whole Produce call. Zero means unbounded.
	Timeout time.Duration
}

// Producer creates dumps over SSH. It implements backup.Producer.
type Producer struct {
	dialer Dialer
	jobs   map[string]Job
	ext    string
	now    func() time.Time
}

// New returns a producer for jobs keyed by source key.
func New(dialer Dialer, jobs map[string]Job, ext string) *Producer {
	if dialer == nil {
		dialer = SSHDialer{}
	}
	return &Producer{dialer: dialer, jobs: jobs, ext: ext, now: time.Now}
}

// JobFromConfig resolves secrets and defaults for a configured source.
func JobFromConfig(src *config.SourceConfig) Job {
	port := src.SSH.Port
	if port == 0 {
		port = 22
	}
	return Job{
		Endpoint: Endpoint{
			Addr:           net.JoinHostPort(src.SSH.Host, strconv.Itoa(port)),
			User:           src.SSH.User,
			Password:       src.SSH.Password(),
			KeyFile:        src.SSH.KeyFile,
			KeyPassphrase:  src.SSH.KeyPassphrase(),
			KnownHostsFile: src.SSH.KnownHostsFile,
			Insecure:       src.SSH.InsecureIgnoreHostKey,
			Timeout:        src.SSH.Timeout,
		},
		Database: Database{
			Name:      src.Database.Name,
			User:      src.Database.User,
			Password:  src.Database.Password(),
			Host:      src.Database.Host,
			Port:      src.Database.Port,
			Command:   src.Database.DumpCommand,
			ExtraArgs: src.Database.ExtraArgs,
		},
		Timeout: src.Timeout,
	}
}

// FileName returns the dump file name for a dump started at t (local time,
// matching the archive's existing names).
func FileName(t time.Time, ext string) string {
	return "dump_" + t.Format("20060102_150405") + ext
}

// Produce implements backup.Producer.
func (p *Producer) Produce(ctx context.Context, src backup.Source) (backup.Artifact, error) {
	job, ok := p.jobs[src.Key]
	if !ok {
		return backup.Artifact{}, backup.NewConnectionError(src.Key, fmt.Errorf("no connection configured"))
	}

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	startedAt := p.now()
	name := FileName(startedAt, p.ext)
	log := logging.Ctx(ctx).With().Str("source", src.Key).Str("host", job.Endpoint.Addr).Logger()

	remote, err := p.dialer.Dial(ctx, job.Endpoint)
	if err != nil {
		return backup.Artifact{}, backup.NewConnectionError(src.Key, err)
	}
	defer func() {
		if err := remote.Close(); err != nil {
			log.Debug().Err(err).Msg("Closing SSH connection failed")
		}
	}()
	log.Debug().Msg("Connected")

	log.Debug().Str("command", redactedCommand(job.Database, name)).Msg("Running dump command")
	code, stderr, err := remote.Run(ctx, DumpCommand(job.Database, name))
	if err != nil {
		return backup.Artifact{}, backup.NewConnectionError(src.Key, fmt.Errorf("run dump command: %w", err))
	}
	if code != 0 {
		// The command may have left a partial file behind.
		p.removeRemote(ctx, remote, name, &log)
		return backup.Artifact{}, backup.NewRemoteCommandError(src.Key, code, stderr, nil)
	}

	localPath := filepath.Join(src.LocalDir, name)
	size, err := download(ctx, remote, name, localPath)
	p.removeRemote(ctx, remote, name, &log)
	if err != nil {
		return backup.Artifact{}, backup.NewTransferError(src.Key, err)
	}

	return backup.Artifact{
		SourceKey: src.Key,
		CreatedAt: startedAt,
		LocalPath: localPath,
		SizeBytes: size,
	}, nil
}

func (p *Producer) removeRemote(ctx context.Context, remote Remote, name string, log *zerolog.Logger) {
	if err := remote.Remove(ctx, name); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Could not remove remote dump file")
	}
}

// download fetches name into localPath through a temporary file, so an
// interrupted transfer never leaves a truncated dump in the archive.
func download(ctx context.Context, remote Remote, name, localPath string) (size int64, err error) {
	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("create archive dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".partial-"+name+"-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	size, err = remote.Fetch(ctx, name, tmp)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("sync %s: %w", localPath, err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", localPath, err)
	}
	if err = os.Rename(tmp.Name(), localPath); err != nil {
		return 0, fmt.Errorf("move into archive: %w", err)
	}
	return size, nil
}
