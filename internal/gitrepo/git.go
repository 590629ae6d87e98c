// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
git.go - Repository Synchronization

Repo destinations only copy files into the working tree. Once per run the
orchestrator calls Sync, which publishes everything in one go:

	git add -A
	git commit -m <message>     (skipped when nothing is staged)
	git push <remote> HEAD[:<branch>]

Any failing step aborts the rest and is returned as a single *backup.SyncError
carrying the step name and git's stderr. Files already copied into the tree
stay there and are picked up by the next successful sync.
*/

//nolint:staticcheck // File documentation, not package doc
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/dumpwarden/internal/backup"
	"github.com/tomtom215/dumpwarden/internal/config"
	"github.com/tomtom215/dumpwarden/internal/logging"
)

// maxOutput bounds git output kept in errors.
const maxOutput = 1024

// Repo is a git working tree. It implements backup.Syncer.
type Repo struct {
	path        string
	remote      string
	branch      string
	message     string
	authorName  string
	authorEmail string
	git         string
	now         func() time.Time
}

// Open checks that cfg.Path is a git working tree and returns a syncer for it.
func Open(cfg config.RepositoryConfig) (*Repo, error) {
	if cfg.Path == "" {
		return nil, errors.New("repository path is empty")
	}
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return nil, fmt.Errorf("%s is not a git working tree: %w", path, err)
	}

	r := &Repo{
		path:        path,
		remote:      cfg.Remote,
		branch:      cfg.Branch,
		message:     cfg.CommitMessage,
		authorName:  cfg.AuthorName,
		authorEmail: cfg.AuthorEmail,
		git:         cfg.GitBinary,
		now:         time.Now,
	}
	if r.git == "" {
		r.git = "git"
	}
	if r.message == "" {
		r.message = "Update database dumps"
	}
	return r, nil
}

// Path returns the absolute working tree path.
func (r *Repo) Path() string { return r.path }

// Name implements backup.Syncer.
func (r *Repo) Name() string { return "repo:" + r.path }

// Sync stages, commits and pushes all changes in the working tree.
func (r *Repo) Sync(ctx context.Context) error {
	log := logging.Ctx(ctx).With().Str("repo", r.path).Logger()

	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return r.fail("stage", err)
	}

	staged, err := r.hasStagedChanges(ctx)
	if err != nil {
		return r.fail("diff", err)
	}
	if staged {
		msg := fmt.Sprintf("%s (%s)", r.message, r.now().UTC().Format(time.RFC3339))
		if _, err := r.run(ctx, "commit", "--quiet", "-m", msg); err != nil {
			return r.fail("commit", err)
		}
		log.Debug().Str("message", msg).Msg("Committed")
	} else {
		log.Debug().Msg("Nothing to commit")
	}

	if r.remote == "" {
		return nil
	}
	ref := "HEAD"
	if r.branch != "" {
		ref = "HEAD:" + r.branch
	}
	if _, err := r.run(ctx, "push", "--quiet", r.remote, ref); err != nil {
		return r.fail("push", err)
	}
	log.Debug().Str("remote", r.remote).Str("ref", ref).Msg("Pushed")
	return nil
}

// hasStagedChanges uses diff --cached --quiet: exit 1 means changes, 0 none.
func (r *Repo) hasStagedChanges(ctx context.Context) (bool, error) {
	_, err := r.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	var ge *gitError
	if errors.As(err, &ge) && ge.exitCode == 1 {
		return true, nil
	}
	return false, err
}

func (r *Repo) fail(step string, err error) error {
	return &backup.SyncError{Syncer: r.Name(), Err: fmt.Errorf("%s: %w", step, err)}
}

// gitError is a git invocation that exited non-zero.
type gitError struct {
	args     []string
	exitCode int
	stderr   string
}

func (e *gitError) Error() string {
	msg := fmt.Sprintf("git %s: exit %d", strings.Join(e.args, " "), e.exitCode)
	if e.stderr != "" {
		msg += ": " + e.stderr
	}
	return msg
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	full := r.identityArgs()
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, r.git, full...)
	cmd.Dir = r.path
	// Never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("git %s: %w", args[0], ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", &gitError{args: args, exitCode: exitErr.ExitCode(), stderr: truncate(stderr.String())}
	}
	return "", fmt.Errorf("git %s: %w", args[0], err)
}

// identityArgs sets author and committer for this invocation only.
func (r *Repo) identityArgs() []string {
	var args []string
	if r.authorName != "" {
		args = append(args, "-c", "user.name="+r.authorName)
	}
	if r.authorEmail != "" {
		args = append(args, "-c", "user.email="+r.authorEmail)
	}
	return args
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutput {
		return s[:maxOutput] + "..."
	}
	return s
}
