// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

package producer

import (
	"strconv"

	"github.com/kballard/go-shellquote"
)

// Database is the resolved database connection used on the remote host.
type Database struct {
	Name     string
	User     string
	Password string
	Host     string
	Port     int

	// Command defaults to "mysqldump".
	Command   string
	ExtraArgs []string
}

// DumpCommand returns the shell command that writes the dump to remoteFile
// in the login directory. Every argument is quoted.
func DumpCommand(db Database, remoteFile string) string {
	command := db.Command
	if command == "" {
		command = "mysqldump"
	}

	args := []string{command, "-u", db.User}
	if db.Password != "" {
		args = append(args, "-p"+db.Password)
	}
	if db.Host != "" {
		args = append(args, "-h", db.Host)
	}
	if db.Port > 0 {
		args = append(args, "-P", strconv.Itoa(db.Port))
	}
	args = append(args, db.ExtraArgs...)
	args = append(args, db.Name)

	return shellquote.Join(args...) + " > " + shellquote.Join(remoteFile)
}

// redactedCommand is DumpCommand with the password masked, for logs.
func redactedCommand(db Database, remoteFile string) string {
	if db.Password != "" {
		db.Password = "***"
	}
	return DumpCommand(db, remoteFile)
}
