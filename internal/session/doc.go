// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

/*
Package session owns the Google Drive OAuth session.

The session is an explicit resource: it is opened once at startup from the
client secret (credentials.json) and the saved user token (token.json),
refreshed before every backup run, and handed to the Drive object store as
an oauth2.TokenSource. Every refreshed token is written back to the token
file, so a restart never needs the browser again.

First-time setup runs the installed-app flow:

	dumpwarden auth

which listens on drive.auth_listen_addr, prints the consent URL, waits for
the redirect and saves the token. A missing or unusable token at startup is
fatal; a refresh failure before a run is logged and recorded, and the run
continues so non-Drive destinations still receive their copies.
*/
package session
