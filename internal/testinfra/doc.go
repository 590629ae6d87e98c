// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package testinfra starts throwaway containers for integration tests.
//
// Everything except this file is behind the integration build tag:
//
//	go test -tags integration ./internal/objectstore/s3store/...
//
// # MinIO Container
//
// MinIOContainer runs an S3-compatible server with a fixed root user:
//
//	func TestS3Store_Integration(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    minio, err := testinfra.NewMinIOContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, minio.Container)
//
//	    cfg := config.S3Config{Endpoint: minio.Endpoint, UsePathStyle: true, ...}
//	}
//
// Tests are skipped when the Docker daemon is unreachable. The first run
// pulls the image.
package testinfra
