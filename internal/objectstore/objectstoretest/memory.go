// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package objectstoretest provides an in-memory objectstore.Store for tests.
package objectstoretest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/dumpwarden/internal/objectstore"
)

// Memory is a thread-safe in-memory Store. Each upload is stamped one second
// after the previous one, starting at Epoch.
type Memory struct {
	// Epoch is the timestamp of the first upload.
	Epoch time.Time

	// UploadErr, ListErr and DeleteErr are returned by the matching calls when set.
	UploadErr error
	ListErr   error
	DeleteErr error

	mu      sync.Mutex
	objects map[string]memObject
	seq     int
	deletes int
}

type memObject struct {
	folder string
	obj    objectstore.Object
	data   []byte
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		Epoch:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		objects: make(map[string]memObject),
	}
}

// Name implements objectstore.Store.
func (m *Memory) Name() string { return "memory" }

// Upload implements objectstore.Store.
func (m *Memory) Upload(_ context.Context, folder, name string, body io.Reader, _ int64) (objectstore.Object, error) {
	if m.UploadErr != nil {
		return objectstore.Object{}, m.UploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return objectstore.Object{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	obj := objectstore.Object{
		ID:         fmt.Sprintf("obj-%04d", m.seq),
		Name:       name,
		Size:       int64(len(data)),
		ModifiedAt: m.Epoch.Add(time.Duration(m.seq) * time.Second),
	}
	m.objects[obj.ID] = memObject{folder: folder, obj: obj, data: data}
	return obj, nil
}

// Put inserts an object with an explicit timestamp, bypassing UploadErr.
func (m *Memory) Put(folder, name string, modifiedAt time.Time) objectstore.Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	obj := objectstore.Object{ID: fmt.Sprintf("obj-%04d", m.seq), Name: name, ModifiedAt: modifiedAt}
	m.objects[obj.ID] = memObject{folder: folder, obj: obj}
	return obj
}

// List implements objectstore.Store. Results are sorted by ID for determinism.
func (m *Memory) List(_ context.Context, folder, prefix string) ([]objectstore.Object, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []objectstore.Object
	for _, o := range m.objects {
		if o.folder == folder && strings.HasPrefix(o.obj.Name, prefix) {
			out = append(out, o.obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete implements objectstore.Store.
func (m *Memory) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		return objectstore.ErrNotFound
	}
	delete(m.objects, id)
	m.deletes++
	return nil
}

// Names returns the object names in folder, sorted.
func (m *Memory) Names(folder string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, o := range m.objects {
		if o.folder == folder {
			names = append(names, o.obj.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Data returns the stored bytes of the named object in folder.
func (m *Memory) Data(folder, name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.objects {
		if o.folder == folder && o.obj.Name == name {
			return o.data, true
		}
	}
	return nil, false
}

// Deletes returns how many objects were deleted.
func (m *Memory) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}
