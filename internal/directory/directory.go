// Package directory manages the persisted mapping from alert severity to
// notification recipients.
package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/good-yellow-bee/alertbridge/internal/models"
)

var (
	// ErrUnknownSeverity is returned for a severity with no bucket.
	ErrUnknownSeverity = errors.New("unknown severity")
	// ErrDuplicateRecipient is returned when adding a recipient that
	// already exists in the severity bucket.
	ErrDuplicateRecipient = errors.New("recipient already registered for this severity")
	// ErrRecipientNotFound is returned when removing an unknown recipient.
	ErrRecipientNotFound = errors.New("recipient not found")
)

// Directory is a JSON-file-backed recipient directory keyed by severity.
// The in-memory cache is the source of truth between file syncs; every
// mutation is written through atomically.
type Directory struct {
	mu      sync.RWMutex
	path    string
	buckets map[models.Severity][]string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Open loads the directory from path, creating the default (empty)
// document if the file does not exist.
func Open(path string) (*Directory, error) {
	d := &Directory{
		path: path,
		done: make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	if err := d.load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		d.buckets = emptyBuckets()
		if err := d.persist(); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func emptyBuckets() map[models.Severity][]string {
	m := make(map[models.Severity][]string, len(models.Severities))
	for _, sev := range models.Severities {
		m[sev] = []string{}
	}
	return m
}

// load reads the JSON document into the cache. Buckets missing from the
// file are created empty so older documents stay usable.
func (d *Directory) load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("read recipients file: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse recipients file: %w", err)
	}

	buckets := emptyBuckets()
	for key, phones := range raw {
		sev, ok := models.ParseSeverity(key)
		if !ok {
			log.Printf("recipients file: skipping unknown severity %q", key)
			continue
		}
		for _, p := range phones {
			if !contains(buckets[sev], p) {
				buckets[sev] = append(buckets[sev], p)
			}
		}
	}

	d.mu.Lock()
	d.buckets = buckets
	d.mu.Unlock()
	return nil
}

// persist writes the cache to disk atomically (temp file + rename).
// Callers must hold at least a read lock.
func (d *Directory) persist() error {
	data, err := json.MarshalIndent(d.buckets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recipients: %w", err)
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("write recipients file: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("replace recipients file: %w", err)
	}
	return nil
}

// Recipients returns the recipients registered for a severity.
func (d *Directory) Recipients(sev models.Severity) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	bucket, ok := d.buckets[sev]
	if !ok {
		return nil, ErrUnknownSeverity
	}
	out := make([]string, len(bucket))
	copy(out, bucket)
	return out, nil
}

// All returns a copy of the full severity -> recipients mapping.
func (d *Directory) All() map[models.Severity][]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[models.Severity][]string, len(d.buckets))
	for sev, bucket := range d.buckets {
		cp := make([]string, len(bucket))
		copy(cp, bucket)
		out[sev] = cp
	}
	return out
}

// Add registers a recipient under a severity. Duplicates within a bucket
// are rejected.
func (d *Directory) Add(sev models.Severity, phone string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	bucket, ok := d.buckets[sev]
	if !ok {
		return ErrUnknownSeverity
	}
	if contains(bucket, phone) {
		return ErrDuplicateRecipient
	}

	d.buckets[sev] = append(bucket, phone)
	if err := d.persist(); err != nil {
		d.buckets[sev] = d.buckets[sev][:len(d.buckets[sev])-1]
		return err
	}
	return nil
}

// Remove deletes a recipient from a severity bucket.
func (d *Directory) Remove(sev models.Severity, phone string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	bucket, ok := d.buckets[sev]
	if !ok {
		return ErrUnknownSeverity
	}

	idx := -1
	for i, p := range bucket {
		if p == phone {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrRecipientNotFound
	}

	trimmed := make([]string, 0, len(bucket)-1)
	trimmed = append(trimmed, bucket[:idx]...)
	trimmed = append(trimmed, bucket[idx+1:]...)
	d.buckets[sev] = trimmed
	if err := d.persist(); err != nil {
		d.buckets[sev] = bucket
		return err
	}
	return nil
}

// Watch starts reloading the cache when the recipients file is modified
// outside the process. Stop with Close.
func (d *Directory) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: atomic renames replace the inode.
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch recipients directory: %w", err)
	}
	d.watcher = watcher

	go d.watchLoop()
	return nil
}

func (d *Directory) watchLoop() {
	base := filepath.Base(d.path)
	for {
		select {
		case <-d.done:
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := d.load(); err != nil {
				log.Printf("recipients reload failed: %v", err)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("recipients watcher error: %v", err)
		}
	}
}

// Close stops the file watcher if one is running.
func (d *Directory) Close() error {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
