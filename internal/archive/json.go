package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeJSONDurable marshals v and atomically replaces path with it. The
// temp file is synced before the rename so a crash never leaves a partial
// document under the final name.
func writeJSONDurable(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// WriteLatest replaces the latest pointer with a single-entry document.
// The pointer is an array so its readers share the cumulative archive's
// shape.
func WriteLatest(path string, entry Entry) error {
	return writeJSONDurable(path, []Entry{entry})
}

// ReadLatest returns the head entry of the latest pointer.
func ReadLatest(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return Entry{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(entries) == 0 {
		return Entry{}, errors.New("latest pointer is empty")
	}
	return entries[0], nil
}

// Reconcile updates the latest pointer only when its head entry still names
// the expected file. The pointer is re-read immediately before writing, so
// a newer capture archived since the caller last looked wins and the stale
// update is dropped. The boolean result reports whether the mutation was
// applied.
func Reconcile(path, expectedName string, mutate func(*Entry)) (bool, error) {
	entry, err := ReadLatest(path)
	if err != nil {
		return false, err
	}
	if entry.Record.File.Name != expectedName {
		return false, nil
	}
	mutate(&entry)
	if err := WriteLatest(path, entry); err != nil {
		return false, err
	}
	return true, nil
}

// AppendHistory appends an entry to the cumulative archive, creating it on
// first use. An unreadable archive is restarted rather than blocking the
// session.
func AppendHistory(path string, entry Entry) error {
	entries := readHistory(path)
	entries = append(entries, entry)
	return writeJSONDurable(path, entries)
}

// UpdateHistoryByFilename applies the mutation to every archived entry
// whose file name equals, or is contained in, target. The substring form
// covers callers that hold a prefixed local name while the archive stores
// the bare one. Returns the number of entries updated.
func UpdateHistoryByFilename(path, target string, mutate func(*Entry)) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	updated := 0
	for i := range entries {
		if matchesFilename(entries[i].Record.File.Name, target) {
			mutate(&entries[i])
			updated++
		}
	}
	if updated == 0 {
		return 0, nil
	}
	if err := writeJSONDurable(path, entries); err != nil {
		return 0, err
	}
	return updated, nil
}

// FindHistoryByFilename returns the first archived entry whose file name
// matches target.
func FindHistoryByFilename(path, target string) (Entry, bool) {
	for _, entry := range readHistory(path) {
		if matchesFilename(entry.Record.File.Name, target) {
			return entry, true
		}
	}
	return Entry{}, false
}

func matchesFilename(name, target string) bool {
	if name == "" {
		return false
	}
	return name == target || strings.Contains(target, name)
}

func readHistory(path string) []Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}
