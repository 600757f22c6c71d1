package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"docchat/models"
)

// registryFilename is the sidecar table next to the vector store data.
const registryFilename = "documents_metadata.json"

// DocumentRegistry is the durable document-id-keyed table of document
// bookkeeping, kept independent of the vector index.
type DocumentRegistry interface {
	Upsert(record models.DocumentRecord) error
	Get(id string) (models.DocumentRecord, bool)
	List() []models.DocumentRecord
	Delete(id string) (bool, error)
	Count() int
	Reset() error
}

// FileRegistry persists the table as a single JSON file. Every mutation is a
// serialized read-modify-write of the whole table, so concurrent ingestions
// and deletions cannot interleave partial writes. A corrupt or unreadable
// file degrades to an empty table and is reported in the log.
type FileRegistry struct {
	path string
	mu   sync.Mutex
}

// NewFileRegistry ensures the storage directory and the registry file exist.
func NewFileRegistry(dir string) (*FileRegistry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	r := &FileRegistry{path: filepath.Join(dir, registryFilename)}
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		if err := r.save(map[string]models.DocumentRecord{}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Upsert inserts or replaces the record for its document identifier.
func (r *FileRegistry) Upsert(record models.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := r.load()
	table[record.ID] = record
	return r.save(table)
}

// Get returns the record for the given identifier.
func (r *FileRegistry) Get(id string) (models.DocumentRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.load()[id]
	return record, ok
}

// List returns all records ordered by upload time.
func (r *FileRegistry) List() []models.DocumentRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := r.load()
	records := make([]models.DocumentRecord, 0, len(table))
	for _, rec := range table {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadTime.Before(records[j].UploadTime)
	})
	return records
}

// Delete removes the record for the given identifier, reporting whether it
// existed.
func (r *FileRegistry) Delete(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := r.load()
	if _, ok := table[id]; !ok {
		return false, nil
	}
	delete(table, id)
	if err := r.save(table); err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of registered documents.
func (r *FileRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.load())
}

// Reset force-clears the table. Called when the vector index has been rebuilt
// under a different embedding model, so no registry entry can point at a
// discarded index.
func (r *FileRegistry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(map[string]models.DocumentRecord{})
}

// load reads the whole table. Callers must hold the mutex.
func (r *FileRegistry) load() map[string]models.DocumentRecord {
	data, err := os.ReadFile(r.path)
	if err != nil {
		log.Printf("REGISTRY WARN: Could not read %s, starting from an empty table: %v", r.path, err)
		return map[string]models.DocumentRecord{}
	}
	var table map[string]models.DocumentRecord
	if err := json.Unmarshal(data, &table); err != nil {
		log.Printf("REGISTRY WARN: %s is corrupt, starting from an empty table: %v", r.path, err)
		return map[string]models.DocumentRecord{}
	}
	if table == nil {
		table = map[string]models.DocumentRecord{}
	}
	return table
}

// save writes the whole table atomically via a temp file and rename. Callers
// must hold the mutex.
func (r *FileRegistry) save(table map[string]models.DocumentRecord) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}
