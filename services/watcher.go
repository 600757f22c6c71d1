package services

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// DirectoryWatcher auto-ingests supported files dropped into a watch
// directory, keeping the corpus in sync with the directory contents.
type DirectoryWatcher struct {
	documents DocumentService
}

// NewDirectoryWatcher creates a watcher over the given document service.
func NewDirectoryWatcher(documents DocumentService) *DirectoryWatcher {
	return &DirectoryWatcher{documents: documents}
}

// ScanDirectory ingests every supported file in the directory that is not
// already registered under its filename. Used once at startup before the
// event loop takes over.
func (w *DirectoryWatcher) ScanDirectory(ctx context.Context, dirPath string) {
	log.Printf("WATCHER: Starting directory scan for: %s", dirPath)

	registered := make(map[string]bool)
	for _, rec := range w.documents.List() {
		registered[rec.Filename] = true
	}

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsSupportedFilename(path) {
			return nil
		}
		name := filepath.Base(path)
		if registered[name] {
			return nil
		}
		log.Printf("WATCHER: Ingesting new file: %s", path)
		if err := w.ingestFile(ctx, path); err != nil {
			log.Printf("WATCHER ERROR: Failed to ingest %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("WATCHER ERROR: Error walking the path %s: %v", dirPath, err)
	}
	log.Println("WATCHER: Directory scan finished.")
}

// Watch blocks until the context is cancelled, re-ingesting files on
// Create/Write and removing them from the corpus on Remove/Rename.
func (w *DirectoryWatcher) Watch(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !IsSupportedFilename(event.Name) {
					continue
				}

				// Many editors write by creating a temp file and renaming,
				// so Create and Write are handled the same way.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-ingesting...", event.Name)
					w.deleteByFilename(ctx, filepath.Base(event.Name))
					if err := w.ingestFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to ingest %s: %v", event.Name, err)
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: File removed/renamed: %s. Removing from corpus...", event.Name)
					w.deleteByFilename(ctx, filepath.Base(event.Name))
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

func (w *DirectoryWatcher) ingestFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = w.documents.Ingest(ctx, content, filepath.Base(path))
	return err
}

// deleteByFilename removes every registered document carrying the given
// filename. Watched files are keyed by name, so re-ingestion replaces all
// prior versions.
func (w *DirectoryWatcher) deleteByFilename(ctx context.Context, filename string) {
	for _, rec := range w.documents.List() {
		if rec.Filename != filename {
			continue
		}
		if err := w.documents.Delete(ctx, rec.ID); err != nil {
			log.Printf("WATCHER ERROR: Failed to delete document %s for %s: %v", rec.ID, filename, err)
		}
	}
}
