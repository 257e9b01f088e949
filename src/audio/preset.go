package audio

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// presetManager lists and loads parameter presets from a directory of
// JSON files. The directory is watched so that edits made while the
// engine runs become visible without a restart.
type presetManager struct {
	sync.Mutex
	dir   string
	names []string
}

func newPresetManager(dir string) *presetManager {
	return &presetManager{
		dir: dir,
	}
}

func (pm *presetManager) getList() ([]string, error) {
	pm.Lock()
	defer pm.Unlock()
	if pm.names == nil {
		if err := pm.scan(); err != nil {
			return nil, err
		}
	}
	return pm.names, nil
}

func (pm *presetManager) applyToParams(name string, target *params) error {
	path := filepath.Join(pm.dir, name+".json")
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	target.applyJSON(bytes)
	return nil
}

func (pm *presetManager) scan() error {
	entries, err := os.ReadDir(pm.dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	pm.names = names
	return nil
}

// watch re-scans on any change under the preset directory and marks
// "presets" dirty so the report loop pushes the new list.
func (pm *presetManager) watch(changes *Changes) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(pm.dir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, ".json") {
					continue
				}
				pm.Lock()
				if err := pm.scan(); err != nil {
					log.Printf("preset scan failed: %v", err)
				}
				pm.Unlock()
				changes.Add("presets")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("preset watcher: %v", err)
			}
		}
	}()
	return nil
}
