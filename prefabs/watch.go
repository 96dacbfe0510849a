package prefabs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadKind classifies which kind of prefab file changed, so consumers can
// decide between re-reading a spec and recompiling a falloff script.
type ReloadKind int

const (
	ReloadSpec ReloadKind = iota
	ReloadScript
)

// ReloadEvent names an edited spec or falloff script.
type ReloadEvent struct {
	Path string
	Kind ReloadKind
}

const debounceWindow = 100 * time.Millisecond

// Watcher reports spec and falloff-script edits so a running simulation can
// retune its fields live. Editors that write in bursts are debounced per
// path.
type Watcher struct {
	fs     *fsnotify.Watcher
	Events chan ReloadEvent
	Errors chan error
	done   chan struct{}
	once   sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:     fs,
		Events: make(chan ReloadEvent, 16),
		Errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
	go w.pump()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) pump() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			kind, ok := classifyReload(event.Name)
			if !ok {
				continue
			}
			now := time.Now()
			if t, seen := last[event.Name]; seen && now.Sub(t) < debounceWindow {
				continue
			}
			last[event.Name] = now
			w.Events <- ReloadEvent{Path: event.Name, Kind: kind}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.Errors <- err
		case <-w.done:
			return
		}
	}
}

// classifyReload maps a changed path to a reload kind; editor droppings and
// unrelated files report false.
func classifyReload(path string) (ReloadKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReloadSpec, true
	case ".tengo":
		return ReloadScript, true
	}
	return 0, false
}
