package services

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RepoWatchDebounce is the debounce window for watcher events.
const RepoWatchDebounce = 600 * time.Millisecond

// watchedNames are the files inside the git directory whose changes mean
// the status may differ: the index for staging, HEAD for commits and
// checkouts.
var watchedNames = map[string]struct{}{
	"index": {},
	"HEAD":  {},
}

// RepoWatchService watches a repository's git directory and signals when
// the index or HEAD changes, including changes made by other tools.
type RepoWatchService struct {
	Started     bool
	Waiting     bool
	GitDir      string
	Events      chan struct{}
	Done        chan struct{}
	Mu          sync.Mutex
	Watcher     *fsnotify.Watcher
	LastRefresh time.Time
	logf        func(string, ...any)
}

// NewRepoWatchService creates a new RepoWatchService.
func NewRepoWatchService(logf func(string, ...any)) *RepoWatchService {
	return &RepoWatchService{logf: logf}
}

// Start watches gitDir and starts the background goroutine. Git replaces
// the index through a rename of index.lock, so the directory is watched
// rather than the files themselves.
func (w *RepoWatchService) Start(gitDir string) (bool, error) {
	if w.Started || gitDir == "" {
		return false, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}
	if err := watcher.Add(gitDir); err != nil {
		_ = watcher.Close()
		return false, err
	}

	w.Started = true
	w.Watcher = watcher
	w.GitDir = gitDir
	w.Events = make(chan struct{}, 1)
	w.Done = make(chan struct{})

	go w.run()
	return true, nil
}

// Stop stops the watcher and closes channels.
func (w *RepoWatchService) Stop() {
	if !w.Started {
		return
	}
	close(w.Done)
	w.Started = false
	if w.Watcher != nil {
		_ = w.Watcher.Close()
	}
}

// NextEvent returns the event channel if waiting is not already active.
func (w *RepoWatchService) NextEvent() <-chan struct{} {
	if w.Events == nil || w.Waiting {
		return nil
	}
	w.Waiting = true
	return w.Events
}

// ResetWaiting clears the waiting flag after an event is processed.
func (w *RepoWatchService) ResetWaiting() {
	w.Waiting = false
}

// ShouldRefresh checks debounce timing for watcher events.
func (w *RepoWatchService) ShouldRefresh(now time.Time) bool {
	w.Mu.Lock()
	defer w.Mu.Unlock()
	if !w.LastRefresh.IsZero() && now.Sub(w.LastRefresh) < RepoWatchDebounce {
		return false
	}
	w.LastRefresh = now
	return true
}

// Signal notifies listeners of watcher activity.
func (w *RepoWatchService) Signal() {
	select {
	case <-w.Done:
		return
	default:
	}
	select {
	case w.Events <- struct{}{}:
	default:
	}
}

// Relevant reports whether an fsnotify event concerns the index or HEAD.
func Relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	_, ok := watchedNames[filepath.Base(event.Name)]
	return ok
}

func (w *RepoWatchService) run() {
	for {
		select {
		case <-w.Done:
			return
		case event, ok := <-w.Watcher.Events:
			if !ok {
				return
			}
			if !Relevant(event) {
				continue
			}
			w.Signal()
		case err, ok := <-w.Watcher.Errors:
			if !ok {
				return
			}
			w.debugf("repo watcher error: %v", err)
		}
	}
}

func (w *RepoWatchService) debugf(format string, args ...any) {
	if w.logf == nil {
		return
	}
	w.logf(format, args...)
}
