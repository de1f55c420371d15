package push

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchSource tells the watcher which files to observe.
type WatchSource interface {
	// TaskFiles returns every task file path, existing or not.
	TaskFiles() ([]string, error)
	// ProjectsFile returns the registry path.
	ProjectsFile() string
}

// Watcher observes the supervised task files and the projects registry.
// Bursts of writes within the debounce window collapse into a single
// callback. Editing the registry re-arms the watch list, so a newly
// registered project's task file is picked up without a restart.
type Watcher struct {
	source     WatchSource
	debounce   time.Duration
	onTasks    func()
	onProjects func()
}

// NewWatcher creates a Watcher. onTasks fires after any watched file
// changes; onProjects additionally fires when the registry itself changed.
func NewWatcher(source WatchSource, debounce time.Duration, onTasks, onProjects func()) *Watcher {
	return &Watcher{
		source:     source,
		debounce:   debounce,
		onTasks:    onTasks,
		onProjects: onProjects,
	}
}

// Run watches until ctx is cancelled. Watches are placed on parent
// directories rather than the files themselves: editors and agents commonly
// replace task files by rename, which a direct file watch loses track of.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched, err := w.arm(fw)
	if err != nil {
		return err
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	tasksDirty := false
	projectsDirty := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !watched[name] {
				continue
			}
			if name == filepath.Clean(w.source.ProjectsFile()) {
				projectsDirty = true
				if rearmed, err := w.arm(fw); err == nil {
					watched = rearmed
				}
			}
			tasksDirty = true
			timer.Reset(w.debounce)

		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}

		case <-timer.C:
			if projectsDirty && w.onProjects != nil {
				w.onProjects()
			}
			if tasksDirty && w.onTasks != nil {
				w.onTasks()
			}
			tasksDirty = false
			projectsDirty = false
		}
	}
}

// arm points the watcher at the parent directories of every file of
// interest and returns the set of file paths whose events matter.
// Directories that do not exist yet are skipped; they get another chance on
// the next registry change.
func (w *Watcher) arm(fw *fsnotify.Watcher) (map[string]bool, error) {
	files, err := w.source.TaskFiles()
	if err != nil {
		return nil, fmt.Errorf("arming file watcher: %w", err)
	}
	files = append(files, w.source.ProjectsFile())

	watched := make(map[string]bool, len(files))
	dirs := map[string]bool{}
	for _, f := range files {
		clean := filepath.Clean(f)
		watched[clean] = true
		dirs[filepath.Dir(clean)] = true
	}

	for dir := range dirs {
		// Already-watched dirs are a no-op for fsnotify; missing ones fail.
		_ = fw.Add(dir)
	}
	return watched, nil
}
