// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tail

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow collapses bursts of writes to the same file into one
// notification.
const debounceWindow = time.Second

// queueSize bounds pending filesystem events. Overflow drops events rather
// than blocking the watcher goroutine; a dropped event only delays the
// next notification until the file changes again.
const queueSize = 256

// Listener receives the path of a changed log file.
type Listener func(path string)

// Notifier watches a directory tree for *.jsonl changes and invokes
// listeners, debounced per path. When the underlying watcher cannot be
// created the notifier degrades to a no-op so callers keep working with
// manual refresh only.
type Notifier struct {
	root    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu        sync.Mutex
	listeners []Listener
	lastFired map[string]time.Time
	started   bool

	events chan string
	done   chan struct{}
}

// NewNotifier builds a notifier for the tree rooted at root. A watcher
// init failure is logged and yields a disabled notifier, not an error.
func NewNotifier(root string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		root:      root,
		logger:    logger,
		lastFired: make(map[string]time.Time),
		events:    make(chan string, queueSize),
		done:      make(chan struct{}),
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("tail.notifier.disabled", "err", err)
		return n
	}
	n.watcher = w
	return n
}

// Enabled reports whether filesystem watching is active.
func (n *Notifier) Enabled() bool { return n.watcher != nil }

// Subscribe registers fn for change notifications.
func (n *Notifier) Subscribe(fn Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Start begins watching. Disabled notifiers return nil immediately.
func (n *Notifier) Start() error {
	if n.watcher == nil {
		return nil
	}
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return nil
	}
	n.started = true
	n.mu.Unlock()

	if err := n.watchTree(n.root); err != nil {
		return err
	}

	go n.watchLoop()
	go n.consumeLoop()
	n.logger.Info("tail.notifier.start", "root", n.root)
	return nil
}

// Stop ends watching and releases the watcher.
func (n *Notifier) Stop() {
	if n.watcher == nil {
		return
	}
	n.mu.Lock()
	if !n.started {
		n.mu.Unlock()
		n.watcher.Close()
		return
	}
	n.started = false
	n.mu.Unlock()

	close(n.done)
	n.watcher.Close()
}

// watchTree registers root and every subdirectory with the watcher.
func (n *Notifier) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if werr := n.watcher.Add(path); werr != nil {
				n.logger.Warn("tail.notifier.watch.error", "path", path, "err", werr)
			}
		}
		return nil
	})
}

func (n *Notifier) watchLoop() {
	for {
		select {
		case <-n.done:
			return
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			n.handleEvent(ev)
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn("tail.notifier.watcher.error", "err", err)
		}
	}
}

func (n *Notifier) handleEvent(ev fsnotify.Event) {
	// New subdirectories need their own watch to keep the tree covered.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := n.watcher.Add(ev.Name); err != nil {
				n.logger.Warn("tail.notifier.watch.error", "path", ev.Name, "err", err)
			}
			return
		}
	}

	if !strings.HasSuffix(strings.ToLower(ev.Name), ".jsonl") {
		return
	}
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}

	if !n.shouldFire(ev.Name) {
		return
	}

	select {
	case n.events <- ev.Name:
		recordNotification()
	default:
		recordEventDropped()
		n.logger.Warn("tail.notifier.queue.full", "path", ev.Name)
	}
}

// shouldFire applies the per-path debounce window.
func (n *Notifier) shouldFire(path string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now()
	if last, ok := n.lastFired[path]; ok && now.Sub(last) < debounceWindow {
		return false
	}
	n.lastFired[path] = now
	return true
}

// consumeLoop delivers queued paths to listeners one at a time. A panicking
// listener is contained so one bad subscriber cannot kill delivery.
func (n *Notifier) consumeLoop() {
	for {
		select {
		case <-n.done:
			return
		case path := <-n.events:
			n.mu.Lock()
			listeners := make([]Listener, len(n.listeners))
			copy(listeners, n.listeners)
			n.mu.Unlock()

			for _, fn := range listeners {
				n.deliver(fn, path)
			}
		}
	}
}

func (n *Notifier) deliver(fn Listener, path string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("tail.notifier.listener.panic", "path", path, "panic", r)
		}
	}()
	fn(path)
}
