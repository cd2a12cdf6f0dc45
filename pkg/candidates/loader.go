/*
Package candidates loads suggestion lists for triggers from candidate files.

Three file formats are understood, picked by extension:

	people.txt       one value per line, "value<TAB>photo" for a photo, # comments
	tags.toml        values = ["go", "rust"] and/or [[candidate]] value/photo tables
	relations.msgpack  msgpack array of {"v": value, "p": photo}

A Loader reads files synchronously at startup (Load) and refreshes them in the
background while a typeahead is open (Request). Background reads that fail are
retried with a growing delay before the failure is reported on Results.
Files are re-read only when their modification time changes.
*/
package candidates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

// Request asks for a fresh copy of a trigger's candidate file.
// Session, Prefix and Query are echoed back so the caller can match the result
// to the typeahead activation that asked for it.
type Request struct {
	Session uint64
	Prefix  string
	Query   string
	File    string
}

// Result is the outcome of a background Request.
type Result struct {
	Request
	Candidates []trigger.Candidate
	Err        error
}

// LoaderStats provides statistics about the loading process
type LoaderStats struct {
	CachedFiles      int
	CachedCandidates int
	Pending          int
	Failures         int
}

type cacheEntry struct {
	modTime time.Time
	list    []trigger.Candidate
}

type Loader struct {
	dataDir    string
	cache      map[string]cacheEntry
	errorCount map[string]int
	maxRetries int
	retryDelay time.Duration
	requests   chan Request
	results    chan Result
	mu         sync.RWMutex
}

// NewLoader creates a loader resolving relative file names against dataDir.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		dataDir:    dataDir,
		cache:      make(map[string]cacheEntry),
		errorCount: make(map[string]int),
		maxRetries: 3,
		retryDelay: 200 * time.Millisecond,
		requests:   make(chan Request, 16),
		results:    make(chan Result, 16),
	}
}

// SetRetry overrides the retry policy of background loads.
func (l *Loader) SetRetry(maxRetries int, delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxRetries = max(maxRetries, 1)
	l.retryDelay = delay
}

// Resolve maps a configured file name to a path.
func (l *Loader) Resolve(file string) string {
	if filepath.IsAbs(file) || l.dataDir == "" {
		return file
	}
	return filepath.Join(l.dataDir, file)
}

// Load reads file now, serving it from cache while its modification time is unchanged.
func (l *Loader) Load(file string) ([]trigger.Candidate, error) {
	path := l.Resolve(file)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat candidate file %s: %w", path, err)
	}

	l.mu.RLock()
	entry, ok := l.cache[path]
	l.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) {
		return append([]trigger.Candidate(nil), entry.list...), nil
	}

	list, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[path] = cacheEntry{modTime: info.ModTime(), list: list}
	delete(l.errorCount, path)
	l.mu.Unlock()
	return append([]trigger.Candidate(nil), list...), nil
}

// Request queues a background refresh. It never blocks: when the queue is full
// the request is dropped and false is returned.
func (l *Loader) Request(req Request) bool {
	select {
	case l.requests <- req:
		log.Debugf("Queued candidate refresh for %q (%s)", req.Prefix, req.File)
		return true
	default:
		log.Warnf("Refresh queue full, dropping request for %q", req.Prefix)
		return false
	}
}

// Results delivers finished background requests.
func (l *Loader) Results() <-chan Result {
	return l.results
}

// Run serves background requests until ctx is done.
func (l *Loader) Run(ctx context.Context) error {
	for {
		select {
		case req := <-l.requests:
			l.serve(ctx, req)
		case <-ctx.Done():
			return nil
		}
	}
}

func (l *Loader) serve(ctx context.Context, req Request) {
	list, err := l.Load(req.File)
	if err == nil {
		l.deliver(ctx, Result{Request: req, Candidates: list})
		return
	}

	path := l.Resolve(req.File)
	log.Errorf("Failed to load candidates from %s: %v", path, err)

	l.mu.Lock()
	l.errorCount[path]++
	errorCount := l.errorCount[path]
	maxRetries, delay := l.maxRetries, l.retryDelay
	l.mu.Unlock()

	if errorCount >= maxRetries {
		log.Errorf("Candidate file %s failed %d times, giving up", path, errorCount)
		l.mu.Lock()
		delete(l.errorCount, path)
		l.mu.Unlock()
		l.deliver(ctx, Result{Request: req, Err: err})
		return
	}

	log.Debugf("Retrying %s (attempt %d/%d)", path, errorCount+1, maxRetries)
	go func() {
		select {
		case <-time.After(time.Duration(errorCount) * delay):
		case <-ctx.Done():
			return
		}
		select {
		case l.requests <- req:
		case <-ctx.Done():
		}
	}()
}

func (l *Loader) deliver(ctx context.Context, res Result) {
	select {
	case l.results <- res:
	case <-ctx.Done():
	}
}

// Stats returns current loading statistics
func (l *Loader) Stats() LoaderStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := LoaderStats{
		CachedFiles: len(l.cache),
		Pending:     len(l.requests),
	}
	for _, e := range l.cache {
		stats.CachedCandidates += len(e.list)
	}
	for _, n := range l.errorCount {
		stats.Failures += n
	}
	return stats
}
