package status

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	golog "github.com/fclairamb/go-log"
	"github.com/spf13/afero"

	"github.com/mmcdole/azspray/pkg/spray"
)

// DefaultInterval is how often progress is logged when no interval is configured
const DefaultInterval = 30 * time.Second

// StatsProvider exposes the counters of a running spray
type StatsProvider interface {
	Stats() spray.Stats
}

// Heartbeat periodically logs spray progress and, when a status file is
// configured, keeps a snapshot of the counters on disk
type Heartbeat struct {
	interval   time.Duration
	provider   StatsProvider
	logger     golog.Logger
	statusFile string
	fs         afero.Fs
	started    time.Time
	now        func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Heartbeat for provider. A zero interval selects DefaultInterval.
func New(interval time.Duration, provider StatsProvider, logger golog.Logger) (*Heartbeat, error) {
	if provider == nil {
		return nil, fmt.Errorf("stats provider is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if interval < 0 {
		return nil, fmt.Errorf("invalid progress interval %s", interval)
	}
	if interval == 0 {
		interval = DefaultInterval
	}

	return &Heartbeat{
		interval: interval,
		provider: provider,
		logger:   logger,
		fs:       afero.NewOsFs(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}, nil
}

// SetStatusFile makes every beat also write a snapshot to path on fs
func (h *Heartbeat) SetStatusFile(fs afero.Fs, path string) {
	h.fs = fs
	h.statusFile = path
}

// Start begins logging progress every interval until Stop is called
func (h *Heartbeat) Start() {
	h.started = h.now()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.beat("Spray progress")
			case <-h.stopCh:
				return
			}
		}
	}()

	h.logger.Debug("Started progress heartbeat", "interval", h.interval)
}

// Stop ends the heartbeat and logs the final summary. Safe to call more than once.
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.wg.Wait()
		h.beat("Spray finished")
	})
}

func (h *Heartbeat) beat(message string) {
	stats := h.provider.Stats()
	elapsed := h.now().Sub(h.started).Truncate(time.Second)

	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(stats.Attempted) / secs
	}

	h.logger.Info(message,
		"elapsed", elapsed,
		"attempted", stats.Attempted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"unknown", stats.Unknown,
		"in_flight", stats.InFlight,
		"credentials", stats.Credentials,
		"valid_users", stats.ValidUsers,
		"invalid", stats.Invalid,
		"locked", stats.Locked,
		"disabled", stats.Disabled,
		"rate", fmt.Sprintf("%.1f/s", rate),
	)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	h.logger.Debug("Runtime",
		"goroutines", runtime.NumGoroutine(),
		"memory_alloc_mb", memStats.Alloc/1024/1024,
	)

	if h.statusFile != "" {
		if err := h.writeStatusFile(stats, elapsed); err != nil {
			h.logger.Error("Failed to write status file", "file", h.statusFile, "error", err)
		}
	}
}

func (h *Heartbeat) writeStatusFile(stats spray.Stats, elapsed time.Duration) error {
	content := fmt.Sprintf(`timestamp_unix: %d
elapsed_seconds: %d
attempted: %d
skipped: %d
failed: %d
unknown: %d
in_flight: %d
credentials: %d
valid_users: %d
invalid: %d
locked: %d
disabled: %d
`,
		h.now().Unix(),
		int64(elapsed.Seconds()),
		stats.Attempted,
		stats.Skipped,
		stats.Failed,
		stats.Unknown,
		stats.InFlight,
		stats.Credentials,
		stats.ValidUsers,
		stats.Invalid,
		stats.Locked,
		stats.Disabled,
	)
	return atomicWrite(h.fs, h.statusFile, []byte(content))
}

// atomicWrite writes to a temp file and renames it so readers never see a
// partial snapshot
func atomicWrite(fs afero.Fs, path string, content []byte) error {
	tmpPath := path + ".tmp"

	if err := afero.WriteFile(fs, tmpPath, content, 0644); err != nil {
		return err
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return err
	}
	return nil
}
