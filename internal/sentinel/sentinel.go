// Package sentinel runs the watch loop for a single log file: tail new
// bytes, detect error patterns, debounce repeats, batch snippets for LLM
// analysis, monitor disk space, and append everything to the observation
// file.
package sentinel

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sentinel/internal/analyze"
	"sentinel/internal/config"
	"sentinel/internal/dedup"
	"sentinel/internal/detect"
	"sentinel/internal/disk"
	"sentinel/internal/observe"
	"sentinel/internal/tail"
	"sentinel/internal/ux"
)

// Sidecar files next to the watched log.
const (
	// PauseSuffix marks an external stop request. The file is observed,
	// never deleted; the process that created it owns it.
	PauseSuffix = ".sentinel-pause"

	// PauseRequiredSuffix marks a stop request emitted by the sentinel
	// itself when pause mode hits the critical threshold.
	PauseRequiredSuffix = ".sentinel-pause-required"
)

// Deps are the collaborators a Sentinel runs with. All fields are required
// except StartupNotes.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Console *ux.Console
	Backend analyze.Backend
	Disk    disk.Querier
	Writer  *observe.Writer
	Store   *dedup.Store

	// StartupNotes are recorded right after the header, e.g. the
	// cloud-to-ollama fallback warning.
	StartupNotes []observe.Observation
}

// Sentinel owns one watch loop. Not safe for concurrent use: the design is
// a single logical thread, with blocking analysis calls inflating loop
// latency by intent.
type Sentinel struct {
	cfg     *config.Config
	logger  *zap.Logger
	console *ux.Console
	backend analyze.Backend
	diskq   disk.Querier
	writer  *observe.Writer
	notes   []observe.Observation

	tailer   *tail.Tailer
	detector *detect.Detector
	debounce *dedup.Debouncer
	cache    *dedup.AnalysisCache
	batch    *dedup.Batch

	pausePath         string
	pauseRequiredPath string

	stats         observe.Stats
	lastDiskCheck time.Time
}

// New assembles a Sentinel from its dependencies.
func New(d Deps) *Sentinel {
	cfg := d.Config
	return &Sentinel{
		cfg:     cfg,
		logger:  d.Logger,
		console: d.Console,
		backend: d.Backend,
		diskq:   d.Disk,
		writer:  d.Writer,
		notes:   d.StartupNotes,

		tailer:   tail.New(cfg.Log),
		detector: detect.New(cfg.Context),
		debounce: dedup.NewDebouncer(cfg.GetDebounce(), d.Store),
		cache:    dedup.NewAnalysisCache(cfg.GetCacheTTL(), d.Store),
		batch:    dedup.NewBatch(cfg.GetBatchWindow(), cfg.Watch.BatchLines),

		pausePath:         cfg.Log + PauseSuffix,
		pauseRequiredPath: cfg.Log + PauseRequiredSuffix,
	}
}

// Run executes the watch loop until a pause signal, the critical threshold
// (pause mode), or context cancellation stops it. The trailer is written
// exactly once on every path out.
func (s *Sentinel) Run(ctx context.Context) error {
	start := time.Now()
	meta := observe.SessionMeta{
		SessionID: uuid.NewString(),
		LogPath:   s.cfg.Log,
		Mode:      s.cfg.Mode,
		Backend:   s.backend.Name(),
		Context:   s.cfg.Context,
		Interval:  s.cfg.GetInterval(),
		StartedAt: start,
	}
	if err := s.writer.Header(meta); err != nil {
		return err
	}
	for _, obs := range s.notes {
		s.record(obs)
	}

	s.console.Banner(s.cfg.Log, s.cfg.Mode, s.backend.Name())
	s.logger.Info("sentinel watching",
		zap.String("log", s.cfg.Log),
		zap.String("mode", s.cfg.Mode),
		zap.String("backend", s.backend.Name()),
		zap.Duration("interval", s.cfg.GetInterval()))

	reason := s.loop(ctx)

	stopped := time.Now()
	sum := observe.Summary{
		StoppedAt:      stopped,
		Reason:         reason,
		Duration:       stopped.Sub(start),
		Observations:   s.stats.Observations,
		CriticalIssues: s.stats.CriticalIssues,
		AnalysisCalls:  s.stats.AnalysisCalls,
		CacheReplays:   s.stats.CacheReplays,
		PendingBatch:   s.batch.Len(),
	}
	if err := s.writer.Trailer(sum); err != nil {
		s.logger.Warn("failed to write session trailer", zap.Error(err))
	}
	s.console.Note("sentinel stopped: " + reason)
	s.logger.Info("sentinel stopped",
		zap.String("reason", reason),
		zap.Int("observations", s.stats.Observations),
		zap.Int("critical", s.stats.CriticalIssues),
		zap.Int("analysis_calls", s.stats.AnalysisCalls),
		zap.Int("cache_replays", s.stats.CacheReplays))
	return nil
}

// loop iterates until something stops it, sleeping on a ticker between
// iterations. A write event on the watched log wakes it early; polling
// stays authoritative, the event is only an accelerator.
func (s *Sentinel) loop(ctx context.Context) string {
	ticker := time.NewTicker(s.cfg.GetInterval())
	defer ticker.Stop()

	wake, closeNotify := s.notifyChannel()
	defer closeNotify()

	for {
		if reason, stop := s.iterate(ctx, time.Now()); stop {
			return reason
		}
		select {
		case <-ctx.Done():
			return "interrupted"
		case <-ticker.C:
		case _, ok := <-wake:
			if !ok {
				wake = nil
			}
		}
	}
}

// iterate runs one poll cycle. It returns stop=true with a human-readable
// reason when the loop must end.
func (s *Sentinel) iterate(ctx context.Context, now time.Time) (reason string, stop bool) {
	if s.pauseRequested() {
		s.record(observe.Observation{
			Time:     now,
			Severity: observe.SeverityInfo,
			Category: observe.CategorySentinel,
			Message:  fmt.Sprintf("Pause signal observed at %s; stopping.", s.pausePath),
		})
		return "pause signal", true
	}

	s.pollLog(now)

	if s.batch.Due(now) {
		s.flushBatch(ctx, now)
	}

	s.checkDisk(now)

	if s.cfg.Mode == config.ModePause && s.stats.CriticalIssues >= s.cfg.Watch.CriticalThreshold {
		s.requestPause(now)
		return "critical threshold", true
	}
	return "", false
}

// pollLog reads appended bytes and turns pattern matches into debounced
// observations and batch entries.
func (s *Sentinel) pollLog(now time.Time) {
	data, err := s.tailer.Next()
	if err != nil {
		if err == tail.ErrNotFound {
			s.logger.Debug("log file absent, backing off", zap.String("log", s.cfg.Log))
		} else {
			s.logger.Warn("failed to read log", zap.Error(err))
		}
		return
	}
	if len(data) == 0 {
		return
	}

	match := s.detector.Scan(data)
	if !match.Found() {
		return
	}

	sig := detect.Signature(match.Snippet)
	if !s.debounce.ShouldReport(sig, now) {
		s.logger.Debug("signature debounced", zap.String("signature", sig))
		return
	}

	s.record(observe.Observation{
		Time:     now,
		Severity: observe.SeverityError,
		Category: observe.CategoryLogPattern,
		Message:  fmt.Sprintf("Signature `%s`: %d matching line(s) in new log content.", sig, match.Lines),
		Snippet:  match.Snippet,
	})
	if err := s.debounce.MarkReported(sig, now); err != nil {
		s.logger.Warn("failed to persist debounce record", zap.Error(err))
	}
	s.batch.Add(sig, match.Snippet, now)
}

// flushBatch resolves every buffered signature: cache hits replay, misses
// pay for one backend call. A failed call discards the rest of the batch
// with no cache write and no observation; the next batch is a fresh
// attempt.
func (s *Sentinel) flushBatch(ctx context.Context, now time.Time) {
	entries := s.batch.Drain()
	s.logger.Debug("flushing batch", zap.Int("entries", len(entries)))

	for _, e := range entries {
		if text, ok := s.cache.Get(e.Signature, now); ok {
			s.stats.CacheReplays++
			s.recordAnalysis(e.Signature, text, now, true)
			continue
		}

		text, err := s.backend.Analyze(ctx, e.Snippet)
		if err != nil {
			s.logger.Warn("analysis call failed, discarding batch",
				zap.String("signature", e.Signature),
				zap.Error(err))
			return
		}
		s.stats.AnalysisCalls++
		if err := s.cache.Put(e.Signature, text, now); err != nil {
			s.logger.Warn("failed to persist analysis cache", zap.Error(err))
		}
		s.recordAnalysis(e.Signature, text, now, false)
	}
}

func (s *Sentinel) recordAnalysis(sig, text string, now time.Time, replay bool) {
	report := analyze.ParseReport(text)
	sev, ok := observe.ParseSeverity(report.Severity)
	if !ok {
		sev = observe.SeverityInfo
	}

	msg := fmt.Sprintf("Analysis for signature `%s` via %s.", sig, s.backend.Name())
	if replay {
		msg = fmt.Sprintf("Cached analysis replayed for signature `%s`.", sig)
	}
	s.record(observe.Observation{
		Time:       now,
		Severity:   sev,
		Category:   observe.CategoryAnalysis,
		Message:    msg,
		Detail:     text,
		Suggestion: report.SuggestedAction,
	})
}

// checkDisk classifies free space on its own interval, independent of log
// growth. Query failures are logged and skipped: unknown is not a finding.
func (s *Sentinel) checkDisk(now time.Time) {
	if now.Sub(s.lastDiskCheck) < s.cfg.GetDiskInterval() {
		return
	}
	s.lastDiskCheck = now

	free, err := s.diskq.FreeGB(s.cfg.Disk.Path)
	if err != nil {
		s.logger.Warn("disk query failed, skipping classification", zap.Error(err))
		return
	}

	level := disk.Classify(free)
	if level == disk.LevelOK {
		return
	}

	sev := observe.SeverityWarn
	if level == disk.LevelCritical {
		sev = observe.SeverityCritical
	}
	s.record(observe.Observation{
		Time:     now,
		Severity: sev,
		Category: observe.CategoryDiskSpace,
		Message:  fmt.Sprintf("%.1f GB free on %s (%s threshold).", free, s.cfg.Disk.Path, level),
	})
}

// pauseRequested reports whether the external pause file exists. The file
// is left in place.
func (s *Sentinel) pauseRequested() bool {
	_, err := os.Stat(s.pausePath)
	return err == nil
}

// requestPause writes the pause-required marker and records why.
func (s *Sentinel) requestPause(now time.Time) {
	content := fmt.Sprintf("%s\ncritical threshold reached: %d critical observation(s)\n",
		now.Format(time.RFC3339), s.stats.CriticalIssues)
	if err := os.WriteFile(s.pauseRequiredPath, []byte(content), 0644); err != nil {
		s.logger.Warn("failed to write pause-required marker", zap.Error(err))
	}
	s.record(observe.Observation{
		Time:     now,
		Severity: observe.SeverityWarn,
		Category: observe.CategorySentinel,
		Message: fmt.Sprintf("Critical threshold reached (%d); wrote %s and stopping.",
			s.stats.CriticalIssues, s.pauseRequiredPath),
	})
}

// record appends an observation, counts it, and mirrors it to the console
// in alert and pause modes.
func (s *Sentinel) record(obs observe.Observation) {
	if err := s.writer.Record(obs); err != nil {
		s.logger.Warn("failed to append observation", zap.Error(err))
		return
	}
	s.stats.Count(obs)
	if s.cfg.Mode != config.ModeObserve {
		s.console.Alert(obs.Severity, obs.Message)
	}
}

// Stats returns a copy of the session counters.
func (s *Sentinel) Stats() observe.Stats {
	return s.stats
}
