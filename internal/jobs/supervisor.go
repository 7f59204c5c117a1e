package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/logtail"
	"github.com/Tirth2116/OceanEye/internal/metrics"
	"github.com/Tirth2116/OceanEye/internal/progress"
)

const (
	// DefaultOutputName is the single output slot every job writes to. Each
	// submission replaces the previous output.
	DefaultOutputName = "output.mp4"
	// DefaultTailLines bounds how much of a job log a status poll reads.
	DefaultTailLines = 50
)

// SupervisorConfig controls where jobs write and how they are launched.
type SupervisorConfig struct {
	OutputsDir string
	OutputName string
	TailLines  int
	Worker     WorkerCommand
}

// Supervisor starts one worker per submitted video and tracks it to completion.
type Supervisor struct {
	registry *Registry
	launcher Launcher
	cfg      SupervisorConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewSupervisor wires a supervisor to its registry and launcher. m may be nil.
func NewSupervisor(registry *Registry, launcher Launcher, cfg SupervisorConfig, m *metrics.Metrics) *Supervisor {
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = DefaultTailLines
	}
	return &Supervisor{
		registry: registry,
		launcher: launcher,
		cfg:      cfg,
		metrics:  m,
		now:      time.Now,
	}
}

// OutputPath is the fixed location every job writes its annotated video to.
func (s *Supervisor) OutputPath() string {
	return filepath.Join(s.cfg.OutputsDir, s.cfg.OutputName)
}

// Submit registers a job for inputPath and starts its worker. The input is not
// validated here. On success the returned record is already running and a
// watcher owns the process. If the worker cannot be started the record ends in
// the error state and a *SpawnError is returned alongside it.
func (s *Supervisor) Submit(inputPath string) (Record, error) {
	id := GenerateID()
	outputPath := s.OutputPath()
	logPath := filepath.Join(s.cfg.OutputsDir, fmt.Sprintf("job_%s.log", id))

	rec := Record{
		ID:         id,
		Status:     StatusStarting,
		InputPath:  inputPath,
		OutputPath: outputPath,
		LogPath:    logPath,
		CreatedAt:  s.now(),
	}
	if err := s.registry.add(rec); err != nil {
		return Record{}, err
	}
	s.metrics.JobSubmitted()
	log.Info().Str("job_id", id).Str("input", inputPath).Msg("Starting video job")

	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		// The worker overwrites the file anyway.
		log.Warn().Err(err).Str("job_id", id).Str("output", outputPath).Msg("Failed to remove stale output")
	}

	if err := s.cfg.Worker.Validate(); err != nil {
		return s.failSpawn(id, err)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return s.failSpawn(id, fmt.Errorf("create job log: %w", err))
	}

	name, args := s.cfg.Worker.Args(inputPath, outputPath)
	proc, err := s.launcher.Start(name, args, logFile)
	if err != nil {
		logFile.Close()
		return s.failSpawn(id, err)
	}

	running, err := s.registry.transition(id, StatusRunning, func(r *Record) {
		r.PID = proc.PID()
	})
	if err != nil {
		// Only this goroutine has touched the record so far.
		log.Error().Err(err).Str("job_id", id).Msg("Failed to mark job running")
	}
	log.Info().Str("job_id", id).Int("pid", running.PID).Str("log", logPath).Msg("Worker started")

	go s.watch(id, proc, logFile, outputPath)
	return running, nil
}

func (s *Supervisor) failSpawn(id string, cause error) (Record, error) {
	spawnErr := &SpawnError{JobID: id, Err: cause}
	ended := s.now()
	rec, err := s.registry.transition(id, StatusError, func(r *Record) {
		r.Error = spawnErr.Error()
		r.EndedAt = &ended
	})
	if err != nil {
		log.Error().Err(err).Str("job_id", id).Msg("Failed to record spawn failure")
	}
	s.metrics.SpawnFailed()
	s.metrics.JobCompleted(string(StatusError))
	log.Error().Err(cause).Str("job_id", id).Msg("Failed to start worker")
	return rec, spawnErr
}

// watch is the single writer of a job's terminal state.
func (s *Supervisor) watch(id string, proc Process, logFile *os.File, outputPath string) {
	code, waitErr := proc.Wait()
	if err := logFile.Close(); err != nil {
		log.Warn().Err(err).Str("job_id", id).Msg("Failed to close job log")
	}
	ended := s.now()

	outputExists := fileExists(outputPath)
	to := StatusError
	var reason string
	switch {
	case waitErr != nil:
		reason = fmt.Sprintf("wait for worker: %v", waitErr)
	case code != 0:
		reason = fmt.Sprintf("worker exited with code %d", code)
	case !outputExists:
		reason = "worker exited without writing output"
	default:
		to = StatusFinished
	}

	rec, err := s.registry.transition(id, to, func(r *Record) {
		r.ExitCode = &code
		r.EndedAt = &ended
		r.Error = reason
	})
	if err != nil {
		log.Error().Err(err).Str("job_id", id).Msg("Failed to record job completion")
		return
	}
	s.metrics.JobCompleted(string(to))

	var evt *zerolog.Event
	if to == StatusError {
		evt = log.Warn().Str("reason", reason)
	} else {
		evt = log.Info()
	}
	evt.Str("job_id", id).
		Int("exit_code", code).
		Dur("elapsed", ended.Sub(rec.CreatedAt)).
		Msgf("Job %s", to)
}

// StatusReport is a record snapshot plus what a poll learns from disk.
type StatusReport struct {
	Record
	LogTail       []string
	Progress      progress.Progress
	OutputExists  bool
	OutputModTime time.Time
}

// Status returns the current state of a job. Reading the log while the worker
// writes it is expected; a partial view is returned rather than an error.
func (s *Supervisor) Status(id string) (StatusReport, error) {
	rec, ok := s.registry.Get(id)
	if !ok {
		return StatusReport{}, ErrNotFound
	}

	tail, err := logtail.Lines(rec.LogPath, s.cfg.TailLines)
	if err != nil {
		log.Debug().Err(err).Str("job_id", id).Msg("Failed to read job log tail")
	}

	p := progress.Parse(tail)
	if rec.Status == StatusFinished {
		p = progress.Exact(100)
	}
	p = s.registry.observe(id, p)

	report := StatusReport{Record: rec, LogTail: tail, Progress: p}
	if info, err := os.Stat(rec.OutputPath); err == nil && !info.IsDir() {
		report.OutputExists = true
		report.OutputModTime = info.ModTime()
	}
	return report, nil
}

// List returns snapshots of every job, oldest first.
func (s *Supervisor) List() []Record {
	return s.registry.List()
}

// Wait blocks until the job reaches a terminal state or ctx is done.
func (s *Supervisor) Wait(ctx context.Context, id string) (Record, error) {
	done, ok := s.registry.doneChan(id)
	if !ok {
		return Record{}, ErrNotFound
	}
	select {
	case <-done:
		rec, _ := s.registry.Get(id)
		return rec, nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
