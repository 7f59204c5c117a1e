package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/filehandler"
	"github.com/Tirth2116/OceanEye/internal/jobs"
	"github.com/Tirth2116/OceanEye/internal/progress"
)

// submitResponse is returned by POST /upload-video.
type submitResponse struct {
	Started   bool   `json:"started"`
	JobID     string `json:"job_id"`
	PID       int    `json:"pid"`
	Input     string `json:"input"`
	Output    string `json:"output"`
	Log       string `json:"log"`
	StatusURL string `json:"status_url"`
	Note      string `json:"note"`
}

// statusResponse is returned by GET /jobs/{id}/status.
type statusResponse struct {
	jobs.Record
	OutputExists    bool          `json:"output_exists"`
	OutputURL       *string       `json:"output_url"`
	ProgressPercent *float64      `json:"progress_percent"`
	ProgressKind    progress.Kind `json:"progress_kind"`
	LogTail         []string      `json:"log_tail"`
}

// POST /upload-video (multipart field "file")
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	up, uerr := s.receiveUpload(w, r)
	if uerr != nil {
		httpError(w, uerr.status, uerr.message)
		return
	}
	defer up.Close()

	name := filehandler.SecureFilename(up.filename)
	if name == "" {
		name = fmt.Sprintf("upload_%d.mp4", s.now().UnixMilli())
	}
	if !filehandler.IsVideo(filepath.Ext(name)) {
		httpError(w, http.StatusBadRequest, "Only MP4 videos are supported")
		return
	}

	inputPath := filepath.Join(s.cfg.UploadsDir, name)
	if err := up.SaveTo(inputPath); err != nil {
		log.Error().Err(err).Str("path", inputPath).Msg("Failed to save uploaded video")
		httpError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	rec, err := s.supervisor.Submit(inputPath)
	if err != nil {
		var spawnErr *jobs.SpawnError
		if errors.As(err, &spawnErr) {
			respondJSON(w, http.StatusInternalServerError, map[string]string{
				"error":  rec.Error,
				"job_id": rec.ID,
			})
			return
		}
		log.Error().Err(err).Msg("Failed to submit job")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, submitResponse{
		Started:   true,
		JobID:     rec.ID,
		PID:       rec.PID,
		Input:     rec.InputPath,
		Output:    rec.OutputPath,
		Log:       rec.LogPath,
		StatusURL: "/jobs/" + rec.ID + "/status",
		Note:      "Processing started. Poll /jobs/<job_id>/status for updates.",
	})
}

// GET /jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, http.StatusOK, map[string][]jobs.Record{"jobs": s.supervisor.List()})
}

// handleJobRoutes dispatches /jobs/{id} and /jobs/{id}/status.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	jobID, action, ok := jobs.ParseRoute(r.URL.Path, "/jobs/")
	if !ok {
		httpError(w, http.StatusNotFound, "job not found")
		return
	}

	switch action {
	case "", "status":
		s.handleJobStatus(w, r, jobID)
	default:
		httpError(w, http.StatusNotFound, "not found")
	}
}

// GET /jobs/{id}/status
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	report, err := s.supervisor.Status(jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		httpError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := statusResponse{
		Record:       report.Record,
		OutputExists: report.OutputExists,
		ProgressKind: report.Progress.Kind,
		LogTail:      report.LogTail,
	}
	if resp.LogTail == nil {
		resp.LogTail = []string{}
	}
	if report.Progress.Known() {
		pct := report.Progress.Percent
		resp.ProgressPercent = &pct
	}
	if report.OutputExists {
		url := fmt.Sprintf("%s/outputs/%s?v=%d", baseURL(r), filepath.Base(report.OutputPath), report.OutputModTime.Unix())
		resp.OutputURL = &url
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /outputs/{file}
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		requireMethod(w, r, http.MethodGet)
		return
	}

	name := r.URL.Path[len("/outputs/"):]
	if name == "" || containsPathTraversal(name) {
		httpError(w, http.StatusBadRequest, "invalid path")
		return
	}

	path := filepath.Join(s.cfg.OutputsDir, filepath.FromSlash(name))
	f, err := os.Open(path)
	if err != nil {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	if mimeType, err := filehandler.GetMIMEType(filepath.Ext(name)); err == nil {
		w.Header().Set("Content-Type", mimeType)
	}
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type, Content-Length")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
