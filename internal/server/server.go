package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/user/leekcheck/internal/checker"
	"github.com/user/leekcheck/internal/storage"
	"github.com/user/leekcheck/pkg/sysinfo"
)

const defaultMaxBodyBytes = 4 << 20

type Config struct {
	Port         string
	Workers      int
	QueueSize    int
	MaxBodyBytes int64
	Check        checker.Config
}

// Server exposes key verification over HTTP. Single keys are checked inline
// by /verify; batches become jobs that the worker pool processes while
// clients poll them or follow their progress over a WebSocket.
type Server struct {
	router     *mux.Router
	jobStore   *storage.JobStore
	workerPool *WorkerPool
	sysInfo    *sysinfo.SystemInfo
	upgrader   websocket.Upgrader
	config     Config
	log        logrus.FieldLogger
}

// keyRequest is one uploaded key. The claimed address is taken from
// Claimed when set, otherwise from Filename.
type keyRequest struct {
	Filename string `json:"filename"`
	Claimed  string `json:"claimed"`
	Key      string `json:"key"`
}

type checkRequest struct {
	Keys []keyRequest `json:"keys"`
}

func NewServer(config Config, log logrus.FieldLogger) (*Server, error) {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = config.Workers * 2
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	sysInfo, err := sysinfo.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to collect system info: %w", err)
	}

	jobStore := storage.NewJobStore()

	s := &Server{
		router:   mux.NewRouter(),
		jobStore: jobStore,
		sysInfo:  sysInfo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		config: config,
		log:    log,
	}

	s.workerPool = NewWorkerPool(config.Workers, config.QueueSize, config.Check, jobStore, log)

	s.setupRoutes()
	return s, nil
}

// setupRoutes registers the v1 API:
//
//	GET    /system-info            host facts
//	POST   /verify                 check one key and return its result
//	POST   /checks                 queue a batch job
//	GET    /checks                 list jobs
//	GET    /checks/{id}            one job with its results
//	DELETE /checks/{id}            drop a finished job
//	GET    /checks/{id}/progress   WebSocket progress feed
//	POST   /checks/{id}/terminate  cancel a queued or running job
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/system-info", s.handleSystemInfo).Methods("GET")
	api.HandleFunc("/verify", s.handleVerify).Methods("POST")
	api.HandleFunc("/checks", s.handleCreateCheck).Methods("POST")
	api.HandleFunc("/checks", s.handleListChecks).Methods("GET")
	api.HandleFunc("/checks/{id}", s.handleGetCheck).Methods("GET")
	api.HandleFunc("/checks/{id}", s.handleDeleteCheck).Methods("DELETE")
	api.HandleFunc("/checks/{id}/progress", s.handleCheckProgress).Methods("GET")
	api.HandleFunc("/checks/{id}/terminate", s.handleTerminateCheck).Methods("POST")
}

// Handler returns the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartWorkers starts the job workers without serving HTTP.
func (s *Server) StartWorkers() {
	s.workerPool.Start()
}

// Stop shuts the worker pool down.
func (s *Server) Stop() {
	s.workerPool.Stop()
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.StartWorkers()
	defer s.Stop()

	httpServer := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("port", s.config.Port).Info("leekcheck server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("Shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sysInfo)
}

func (k keyRequest) source(index int) (checker.Source, error) {
	if k.Key == "" {
		return nil, fmt.Errorf("key %d: missing key", index)
	}
	if k.Filename == "" && k.Claimed == "" {
		return nil, fmt.Errorf("key %d: either filename or claimed is required", index)
	}
	name := k.Filename
	if name == "" {
		name = k.Claimed
	}
	return checker.MemorySource{
		SourceName:     name,
		ClaimedAddress: k.Claimed,
		Data:           []byte(k.Key),
	}, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !s.decode(w, r, &req) {
		return
	}

	src, err := req.source(0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := checker.CheckSource(src)
	s.log.WithFields(logrus.Fields{
		"source": result.Source,
		"status": result.Status,
	}).Debug("Verified key")

	writeJSON(w, http.StatusOK, result)
}

// handleCreateCheck validates every key before queueing, so a bad entry
// rejects the whole batch with 400 and no job is created.
func (s *Server) handleCreateCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		http.Error(w, "no keys supplied", http.StatusBadRequest)
		return
	}

	sources := make([]checker.Source, 0, len(req.Keys))
	for i, k := range req.Keys {
		src, err := k.source(i)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sources = append(sources, src)
	}

	job := s.jobStore.Create(sources)
	s.log.WithFields(logrus.Fields{
		"job_id": job.ID,
		"keys":   job.Total,
	}).Info("Created check job")

	if err := s.workerPool.Submit(job.ID); err != nil {
		s.jobStore.UpdateStatus(job.ID, storage.JobFailed)
		s.jobStore.Delete(job.ID)
		http.Error(w, "Server is busy, please try again later", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(storage.JobQueued),
	})
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobStore.List())
}

func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	job, exists := s.jobStore.Get(mux.Vars(r)["id"])
	if !exists {
		http.Error(w, "Check job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteCheck(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, exists := s.jobStore.Get(id)
	if !exists {
		http.Error(w, "Check job not found", http.StatusNotFound)
		return
	}
	if !s.jobStore.Delete(id) {
		http.Error(w, fmt.Sprintf("Check job is %s", job.Status), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTerminateCheck(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, exists := s.jobStore.Get(id); !exists {
		http.Error(w, "Check job not found", http.StatusNotFound)
		return
	}

	if !s.jobStore.UpdateStatus(id, storage.JobTerminated) {
		http.Error(w, "Check job already finished", http.StatusConflict)
		return
	}
	s.workerPool.TerminateJob(id)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  string(storage.JobTerminated),
		"message": "Check termination initiated",
	})
}

// handleCheckProgress streams progress updates of one job, then a final
// message with the job status and summary. Every client gets its own feed,
// starting at the moment it connects.
func (s *Server) handleCheckProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	progress, unsubscribe, exists := s.jobStore.Subscribe(id)
	if !exists {
		http.Error(w, "Check job not found", http.StatusNotFound)
		return
	}
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progress:
			if !ok {
				progress = nil
				continue
			}
			if err := conn.WriteJSON(map[string]any{
				"status":     storage.JobRunning,
				"completed":  false,
				"current":    update.Current,
				"total":      update.Total,
				"percentage": update.Percentage,
				"rate":       update.Rate,
				"source":     update.Source,
				"result":     update.Status,
			}); err != nil {
				return
			}

		case <-ticker.C:
			current, exists := s.jobStore.Get(id)
			if !exists {
				return
			}
			if current.Status.Finished() {
				final := map[string]any{
					"status":    current.Status,
					"completed": true,
				}
				if current.Summary != nil {
					final["summary"] = current.Summary
				}
				conn.WriteJSON(final)
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}
