// BSD 2-Clause License
//
// Copyright (c) 2020, Andrea Giacomo Baldan
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/codehive/execengine/submission"
)

// Submission cap; bigger payloads are rejected before decoding.
const maxBodyBytes = 1 << 20

type submitResponse struct {
	SubmissionID        string `json:"submissionId"`
	Status              string `json:"status"`
	QueuePosition       int    `json:"queuePosition"`
	EstimatedWaitTimeMs int64  `json:"estimatedWaitTimeMs"`
	StatusURL           string `json:"statusUrl"`
	ResultsURL          string `json:"resultsUrl"`
}

type cancelResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID string `json:"submissionId"`
}

type healthResponse struct {
	Status             string `json:"status"`
	QueueSize          int64  `json:"queueSize"`
	ActiveWorkers      int    `json:"activeWorkers"`
	AvgExecutionTimeMs int64  `json:"avgExecutionTimeMs"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req submission.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if msg, ok := validate(&req); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := s.queue.Enqueue(r.Context(), &req)
	if err != nil {
		s.logger.Errorf("enqueue: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue submission")
		return
	}

	position, _ := s.queue.PositionOf(r.Context(), id)
	writeJSON(w, http.StatusAccepted, submitResponse{
		SubmissionID:        id,
		Status:              string(submission.StateQueued),
		QueuePosition:       position,
		EstimatedWaitTimeMs: s.queue.EstimatedWait(r.Context()).Milliseconds(),
		StatusURL:           "/status/" + id,
		ResultsURL:          "/results/" + id,
	})
}

// validate performs the synchronous intake checks. Metadata is not
// required here; a submission without it is accepted and failed by the
// worker so the caller still gets a trackable record.
func validate(req *submission.Request) (string, bool) {
	if !req.Language.Valid() {
		return fmt.Sprintf("unsupported language %q", req.Language), false
	}
	if req.Code == "" {
		return "code must not be empty", false
	}
	if req.InputCount() < 1 {
		return "at least one test case is required", false
	}
	return "", true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeStatusRecord(w, r)
}

// handleResults serves the same record as handleStatus; the split URL
// lets callers poll a lightweight path and fetch results once terminal.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.writeStatusRecord(w, r)
}

func (s *Server) writeStatusRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status, err := s.queue.GetStatus(r.Context(), id)
	if err != nil {
		s.logger.Errorf("status %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load submission")
		return
	}
	if status == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cancelled, err := s.queue.Cancel(r.Context(), id)
	if err != nil {
		s.logger.Errorf("cancel %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to cancel submission")
		return
	}
	resp := cancelResponse{Success: cancelled, SubmissionID: id}
	if cancelled {
		resp.Message = "submission cancelled"
	} else {
		resp.Message = "submission is not queued, cannot cancel"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	size, err := s.queue.Size(r.Context())
	if err != nil {
		s.logger.Errorf("queue size: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "DOWN"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:             "UP",
		QueueSize:          size,
		ActiveWorkers:      s.pool.ActiveWorkers(),
		AvgExecutionTimeMs: s.pool.AvgExecutionTimeMs(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
