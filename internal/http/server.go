package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/markliwag/casetrack/internal/log"
	"github.com/markliwag/casetrack/pkg/service"
	"github.com/markliwag/casetrack/pkg/storage"
	"github.com/pkg/errors"
)

// StartServer wires the handlers and serves until the listener fails.
func StartServer(port string, store storage.Store) error {
	svc := service.NewCaseService(store, log.GetLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/cases", CasesHandler(svc))
	mux.HandleFunc("/cases/", CaseByIDHandler(svc))

	log.GetLogger().Infof("Starting casetrack server on :%s", port)
	return http.ListenAndServe(":"+port, mux)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "casetrack server is running")
}

// CasesHandler serves the collection: GET lists rendered case records,
// POST creates a case with its step pipeline.
func CasesHandler(svc *service.CaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listCasesHTTP(w, r, svc)
		case http.MethodPost:
			createCaseHTTP(w, r, svc)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// CaseByIDHandler serves /cases/{id} and /cases/{id}/advance.
func CaseByIDHandler(svc *service.CaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/cases/")
		parts := strings.Split(strings.Trim(rest, "/"), "/")

		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid case ID")
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			getCaseHTTP(w, svc, id)
		case len(parts) == 2 && parts[1] == "advance" && r.Method == http.MethodPost:
			advanceCaseHTTP(w, svc, id)
		case len(parts) == 2 && parts[1] == "notify" && r.Method == http.MethodPost:
			notifyCaseHTTP(w, r, svc, id)
		default:
			writeError(w, http.StatusNotFound, "Not found")
		}
	}
}

type createCaseRequest struct {
	CandidateFullname string     `json:"candidate_fullname"`
	CandidateEmail    string     `json:"candidate_email"`
	DueDate           *time.Time `json:"due_date"`
	Panels            []string   `json:"panels"`
}

func createCaseHTTP(w http.ResponseWriter, r *http.Request, svc *service.CaseService) {
	var req createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.GetLogger().Errorf("Invalid JSON in POST /cases: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.CandidateFullname == "" {
		log.GetLogger().Error("Missing 'candidate_fullname' parameter in POST /cases")
		writeError(w, http.StatusBadRequest, "Missing 'candidate_fullname' parameter")
		return
	}
	if req.CandidateEmail == "" {
		log.GetLogger().Error("Missing 'candidate_email' parameter in POST /cases")
		writeError(w, http.StatusBadRequest, "Missing 'candidate_email' parameter")
		return
	}

	id, err := svc.CreateCase(req.CandidateFullname, req.CandidateEmail, req.DueDate, req.Panels)
	if err != nil {
		log.GetLogger().Errorf("Failed to create case: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create case: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"message": fmt.Sprintf("Created case for '%s' with ID %d", req.CandidateFullname, id),
	})
}

func listCasesHTTP(w http.ResponseWriter, r *http.Request, svc *service.CaseService) {
	_ = r
	records, err := svc.ListCaseRecords()
	if err != nil {
		log.GetLogger().Errorf("Failed to list cases: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list cases: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": records,
	})
}

func getCaseHTTP(w http.ResponseWriter, svc *service.CaseService, id int64) {
	record, err := svc.GetCaseRecord(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Case %d not found", id))
			return
		}
		log.GetLogger().Errorf("Failed to get case %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get case: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func advanceCaseHTTP(w http.ResponseWriter, svc *service.CaseService, id int64) {
	seq, err := svc.AdvanceCase(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Case %d not found", id))
			return
		}
		log.GetLogger().Errorf("Failed to advance case %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to advance case: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                   id,
		"current_step_number":  seq.Current,
		"previous_step_number": seq.Previous,
		"next_step_number":     seq.Next,
	})
}

type notifyRequest struct {
	Notified *bool `json:"applicant_has_been_notified"`
}

func notifyCaseHTTP(w http.ResponseWriter, r *http.Request, svc *service.CaseService, id int64) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	notified := true
	if req.Notified != nil {
		notified = *req.Notified
	}
	if err := svc.UpdateApplicantNotified(id, notified); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Case %d not found", id))
			return
		}
		log.GetLogger().Errorf("Failed to update case %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update case: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                          id,
		"applicant_has_been_notified": notified,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
