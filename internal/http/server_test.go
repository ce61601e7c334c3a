package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	internal_http "github.com/markliwag/casetrack/internal/http"
	"github.com/markliwag/casetrack/internal/log"
	internal_storage "github.com/markliwag/casetrack/internal/storage"
	"github.com/markliwag/casetrack/internal/testutil"
	"github.com/markliwag/casetrack/pkg/service"
	"github.com/markliwag/casetrack/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestE2EServer(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	newServer := func(store storage.Store) *httptest.Server {
		svc := service.NewCaseService(store, log.GetLogger())
		mux := http.NewServeMux()
		mux.HandleFunc("/health", internal_http.HealthHandler)
		mux.HandleFunc("/cases", internal_http.CasesHandler(svc))
		mux.HandleFunc("/cases/", internal_http.CaseByIDHandler(svc))
		return httptest.NewServer(mux)
	}

	newTestStore := func(t *testing.T) storage.Store {
		store, err := internal_storage.InitStore(testDB.ConnStr)
		assert.NoError(t, err)
		t.Cleanup(func() {
			_, err := testDB.DB.Exec("TRUNCATE TABLE cases RESTART IDENTITY CASCADE")
			assert.NoError(t, err)
			store.Close()
		})
		return store
	}

	createCase := func(t *testing.T, srv *httptest.Server, body string) int64 {
		req, err := http.NewRequest("POST", srv.URL+"/cases", bytes.NewBufferString(body))
		assert.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := srv.Client().Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var created struct {
			ID int64 `json:"id"`
		}
		raw, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		return created.ID
	}

	t.Run("HealthCheck", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL + "/health")
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "casetrack server is running", string(body))
	})

	t.Run("CreateCase", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		id := createCase(t, srv, `{"candidate_fullname": "Ada Lovelace", "candidate_email": "ada@example.com"}`)
		assert.Equal(t, int64(1), id)
	})

	t.Run("CreateCaseMissingFullname", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		jsonData := []byte(`{"candidate_email": "ada@example.com"}`)
		req, err := http.NewRequest("POST", srv.URL+"/cases", bytes.NewBuffer(jsonData))
		assert.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := srv.Client().Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "{\"error\":\"Missing 'candidate_fullname' parameter\"}\n", string(body))
	})

	t.Run("ListEmptyCases", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL + "/cases")
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "{\"results\":[]}\n", string(body))
	})

	t.Run("ListCases", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		id := createCase(t, srv, `{"candidate_fullname": "Ada Lovelace", "candidate_email": "ada@example.com", "due_date": "2026-09-15T00:00:00Z"}`)

		resp, err := srv.Client().Get(srv.URL + "/cases")
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)

		var listing struct {
			Results []service.CaseRecord `json:"results"`
		}
		if err := json.Unmarshal(body, &listing); err != nil {
			t.Fatalf("Failed to unmarshal listing: %v", err)
		}
		assert.Len(t, listing.Results, 1)

		record := listing.Results[0]
		assert.Equal(t, id, record.ID)
		assert.Equal(t, "Ada Lovelace", record.CandidateFullname)
		assert.Equal(t, "ada@example.com", record.CandidateEmail)
		assert.NotNil(t, record.DueDate)
		assert.False(t, record.ApplicantHasBeenNotified)
		assert.Equal(t, 1, record.CurrentStepNumber)
		assert.Nil(t, record.PreviousStepNumber)
		assert.NotNil(t, record.NextStepNumber)
		assert.Equal(t, 2, *record.NextStepNumber)
		assert.Equal(t, "Screening", record.CurrentPanelName)

		// Sentinels serialize as null on the wire.
		assert.Contains(t, string(body), `"previous_step_number":null`)
	})

	t.Run("GetCase", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		id := createCase(t, srv, `{"candidate_fullname": "Grace Hopper", "candidate_email": "grace@example.com", "panels": ["Phone Screen", "Onsite"]}`)

		resp, err := srv.Client().Get(fmt.Sprintf("%s/cases/%d", srv.URL, id))
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)

		var record service.CaseRecord
		if err := json.Unmarshal(body, &record); err != nil {
			t.Fatalf("Failed to unmarshal case record: %v", err)
		}
		assert.Equal(t, id, record.ID)
		assert.Equal(t, "Grace Hopper", record.CandidateFullname)
		assert.Equal(t, 1, record.CurrentStepNumber)
		assert.Equal(t, "Phone Screen", record.CurrentPanelName)
	})

	t.Run("GetNonExistingCase", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL + "/cases/123")
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("AdvanceCase", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		id := createCase(t, srv, `{"candidate_fullname": "Ada Lovelace", "candidate_email": "ada@example.com", "panels": ["First", "Second", "Third"]}`)

		advance := func() (int, string) {
			req, err := http.NewRequest("POST", fmt.Sprintf("%s/cases/%d/advance", srv.URL, id), nil)
			assert.NoError(t, err)
			resp, err := srv.Client().Do(req)
			assert.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			assert.NoError(t, err)
			return resp.StatusCode, string(body)
		}

		status, body := advance()
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"current_step_number":2`)
		assert.Contains(t, body, `"previous_step_number":1`)
		assert.Contains(t, body, `"next_step_number":3`)

		status, body = advance()
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"current_step_number":3`)
		assert.Contains(t, body, `"next_step_number":null`)

		// Past the last step the marker clears and the case reads as complete.
		status, body = advance()
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"current_step_number":0`)
		assert.Contains(t, body, `"previous_step_number":null`)
		assert.Contains(t, body, `"next_step_number":null`)
	})

	t.Run("AdvanceNonExistingCase", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		req, err := http.NewRequest("POST", srv.URL+"/cases/77/advance", nil)
		assert.NoError(t, err)
		resp, err := srv.Client().Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("NotifyCase", func(t *testing.T) {
		store := newTestStore(t)
		srv := newServer(store)
		defer srv.Close()

		id := createCase(t, srv, `{"candidate_fullname": "Ada Lovelace", "candidate_email": "ada@example.com"}`)

		jsonData := []byte(`{"applicant_has_been_notified": true}`)
		req, err := http.NewRequest("POST", fmt.Sprintf("%s/cases/%d/notify", srv.URL, id), bytes.NewBuffer(jsonData))
		assert.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := srv.Client().Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = srv.Client().Get(fmt.Sprintf("%s/cases/%d", srv.URL, id))
		assert.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), `"applicant_has_been_notified":true`)
	})
}
