package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
)

// syncBuffer lets the request logger and the test share one buffer.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

// requestLogs returns the decoded http.request records written so far.
func (s *syncBuffer) requestLogs(t *testing.T) []map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(s.b.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if rec["msg"] == "http.request" {
			out = append(out, rec)
		}
	}
	return out
}

func TestRequestLoggerCarriesSessionAndTrainer(t *testing.T) {
	var buf syncBuffer
	ts := newLoggedTestServer(t, slog.New(slog.NewJSONHandler(&buf, nil)))

	s := ts.createSession(t, "Asha")
	if rec := ts.do(validSubmission(t, s, "")); rec.Code != http.StatusCreated {
		t.Fatalf("submit: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec := ts.doJSON(t, http.MethodPost, "/api/trainer/login", "", loginRequest{Password: trainerPassword})
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("login: err=%v body=%s", err, rec.Body.String())
	}
	if rec := ts.doJSON(t, http.MethodGet, "/api/trainer/submissions", login.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("list: want=200 got=%d", rec.Code)
	}

	var submitLog, listLog map[string]any
	for _, rec := range buf.requestLogs(t) {
		switch rec["path"] {
		case "/api/sessions/:id/submissions":
			submitLog = rec
		case "/api/trainer/submissions":
			listLog = rec
		}
	}
	if submitLog == nil || submitLog["session_id"] != s.ID {
		t.Fatalf("submit log: want session_id=%s got=%v", s.ID, submitLog)
	}
	if _, ok := submitLog["trainer"]; ok {
		t.Fatalf("submit log: unexpected trainer attr: %v", submitLog)
	}
	if listLog == nil || listLog["trainer"] != "trainer" {
		t.Fatalf("list log: want trainer=trainer got=%v", listLog)
	}
	if _, ok := listLog["session_id"]; ok {
		t.Fatalf("list log: unexpected session_id attr: %v", listLog)
	}
}
