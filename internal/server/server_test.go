package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"
	"github.com/jobatlas/jobatlas/internal/matcher"
	"github.com/jobatlas/jobatlas/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSearcher scripts the orchestrator surface.
type stubSearcher struct {
	result  *jobs.SearchResult
	err     error
	lastReq *jobs.SearchRequest
	allUsed bool
}

func (s *stubSearcher) Search(_ context.Context, req *jobs.SearchRequest) (*jobs.SearchResult, error) {
	s.lastReq = req
	return s.result, s.err
}

func (s *stubSearcher) SearchAll(_ context.Context, req *jobs.SearchRequest) (*jobs.SearchResult, error) {
	s.lastReq = req
	s.allUsed = true
	return s.result, s.err
}

func newTestServer(searcher Searcher, health []orchestrator.Health) *Server {
	return New(searcher, matcher.New(0, zap.NewNop()), func() []orchestrator.Health {
		return health
	}, zap.NewNop())
}

func postSearch(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func testResult() *jobs.SearchResult {
	return &jobs.SearchResult{
		Postings: []*jobs.Posting{
			{ID: "1", Title: "Go Engineer", Company: "Acme", Source: "remotive", Score: 40},
		},
		TotalCount:  1,
		AlgorithmID: "composite-v1",
	}
}

func TestHandleSearch(t *testing.T) {
	searcher := &stubSearcher{result: testResult()}
	s := newTestServer(searcher, nil)

	rec := postSearch(t, s, map[string]any{"query": "golang", "limit": 10})

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		TotalCount   int             `json:"total_count"`
		Postings     []*jobs.Posting `json:"postings"`
		Personalized bool            `json:"personalized"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, 1, response.TotalCount)
	assert.False(t, response.Personalized)
	assert.False(t, searcher.allUsed)
	assert.Equal(t, "golang", searcher.lastReq.Query)
}

func TestHandleSearchAll(t *testing.T) {
	searcher := &stubSearcher{result: testResult()}
	s := newTestServer(searcher, nil)

	rec := postSearch(t, s, map[string]any{"query": "golang", "all": true})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, searcher.allUsed)
}

func TestHandleSearchStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", jobs.Validation("query must not be empty", nil), http.StatusBadRequest},
		{"all sources failed", jobs.AllSourcesFailed("all 3 sources failed", nil), http.StatusBadGateway},
		{"transport", jobs.Transport("boom", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&stubSearcher{err: tc.err}, nil)

			rec := postSearch(t, s, map[string]any{"query": "golang"})

			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestHandleSearchBadBody(t *testing.T) {
	s := newTestServer(&stubSearcher{result: testResult()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearchPersonalized(t *testing.T) {
	result := testResult()
	searcher := &stubSearcher{result: result}
	s := newTestServer(searcher, nil)

	rec := postSearch(t, s, map[string]any{
		"query": "golang",
		"profile": map[string]any{
			"skills":           []string{"go"},
			"experience_years": 5,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Personalized bool `json:"personalized"`
		Postings     []struct {
			Match *jobs.MatchInfo `json:"match"`
		} `json:"postings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.True(t, response.Personalized)
	for _, p := range response.Postings {
		require.NotNil(t, p.Match)
	}

	// The searcher's own result must stay free of personalization.
	assert.Nil(t, result.Postings[0].Match)
}

func TestHandleSources(t *testing.T) {
	health := []orchestrator.Health{
		{Adapter: "remotive", Available: true},
		{Adapter: "jobicy", Available: false, CooldownUntil: time.Now().Add(30 * time.Second)},
	}
	s := newTestServer(&stubSearcher{}, health)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "remotive")
	assert.Contains(t, rec.Body.String(), "jobicy")
}

func TestHandleHealthz(t *testing.T) {
	healthy := newTestServer(&stubSearcher{}, []orchestrator.Health{{Adapter: "remotive", Available: true}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	healthy.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)

	degraded := newTestServer(&stubSearcher{}, []orchestrator.Health{{Adapter: "remotive", Available: false}})

	rec = httptest.NewRecorder()
	degraded.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}
