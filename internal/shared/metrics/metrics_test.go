package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(extractionOutcomes.WithLabelValues("todos", "ok"))
	IncExtraction("todos", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(extractionOutcomes.WithLabelValues("todos", "ok")))

	beforeFail := testutil.ToFloat64(llmFailuresTotal.WithLabelValues("stub"))
	ObserveLLM("stub", 10*time.Millisecond, errors.New("down"))
	ObserveLLM("stub", 10*time.Millisecond, nil)
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(llmFailuresTotal.WithLabelValues("stub")))
}

func TestAddExtractedIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(extractedRecords.WithLabelValues("events"))
	AddExtracted("events", 0)
	AddExtracted("events", -3)
	AddExtracted("events", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(extractedRecords.WithLabelValues("events")))
}

func TestHandlerServesPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ObserveHTTP(http.MethodGet, "/api/v1/todos", http.StatusOK, time.Millisecond)

	r := gin.New()
	r.GET("/metrics", Handler())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), "teamsync_http_requests_total"))
}
