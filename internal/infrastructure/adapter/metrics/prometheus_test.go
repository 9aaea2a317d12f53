package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollectors(t *testing.T) {
	p := NewPrometheus()

	p.CreditsMoved(coreport.CreditsDeducted, 1)
	p.CreditsMoved(coreport.CreditsDeducted, 1)
	p.CreditsMoved(coreport.CreditsRefunded, 1)
	p.GenerationFinished(coreport.OutcomeCompleted, 3*time.Second)
	p.TaskPolled("RUNNING")
	p.PendingReconciled(coreport.OutcomeFailed)

	assert.Equal(t, float64(2), testutil.ToFloat64(p.credits.WithLabelValues(coreport.CreditsDeducted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.credits.WithLabelValues(coreport.CreditsRefunded)))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.generations.WithLabelValues(coreport.OutcomeCompleted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.taskPolls.WithLabelValues("RUNNING")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.reconciled.WithLabelValues(coreport.OutcomeFailed)))
}

func TestPrometheusHTTPTracking(t *testing.T) {
	p := NewPrometheus()

	done := p.RequestStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(p.httpInflight))
	done("GET", "/api/user/credits", 200, 15*time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(p.httpInflight))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.httpRequests.WithLabelValues("GET", "/api/user/credits", "200")))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "imagegen_http_requests_total"))
}

func TestPrometheusPoolStats(t *testing.T) {
	p := NewPrometheus()

	p.RecordPoolStats(sql.DBStats{MaxOpenConnections: 25, InUse: 7, Idle: 3, WaitCount: 12})

	assert.Equal(t, float64(7), testutil.ToFloat64(p.dbConnections.WithLabelValues("in_use")))
	assert.Equal(t, float64(3), testutil.ToFloat64(p.dbConnections.WithLabelValues("idle")))
	assert.Equal(t, float64(25), testutil.ToFloat64(p.dbConnections.WithLabelValues("max_open")))
	assert.Equal(t, float64(12), testutil.ToFloat64(p.dbWaits))
}
