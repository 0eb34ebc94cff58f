package service

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesReviewMetrics(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("GET", "/makeups/api/requests", 200, 15*time.Millisecond)
	metrics.ObserveStoreCall("list_requests", nil, 5*time.Millisecond)
	metrics.ObserveStoreCall("update_status", errors.New("x"), time.Millisecond)
	metrics.RecordTransition("Accepted", nil)
	metrics.RecordAttachmentDecode("INVALID_ATTACHMENT")
	metrics.RecordHandleAcquired()
	metrics.RecordHandleAcquired()
	metrics.RecordHandleReleased("released", 1)
	metrics.RecordHandleReleased("expired", 5)

	snapshot := metrics.Snapshot()
	require.Equal(t, uint64(1), snapshot.RequestsTotal)
	require.Equal(t, uint64(2), snapshot.StoreCallCount)
	require.Equal(t, uint64(1), snapshot.TransitionsTotal)
	require.Zero(t, snapshot.OpenHandles, "open handle gauge never goes negative")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `makeup_status_transitions_total{outcome="ok",status="Accepted"} 1`)
	require.Contains(t, string(body), `makeup_store_call_duration_seconds_count{operation="update_status",outcome="error"} 1`)
	require.Contains(t, string(body), `makeup_attachment_decodes_total{result="INVALID_ATTACHMENT"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveStoreCall("x", nil, time.Millisecond)
	metrics.RecordTransition("Denied", nil)
	metrics.RecordHandleAcquired()
	require.Equal(t, MetricsSnapshot{}, metrics.Snapshot())
}
