package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveExportCountsRowsOnSuccess(t *testing.T) {
	Init(nil, nil)

	ObserveExport("csv", ResultSuccess, 12, 5*time.Millisecond)
	ObserveExport("csv", ResultError, 40, time.Millisecond)
	ObserveExport("", "", 0, time.Millisecond)

	if got := testutil.ToFloat64(exportTotal.WithLabelValues("csv", ResultSuccess)); got != 1 {
		t.Fatalf("csv success=%v", got)
	}
	if got := testutil.ToFloat64(exportTotal.WithLabelValues("csv", ResultError)); got != 1 {
		t.Fatalf("csv error=%v", got)
	}
	if got := testutil.ToFloat64(exportRows.WithLabelValues("csv")); got != 12 {
		t.Fatalf("csv rows=%v", got)
	}
	if got := testutil.ToFloat64(exportTotal.WithLabelValues("unknown", ResultSuccess)); got != 1 {
		t.Fatalf("unknown success=%v", got)
	}
}

func TestCountersDefaultLabels(t *testing.T) {
	Init(nil, nil)

	ObserveAPIRequest("", "", time.Millisecond)
	IncReport("failure_report", "")
	IncStorageError("")

	if got := testutil.ToFloat64(apiRequests.WithLabelValues("unknown", ResultSuccess)); got != 1 {
		t.Fatalf("api unknown=%v", got)
	}
	if got := testutil.ToFloat64(reportTotal.WithLabelValues("failure_report", ResultSuccess)); got != 1 {
		t.Fatalf("report=%v", got)
	}
	if got := testutil.ToFloat64(storageErrors.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("storage=%v", got)
	}
}
