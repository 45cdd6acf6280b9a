package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordEvent(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.EventsDropped.WithLabelValues("file-status"))

	DefaultMetrics.RecordEvent("file-status", false)
	DefaultMetrics.RecordEvent("file-status", true)

	after := testutil.ToFloat64(DefaultMetrics.EventsDropped.WithLabelValues("file-status"))
	assert.Equal(t, before+1, after)
}

func TestMetrics_RecordBackendCommand(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.BackendErrors.WithLabelValues("getFile"))

	DefaultMetrics.RecordBackendCommand("getFile", 0.01, false)
	DefaultMetrics.RecordBackendCommand("getFile", 0.02, true)

	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.BackendErrors.WithLabelValues("getFile")))
}

func TestMetrics_UpdateAccounts(t *testing.T) {
	DefaultMetrics.UpdateAccounts(3, 5)

	assert.Equal(t, float64(3), testutil.ToFloat64(DefaultMetrics.ActiveAccounts))
	assert.Equal(t, float64(5), testutil.ToFloat64(DefaultMetrics.TotalAccounts))
}

func TestMetrics_RecordTransfer(t *testing.T) {
	ok := testutil.ToFloat64(DefaultMetrics.TransfersTotal)
	failed := testutil.ToFloat64(DefaultMetrics.TransferErrors)

	DefaultMetrics.RecordTransfer(nil)
	DefaultMetrics.RecordTransfer(errors.New("boom"))

	assert.Equal(t, ok+1, testutil.ToFloat64(DefaultMetrics.TransfersTotal))
	assert.Equal(t, failed+1, testutil.ToFloat64(DefaultMetrics.TransferErrors))
}

func TestMetrics_RecordKafkaError(t *testing.T) {
	DefaultMetrics.RecordKafkaError("")
	assert.Equal(t, float64(1), testutil.ToFloat64(DefaultMetrics.KafkaProduceErrors.WithLabelValues("unknown")))
}
