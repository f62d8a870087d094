package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePageRender(t *testing.T) {
	before := testutil.ToFloat64(PageRenders.WithLabelValues("overview", "ok"))
	ObservePageRender("overview", "ok", 15*time.Millisecond)
	ObservePageRender("overview", "ok", 5*time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(PageRenders.WithLabelValues("overview", "ok")))
}

func TestRecordDataset(t *testing.T) {
	RecordDataset(205, 200, 3, 2)
	assert.Equal(t, 205.0, testutil.ToFloat64(DatasetRows.WithLabelValues("read")))
	assert.Equal(t, 200.0, testutil.ToFloat64(DatasetRows.WithLabelValues("kept")))
	assert.Equal(t, 3.0, testutil.ToFloat64(DatasetRows.WithLabelValues("duplicates")))
	assert.Equal(t, 2.0, testutil.ToFloat64(DatasetRows.WithLabelValues("missing")))
}
