package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("rules", "control", "false"))
	RecordRecommendation("rules", "control", false)
	assert.Equal(t, before+1, testutil.ToFloat64(RecommendationsTotal.WithLabelValues("rules", "control", "false")))

	before = testutil.ToFloat64(ModelReloadsTotal.WithLabelValues("watch", "error"))
	RecordModelReload("watch", errors.New("bad file"))
	assert.Equal(t, before+1, testutil.ToFloat64(ModelReloadsTotal.WithLabelValues("watch", "error")))

	before = testutil.ToFloat64(QuotesTotal.WithLabelValues("price_optimized"))
	RecordQuote("price_optimized", 1.1)
	assert.Equal(t, before+1, testutil.ToFloat64(QuotesTotal.WithLabelValues("price_optimized")))

	ObserveRequest("GET", "/health", 200, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}
