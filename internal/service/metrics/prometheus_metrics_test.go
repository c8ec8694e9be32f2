package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func TestPrometheusMetrics_Recording(t *testing.T) {
	pm := NewPrometheusMetricsWithRegistry("pagination", prometheus.NewRegistry(), zap.NewNop())

	pm.RecordRequest("rewrite", fasthttp.StatusOK, 2*time.Millisecond)
	pm.RecordRequest("rewrite", fasthttp.StatusBadRequest, time.Millisecond)
	pm.RecordRequest("rewrite", fasthttp.StatusOK, time.Millisecond)
	pm.RecordRewrite(OutcomeWindowed, 20)
	pm.RecordRewrite(OutcomePassthrough, 0)
	pm.RecordCacheOp("get", "hit")
	pm.RecordHeadLink("next")
	pm.RecordHeadLink("next")

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.requestsTotal.WithLabelValues("rewrite", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestsTotal.WithLabelValues("rewrite", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.rewritesTotal.WithLabelValues(OutcomeWindowed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.cacheOperations.WithLabelValues("get", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.headLinksTotal.WithLabelValues("next")))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.pagesPerListing))
}

func TestPrometheusMetrics_HTTPEndpoint(t *testing.T) {
	pm := NewPrometheusMetricsWithRegistry("pagination", prometheus.NewRegistry(), zap.NewNop())
	pm.RecordRewrite(OutcomeCorrected, 4)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/metrics")
	ctx.Request.Header.SetMethod("GET")

	pm.ServeHTTP(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	body := string(ctx.Response.Body())
	assert.Contains(t, body, `pagination_rewrites_total{outcome="corrected"} 1`)
	assert.Contains(t, body, "pagination_total_pages_bucket")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "4xx", statusClass(413))
	assert.Equal(t, "5xx", statusClass(503))
}
