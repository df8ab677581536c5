package gateway

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func registerHistogram(h prometheus.Histogram) prometheus.Histogram {
	if err := prometheus.Register(h); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Histogram)
		}
		panic(err)
	}
	return h
}

func Instrumentation() gin.HandlerFunc {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pipdex",
		Subsystem: "request",
		Name:      "requests_count",
		Help:      "Number of requests per each endpoint",
	}, []string{"code", "method", "handler", "host", "url"})

	resTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pipdex",
		Subsystem: "response",
		Name:      "response_time_hist",
		Help:      "pipdex response duration",
	})

	resSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pipdex",
		Subsystem: "response",
		Name:      "size_histogram",
		Help:      "pipdex response size",
	})

	reqSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pipdex",
		Subsystem: "request",
		Name:      "size_hist",
		Help:      "Request size instrumenter",
	})

	resTimeSum := prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "pipdex",
		Subsystem: "response",
		Name:      "latency_summary",
		Help:      "Computes responses latency",
	})

	if err := prometheus.Register(counterVec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			counterVec = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			panic(err)
		}
	}
	resTime = registerHistogram(resTime)
	resSize = registerHistogram(resSize)
	reqSize = registerHistogram(reqSize)
	if err := prometheus.Register(resTimeSum); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			resTimeSum = already.ExistingCollector.(prometheus.Summary)
		} else {
			panic(err)
		}
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := float64(time.Since(start)) * 1e-6 // to millisecond

		rSize := c.Writer.Size()
		rqSize := c.Request.ContentLength

		status := strconv.Itoa(c.Writer.Status())

		counterVec.WithLabelValues(status, c.Request.Method, c.HandlerName(), c.Request.Host, c.Request.URL.Path).Inc()
		resTime.Observe(duration)
		resSize.Observe(float64(rSize))
		reqSize.Observe(float64(rqSize))
		resTimeSum.Observe(duration)
	}
}
