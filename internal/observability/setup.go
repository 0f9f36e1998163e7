package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	// Logger is the observability subsystem's own logger
	Logger = zap.NewNop()

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spamguard_messages_total",
			Help: "Messages seen by the spam monitor, by outcome",
		},
		[]string{"result"},
	)

	tiersReachedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spamguard_tiers_reached_total",
			Help: "Escalation tiers reached, by tier and trigger",
		},
		[]string{"tier", "trigger"},
	)

	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spamguard_actions_total",
			Help: "Moderation actions dispatched, by action and status",
		},
		[]string{"action", "status"},
	)

	evaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spamguard_evaluation_duration_seconds",
			Help:    "Time spent evaluating a message, including dispatched actions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	registerOnce sync.Once
)

// Server exposes /metrics and owns the tracer provider.
type Server struct {
	addr string
	srv  *http.Server
	tp   *trace.TracerProvider
	wg   sync.WaitGroup
}

// Init sets up the logger, registers metrics and installs the tracer provider.
func Init(addr string) (*Server, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	Logger = logger

	registerOnce.Do(func() {
		prometheus.MustRegister(messagesTotal, tiersReachedTotal, actionsTotal, evaluationDuration)
	})

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		addr: addr,
		tp:   tp,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	if s.addr == "" {
		Logger.Info("metrics endpoint disabled")
		return nil
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		Logger.Info("metrics endpoint listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var stopErr error
	if s.addr != "" {
		stopErr = s.srv.Shutdown(ctx)
		s.wg.Wait()
	}
	if err := s.tp.Shutdown(ctx); err != nil {
		stopErr = errors.Join(stopErr, err)
	}
	_ = Logger.Sync()
	return stopErr
}

// RecordMessage counts a message by outcome: exempt, tracked or triggered.
func RecordMessage(result string) {
	messagesTotal.WithLabelValues(result).Inc()
}

func RecordTier(tier string, duplicate bool) {
	trigger := "frequency"
	if duplicate {
		trigger = "duplicate"
	}
	tiersReachedTotal.WithLabelValues(tier, trigger).Inc()
}

func RecordAction(action, status string) {
	actionsTotal.WithLabelValues(action, status).Inc()
}

// StartEvaluation returns a function recording the evaluation duration under the given result.
func StartEvaluation() func(result string) {
	start := time.Now()
	return func(result string) {
		evaluationDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}
}
