package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/adifgen/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultConvertTimeout bounds a single conversion when no timeout is configured.
var DefaultConvertTimeout = 2 * time.Minute

// HistoryRecorder stores a summary of each finished conversion.
type HistoryRecorder interface {
	Record(ctx context.Context, summary ConversionSummary) error
}

// ServiceConfig holds the tunables for a Service.
type ServiceConfig struct {
	MaxConcurrent  int           // conversions allowed at once
	MaxWait        time.Duration // how long a conversion may queue for a slot
	RowWorkers     int           // rows normalized in parallel per conversion
	Timeout        time.Duration // upper bound for one conversion
	DefaultCharset string        // used when a request names no charset
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics publishes conversion metrics to m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHistory records every conversion with r.
func WithHistory(r HistoryRecorder) Option {
	return func(s *Service) { s.history = r }
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger used for history failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service runs the decode, ingest and assemble pipeline for uploaded logs.
type Service struct {
	limiter   *Limiter
	assembler Assembler
	timeout   time.Duration
	charset   string

	metrics *observability.Metrics
	history HistoryRecorder
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewService creates a Service. Without options it keeps no history and
// publishes no metrics.
func NewService(cfg ServiceConfig, opts ...Option) *Service {
	s := &Service{
		limiter:   NewLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		assembler: Assembler{Workers: cfg.RowWorkers},
		timeout:   cfg.Timeout,
		charset:   cfg.DefaultCharset,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultConvertTimeout
	}
	if s.charset == "" {
		s.charset = DefaultCharset
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConvertRequest is one uploaded log plus its metadata.
type ConvertRequest struct {
	Context  RequestContext
	Log      io.Reader
	Charset  string // empty means the service default
	FileName string
}

// Convert decodes, ingests and assembles one log.
//
// A log that is already ADIF or contains nothing yields an NG result together
// with ErrScopeMismatch or ErrEmptyLog. Any other error means no result was
// produced: an invalid request context, an unknown charset, a busy service or
// a cancelled context.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (BatchResult, error) {
	rc, err := req.Context.Validate()
	if err != nil {
		return BatchResult{}, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyConversions) && s.metrics != nil {
			s.metrics.LimiterRejections.Inc()
		}
		return BatchResult{}, err
	}
	defer s.limiter.Release()
	if s.metrics != nil {
		s.metrics.ActiveConversions.Inc()
		defer s.metrics.ActiveConversions.Dec()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id := uuid.New().String()
	start := s.clock.Now()

	result, convErr := s.convert(ctx, rc, req)
	if result.Status == "" {
		s.observe("error", 0, 0)
		return BatchResult{}, convErr
	}
	result.ID = id

	s.observe(string(result.Status), len(result.Records), len(result.Failures))
	s.record(ctx, ConversionSummary{
		ID:           id,
		FileName:     req.FileName,
		StationCall:  rc.StationCall,
		Operator:     rc.Operator,
		MyReference:  rc.MyReference,
		HisReference: rc.HisReference,
		Status:       result.Status,
		Records:      len(result.Records),
		Failures:     len(result.Failures),
		Duration:     s.clock.Since(start),
		CreatedAt:    start.UTC(),
	})

	return result, convErr
}

func (s *Service) convert(ctx context.Context, rc RequestContext, req ConvertRequest) (BatchResult, error) {
	charset := req.Charset
	if charset == "" {
		charset = s.charset
	}
	text, err := DecodeLog(req.Log, charset)
	if err != nil {
		return BatchResult{}, err
	}

	rows, ingestFailures, err := Ingest(text)
	if errors.Is(err, ErrScopeMismatch) || errors.Is(err, ErrEmptyLog) {
		return Rejected(), err
	}
	if err != nil {
		return BatchResult{}, fmt.Errorf("ingest: %w", err)
	}

	result, err := s.assembler.Assemble(ctx, rows, rc)
	if err != nil {
		return BatchResult{}, err
	}
	result.Failures = mergeFailures(ingestFailures, result.Failures)
	return result, nil
}

func (s *Service) observe(status string, records, failures int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ConversionsTotal.WithLabelValues(status).Inc()
	s.metrics.RowsTotal.WithLabelValues("converted").Add(float64(records))
	s.metrics.RowsTotal.WithLabelValues("failed").Add(float64(failures))
}

// record stores the summary. History is best effort: a failing store is
// logged and never fails the conversion.
func (s *Service) record(ctx context.Context, summary ConversionSummary) {
	if s.metrics != nil {
		s.metrics.ConversionDuration.Observe(summary.Duration.Seconds())
	}
	if s.history == nil {
		return
	}
	client := ClientFromContext(ctx)
	summary.IPAddress = client.IPAddress
	summary.UserAgent = client.UserAgent

	if err := s.history.Record(context.WithoutCancel(ctx), summary); err != nil {
		s.logger.Warn("failed to record conversion history",
			"conversion_id", summary.ID,
			"error", err,
		)
	}
}

// WaitForConversions blocks until no conversion is running or ctx is done.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus reports how many conversion slots are in use.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}
