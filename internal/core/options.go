package core

import "monkeycore/internal/archive"

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the structured logger. A nil logger disables logging.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger == nil {
			logger = noopLogger{}
		}
		s.logger = logger
	}
}

// WithMetricsRecorder sets the operation metrics recorder.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder == nil {
			recorder = noopMetrics{}
		}
		s.metrics = recorder
	}
}

// WithTracer sets the operation tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer == nil {
			tracer = noopTracer{}
		}
		s.tracer = tracer
	}
}

// WithAuditRecorder sets the audit recorder.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		if recorder == nil {
			recorder = noopAudit{}
		}
		s.audit = recorder
	}
}

// WithClock overrides the clock used for audit timestamps and durations.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock == nil {
			clock = systemClock{}
		}
		s.clock = clock
	}
}

// WithEventSink sets the destination of committed events.
func WithEventSink(sink EventSink) ServiceOption {
	return func(s *Service) {
		if sink == nil {
			sink = noopSink{}
		}
		s.events = sink
	}
}

// WithFeeCurrency sets the currency breeding fees are debited from.
func WithFeeCurrency(c Currency) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.fees = c
		}
	}
}

// WithSaleCurrency sets the currency marketplace purchases settle in.
func WithSaleCurrency(c Currency) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.sales = c
		}
	}
}

// WithArchive enables ArchiveSnapshot and RestoreSnapshot.
func WithArchive(a *archive.Archive) ServiceOption {
	return func(s *Service) { s.archive = a }
}
