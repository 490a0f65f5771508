package observe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing service name",
			cfg:     Config{},
			wantErr: ErrMissingServiceName,
		},
		{
			name: "valid minimal",
			cfg:  Config{ServiceName: "tokencache"},
		},
		{
			name: "bad tracing exporter",
			cfg: Config{
				ServiceName: "tokencache",
				Tracing:     TracingConfig{Enabled: true, Exporter: "jaeger2"},
			},
			wantErr: ErrInvalidTracingExporter,
		},
		{
			name: "bad sample pct",
			cfg: Config{
				ServiceName: "tokencache",
				Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.5},
			},
			wantErr: ErrInvalidSamplePct,
		},
		{
			name: "bad metrics exporter",
			cfg: Config{
				ServiceName: "tokencache",
				Metrics:     MetricsConfig{Enabled: true, Exporter: "statsd"},
			},
			wantErr: ErrInvalidMetricsExporter,
		},
		{
			name: "bad log level",
			cfg: Config{
				ServiceName: "tokencache",
				Logging:     LoggingConfig{Enabled: true, Level: "verbose"},
			},
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	ctx := context.Background()
	obs, err := NewObserver(ctx, Config{ServiceName: "tokencache"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	// Disabled subsystems still hand out usable no-op primitives.
	if obs.Tracer() == nil {
		t.Error("Tracer() returned nil")
	}
	if obs.Meter() == nil {
		t.Error("Meter() returned nil")
	}
	if obs.Logger() == nil {
		t.Error("Logger() returned nil")
	}

	if err := obs.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNewCacheMetrics_Records(t *testing.T) {
	ctx := context.Background()
	obs, err := NewObserver(ctx, Config{
		ServiceName: "tokencache",
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
	})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	m, err := NewCacheMetrics(obs.Meter())
	if err != nil {
		t.Fatalf("NewCacheMetrics failed: %v", err)
	}

	// Recording must not panic on any path.
	m.RecordLookup(ctx, OutcomeHit)
	m.RecordLookup(ctx, OutcomeMiss)
	m.RecordStoreOp(ctx, "find", 3*time.Millisecond, nil)
	m.RecordStoreOp(ctx, "upsert", time.Millisecond, errors.New("boom"))
	m.RecordInvalidation(ctx)
}

func TestNoopCacheMetrics(t *testing.T) {
	var m CacheMetrics = NoopCacheMetrics{}
	ctx := context.Background()
	m.RecordLookup(ctx, OutcomeStale)
	m.RecordStoreOp(ctx, "find", 0, nil)
	m.RecordInvalidation(ctx)
}
