package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often pending rows are exported (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of rows exported per poll (default: 10)
	BatchSize int

	// RetryInterval is how often rows in the error state are requeued (default: 15m)
	RetryInterval time.Duration

	// InviteGrace is how long expired invites are kept before purging (default: 24h)
	InviteGrace time.Duration
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:  30 * time.Second,
		BatchSize:     10,
		RetryInterval: 15 * time.Minute,
		InviteGrace:   24 * time.Hour,
	}
}

// SyncProcessor is the polling fallback behind the AMQP consumer: it exports rows still
// pending, periodically requeues failed exports and purges stale invites.
type SyncProcessor struct {
	export  *ExportService
	invites *InviteService
	config  SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor accepts a nil invites service, which disables invite purging.
func NewSyncProcessor(export *ExportService, invites *InviteService, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		export:  export,
		invites: invites,
		config:  config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()
	retryTicker := time.NewTicker(p.config.RetryInterval)
	defer retryTicker.Stop()

	p.processBatch(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.processBatch(ctx)
		case <-retryTicker.C:
			p.maintenance(ctx)
		}
	}
}

func (p *SyncProcessor) processBatch(ctx context.Context) {
	if _, _, err := p.export.ExportPending(ctx, p.config.BatchSize); err != nil {
		slog.ErrorContext(ctx, "Failed to process pending exports", "error", err)
	}
}

func (p *SyncProcessor) maintenance(ctx context.Context) {
	n, err := p.export.RetryFailed(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to requeue errored exports", "error", err)
	} else if n > 0 {
		slog.InfoContext(ctx, "Errored exports requeued", "count", n)
	}

	if p.invites == nil {
		return
	}
	purged, err := p.invites.PurgeExpired(ctx, p.config.InviteGrace)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to purge expired invites", "error", err)
	} else if purged > 0 {
		slog.InfoContext(ctx, "Expired invites purged", "count", purged)
	}
}
