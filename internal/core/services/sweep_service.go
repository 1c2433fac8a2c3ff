package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"lendhub/internal/adapters/persistence/repositories"
)

// SweepService runs the periodic background jobs: maintenance auto-expiry
// every 10 minutes and refresh-token cleanup daily. Maintenance status is
// also derived lazily at read time; the sweep keeps stored ended_at/ended_by
// facts in line with the clock and frees product statuses without waiting
// for a read.
type SweepService struct {
	maintenance *MaintenanceService
	tokens      repositories.RefreshTokenRepository
	cron        *cron.Cron
}

// NewSweepService creates a new sweep service
func NewSweepService(maintenance *MaintenanceService, tokens repositories.RefreshTokenRepository) *SweepService {
	return &SweepService{
		maintenance: maintenance,
		tokens:      tokens,
		cron:        cron.New(),
	}
}

// Start schedules the background jobs
func (s *SweepService) Start() {
	if _, err := s.cron.AddFunc("@every 10m", func() {
		if _, err := s.maintenance.ExpireDue(); err != nil {
			log.Printf("❌ Maintenance sweep failed: %v", err)
		}
	}); err != nil {
		log.Printf("❌ Failed to schedule maintenance sweep: %v", err)
		return
	}

	if _, err := s.cron.AddFunc("@daily", func() {
		if err := s.tokens.DeleteExpired(context.Background()); err != nil {
			log.Printf("❌ Refresh token cleanup failed: %v", err)
		}
	}); err != nil {
		log.Printf("❌ Failed to schedule token cleanup: %v", err)
		return
	}

	s.cron.Start()
	log.Println("🚀 Background sweeps started (maintenance every 10m, token cleanup daily)")
}

// Stop stops the scheduler, waiting for a running sweep to finish
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Background sweeps stopped")
}
