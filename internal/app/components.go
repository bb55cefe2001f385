package app

import (
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator schedules background sync cycles
	SyncCoordinator coordinator.Coordinator

	// ImageService serves the read API
	ImageService service.ImageService
}
