package api

import (
	"github.com/cryptforge/forge-studio/internal/cloudsync"
	"github.com/cryptforge/forge-studio/internal/compendium"
)

// Services groups the business services used by the API server.
type Services struct {
	Compendium *compendium.Service
	Index      *compendium.Index // health checks
	Sync       *cloudsync.Engine
}
