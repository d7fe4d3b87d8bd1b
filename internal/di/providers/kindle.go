package providers

import (
	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/kindle"
	"github.com/readtrack/readtrack-server/internal/logger"
)

// KindleClientHandle wraps the Kindle proxy client with shutdown capability.
type KindleClientHandle struct {
	*kindle.Client
}

// Shutdown implements do.Shutdownable.
func (h *KindleClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideKindleClient provides the client for the Kindle TLS proxy.
func ProvideKindleClient(i do.Injector) (*KindleClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := kindle.New(cfg.Kindle.ProxyURL, cfg.Kindle.ProxyAPIKey, log.Component("kindle"))
	if cfg.Kindle.ProxyURL == "" {
		log.Info("No default Kindle proxy configured; sync needs a proxy URL in settings")
	}

	return &KindleClientHandle{Client: client}, nil
}
