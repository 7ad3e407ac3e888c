package adapter

import (
	"context"
	"log/slog"

	"github.com/amishk599/gigfinder/internal/model"
)

// UpworkAdapter is registered so Upwork shows up as a known platform, but it
// never contacts Upwork. Upwork answers non-browser clients with a Cloudflare
// challenge and does not allow automated access to search; getting past that
// would mean evading the check, which we do not do. Search always returns no
// jobs and model.ErrBlockedByDesign so the outcome is reported as "blocked".
type UpworkAdapter struct {
	logger *slog.Logger
}

func NewUpworkAdapter(logger *slog.Logger) *UpworkAdapter {
	return &UpworkAdapter{logger: logger}
}

func (a *UpworkAdapter) Platform() model.Platform { return model.PlatformUpwork }

func (a *UpworkAdapter) Search(_ context.Context, term string, _ int) ([]model.Job, error) {
	a.logger.Debug("upwork is not scraped", "term", term)
	return nil, model.ErrBlockedByDesign
}
