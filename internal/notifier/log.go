package notifier

import (
	"log/slog"

	"github.com/amishk599/gigfinder/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly stored jobs to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one "new job" line per record. It never fails.
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		n.logger.Info("new job",
			"platform", j.Platform,
			"title", j.Title,
			"budget", j.Budget,
			"url", j.URL,
			"posted_at", j.PostedAt,
		)
	}
	return nil
}
