package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/gigfinder/internal/model"
)

func TestLogNotifier_Notify_zeroJobs(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.Job{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
}

func TestLogNotifier_Notify_writesOneLinePerJob(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	jobs := []model.Job{
		sampleJob("Engineer", model.PlatformRemoteOK),
		sampleJob("Developer", model.PlatformFreelancer),
	}
	if err := n.Notify(jobs); err != nil {
		t.Fatalf("Notify(jobs) = %v, want nil", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `msg="new job"`) || !strings.Contains(lines[0], "platform=RemoteOK") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "title=Developer") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}
