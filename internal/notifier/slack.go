package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amishk599/gigfinder/internal/model"
)

var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts newly stored jobs to a Slack channel via Incoming
// Webhooks, one message per job.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	pause      time.Duration // between messages
}

func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		pause:      500 * time.Millisecond,
	}
}

// Notify sends each job as a Block Kit message. It returns an error only if
// every message failed; individual failures are logged.
func (s *SlackNotifier) Notify(jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	failures := 0
	for i, j := range jobs {
		if i > 0 && s.pause > 0 {
			time.Sleep(s.pause)
		}
		if err := s.sendMessage(j); err != nil {
			s.logger.Error("slack notification failed", "platform", j.Platform, "title", j.Title, "error", err)
			failures++
		}
	}

	if failures == len(jobs) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", len(jobs)-failures, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(j model.Job) error {
	body, err := json.Marshal(buildPayload(j, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		// Slack asks for one back-off; a second 429 is a failure
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		time.Sleep(retryAfter)
		if status, _, err = s.post(body); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Debug("slack message sent", "platform", j.Platform, "title", j.Title)
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a sample job through n to verify the integration.
func SendTestMessage(n model.Notifier) error {
	testJob := model.Job{
		Platform:    model.PlatformFreelancer,
		ExternalID:  "test-001",
		Title:       "Test Notification: Integration Verified",
		URL:         "https://www.freelancer.com/jobs/",
		Budget:      "$100 - $250",
		Description: "If you can read this, notifications are wired up.",
		PostedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	return n.Notify([]model.Job{testJob})
}

// postedText renders PostedAt relative to now when it parses as RFC 3339,
// verbatim otherwise.
func postedText(postedAt string, now time.Time) string {
	if postedAt == "" {
		return "Just detected"
	}
	if t, err := time.Parse(time.RFC3339, postedAt); err == nil {
		return humanize.RelTime(t, now, "ago", "from now")
	}
	return postedAt
}

func buildPayload(j model.Job, now time.Time) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🚀 " + j.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Platform:*\n" + string(j.Platform)},
				{Type: "mrkdwn", Text: "*Budget:*\n" + j.Budget},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Posted:*\n" + postedText(j.PostedAt, now)},
				{Type: "mrkdwn", Text: "*ID:*\n" + j.ExternalID},
			},
		},
	}

	if j.Description != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: j.Description},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "View Posting"},
					URL:   j.URL,
					Style: "primary",
				},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
