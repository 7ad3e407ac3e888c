package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amishk599/gigfinder/internal/budget"
	"github.com/amishk599/gigfinder/internal/model"
)

const remoteOKBaseURL = "https://remoteok.com"

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type remoteOKItem struct {
	Legal       *json.RawMessage `json:"legal"`
	ID          flexString       `json:"id"`
	Slug        string           `json:"slug"`
	Position    string           `json:"position"`
	Company     string           `json:"company"`
	URL         string           `json:"url"`
	Tags        []string         `json:"tags"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Salary      flexString       `json:"salary"`
	SalaryMin   flexString       `json:"salary_min"`
	SalaryMax   flexString       `json:"salary_max"`
	Date        string           `json:"date"`
}

// RemoteOKAdapter reads the public RemoteOK JSON feed filtered by tag.
type RemoteOKAdapter struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRemoteOKAdapter creates an adapter for the RemoteOK API.
func NewRemoteOKAdapter(client *http.Client, opts Options, logger *slog.Logger) *RemoteOKAdapter {
	return &RemoteOKAdapter{
		opts:   opts.withDefaults(remoteOKBaseURL),
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func (a *RemoteOKAdapter) Platform() model.Platform { return model.PlatformRemoteOK }

// Search fetches the feed for the tag derived from term. The feed has no
// pagination, so page is ignored.
func (a *RemoteOKAdapter) Search(ctx context.Context, term string, _ int) ([]model.Job, error) {
	tag := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(term)), " ", "-")
	apiURL := fmt.Sprintf("%s/api?tag=%s", a.opts.BaseURL, url.QueryEscape(tag))

	body, err := get(ctx, a.client, apiURL, a.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("remoteok search %q: %w", term, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if looksLikeChallenge(body) {
			return nil, fmt.Errorf("remoteok search %q: %w", term, model.ErrBlocked)
		}
		return nil, fmt.Errorf("remoteok search %q: decoding feed: %w", term, err)
	}

	var jobs []model.Job
	for i, msg := range raw {
		if len(jobs) >= a.opts.MaxResults {
			break
		}
		var item remoteOKItem
		if err := json.Unmarshal(msg, &item); err != nil {
			a.logger.Debug("card skipped", "source", model.PlatformRemoteOK, "index", i, "error", err)
			continue
		}
		job, ok := a.toJob(item)
		if !ok {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// toJob normalizes one feed item. The legal notice and items without a slug
// are not postings.
func (a *RemoteOKAdapter) toJob(item remoteOKItem) (model.Job, bool) {
	if item.Legal != nil || item.Slug == "" {
		return model.Job{}, false
	}
	link := strings.TrimSpace(item.URL)
	if link == "" {
		link = fmt.Sprintf("%s/remote-jobs/%s", a.opts.BaseURL, item.Slug)
	}
	position := cleanText(item.Position)
	if position == "" {
		position = "No Title"
	}
	title := position
	if company := cleanText(item.Company); company != "" {
		title = fmt.Sprintf("%s at %s", position, company)
	}

	externalID := strings.TrimSpace(string(item.ID))
	if externalID == "" {
		externalID = hashID(link)
	}

	fields := salaryFields(item)

	postedAt := item.Date
	if postedAt == "" {
		postedAt = a.now().UTC().Format(time.RFC3339)
	}

	return model.Job{
		Platform:    model.PlatformRemoteOK,
		ExternalID:  externalID,
		Title:       title,
		URL:         link,
		Budget:      budget.OrNA(fields),
		Description: truncate(extractText(item.Description), descriptionMax),
		PostedAt:    postedAt,
	}, true
}

// salaryFields picks the explicit budget field: the salary text when present,
// else the numeric range, else the location. Whichever of the range and
// location is not explicit is kept for the short-text fallback.
func salaryFields(item remoteOKItem) budget.Fields {
	salary := strings.TrimSpace(string(item.Salary))
	salaryRange := formatSalaryRange(string(item.SalaryMin), string(item.SalaryMax))
	location := strings.TrimSpace(item.Location)

	var candidates []string
	for _, c := range []string{salary, salaryRange, location} {
		if c != "" {
			candidates = append(candidates, c)
		}
	}
	f := budget.Fields{Tags: item.Tags}
	if len(candidates) > 0 {
		f.Explicit = candidates[0]
		f.Aux = candidates[1:]
	}
	return f
}

// formatSalaryRange renders the feed's numeric salary bounds as "$60,000 -
// $100,000". Zero or missing bounds are left out.
func formatSalaryRange(minRaw, maxRaw string) string {
	lo, _ := strconv.ParseInt(strings.TrimSpace(minRaw), 10, 64)
	hi, _ := strconv.ParseInt(strings.TrimSpace(maxRaw), 10, 64)
	switch {
	case lo > 0 && hi > 0 && hi != lo:
		return fmt.Sprintf("$%s - $%s", humanize.Comma(lo), humanize.Comma(hi))
	case lo > 0:
		return "$" + humanize.Comma(lo)
	case hi > 0:
		return "$" + humanize.Comma(hi)
	}
	return ""
}
