package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/gigfinder/internal/budget"
	"github.com/amishk599/gigfinder/internal/model"
)

const freelancerBaseURL = "https://www.freelancer.com"

// FreelancerAdapter scrapes the Freelancer.com project search pages.
// It is the only source with pagination.
type FreelancerAdapter struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewFreelancerAdapter creates an adapter for Freelancer.com search.
func NewFreelancerAdapter(client *http.Client, opts Options, logger *slog.Logger) *FreelancerAdapter {
	return &FreelancerAdapter{
		opts:   opts.withDefaults(freelancerBaseURL),
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func (a *FreelancerAdapter) Platform() model.Platform { return model.PlatformFreelancer }

// Search fetches one result page for term and normalizes its job cards.
func (a *FreelancerAdapter) Search(ctx context.Context, term string, page int) ([]model.Job, error) {
	if page < 1 {
		page = 1
	}
	searchURL := fmt.Sprintf("%s/jobs/%d/?keyword=%s&status=open&s=new",
		a.opts.BaseURL, page, url.QueryEscape(term))

	doc, err := getDocument(ctx, a.client, searchURL, a.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("freelancer search %q page %d: %w", term, page, err)
	}

	postedAt := a.now().UTC().Format(time.RFC3339)
	var jobs []model.Job
	doc.Find(".JobSearchCard-item").EachWithBreak(func(i int, card *goquery.Selection) bool {
		job, ok := a.parseCard(card, postedAt)
		if !ok {
			a.logger.Debug("card skipped", "source", model.PlatformFreelancer, "index", i)
			return true
		}
		jobs = append(jobs, job)
		return len(jobs) < a.opts.MaxResults
	})
	return jobs, nil
}

// parseCard normalizes one search card. Cards without a title link are
// rejected.
func (a *FreelancerAdapter) parseCard(card *goquery.Selection, postedAt string) (model.Job, bool) {
	titleEl := card.Find(".JobSearchCard-primary-heading a").First()
	title := cleanText(titleEl.Text())
	href, _ := titleEl.Attr("href")
	link := resolveURL(a.opts.BaseURL, href)
	if title == "" || link == "" {
		return model.Job{}, false
	}

	externalID := trailingSegment(link)
	if externalID == "" {
		externalID = hashID(link)
	}

	var tags []string
	card.Find(".JobSearchCard-primary-tagsLink").Each(func(_ int, s *goquery.Selection) {
		if t := cleanText(s.Text()); t != "" {
			tags = append(tags, t)
		}
	})

	price := cleanText(card.Find(".JobSearchCard-primary-price").First().Text())
	desc := cleanText(card.Find(".JobSearchCard-primary-description").First().Text())

	return model.Job{
		Platform:    model.PlatformFreelancer,
		ExternalID:  externalID,
		Title:       title,
		URL:         link,
		Budget:      budget.OrNA(budget.Fields{Explicit: price, Tags: tags}),
		Description: truncate(desc, descriptionMax),
		PostedAt:    postedAt,
	}, true
}
