package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/gigfinder/internal/budget"
	"github.com/amishk599/gigfinder/internal/model"
)

const weWorkRemotelyBaseURL = "https://weworkremotely.com"

// WeWorkRemotelyAdapter scrapes the We Work Remotely search page. The site
// returns every match on a single page, so page is ignored.
type WeWorkRemotelyAdapter struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewWeWorkRemotelyAdapter creates an adapter for We Work Remotely search.
func NewWeWorkRemotelyAdapter(client *http.Client, opts Options, logger *slog.Logger) *WeWorkRemotelyAdapter {
	return &WeWorkRemotelyAdapter{
		opts:   opts.withDefaults(weWorkRemotelyBaseURL),
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func (a *WeWorkRemotelyAdapter) Platform() model.Platform { return model.PlatformWeWorkRemotely }

func (a *WeWorkRemotelyAdapter) Search(ctx context.Context, term string, _ int) ([]model.Job, error) {
	searchURL := fmt.Sprintf("%s/remote-jobs/search?term=%s", a.opts.BaseURL, url.QueryEscape(term))

	doc, err := getDocument(ctx, a.client, searchURL, a.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("weworkremotely search %q: %w", term, err)
	}

	postedAt := a.now().UTC().Format(time.RFC3339)
	var jobs []model.Job
	doc.Find("section.jobs article ul li").EachWithBreak(func(i int, card *goquery.Selection) bool {
		// "view all" rows and dividers are not postings
		if card.Find("span.view-all").Length() > 0 {
			return true
		}
		job, ok := a.parseCard(card, postedAt)
		if !ok {
			a.logger.Debug("card skipped", "source", model.PlatformWeWorkRemotely, "index", i)
			return true
		}
		jobs = append(jobs, job)
		return len(jobs) < a.opts.MaxResults
	})
	return jobs, nil
}

func (a *WeWorkRemotelyAdapter) parseCard(card *goquery.Selection, postedAt string) (model.Job, bool) {
	var href string
	card.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if strings.Contains(h, "remote-jobs") {
			href = h
			return false
		}
		return true
	})
	link := resolveURL(a.opts.BaseURL, href)
	title := cleanText(card.Find("span.title").First().Text())
	if link == "" || title == "" {
		return model.Job{}, false
	}

	externalID := trailingSegment(link)
	if externalID == "" {
		externalID = hashID(link)
	}

	companies := card.Find("span.company")
	company := cleanText(companies.First().Text())
	date := cleanText(card.Find("span.date").First().Text())

	var tags []string
	card.Find("span.company, span.region, .new-listing__categories__category").Each(func(i int, s *goquery.Selection) {
		if t := cleanText(s.Text()); t != "" && t != company {
			tags = append(tags, t)
		}
	})

	if company != "" {
		title = fmt.Sprintf("%s (%s)", title, company)
	}
	desc := fmt.Sprintf("Remote job at %s. Posted: %s", company, date)

	return model.Job{
		Platform:    model.PlatformWeWorkRemotely,
		ExternalID:  externalID,
		Title:       title,
		URL:         link,
		Budget:      budget.OrNA(budget.Fields{Tags: tags}),
		Description: truncate(desc, descriptionMax),
		PostedAt:    postedAt,
	}, true
}
