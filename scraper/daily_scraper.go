// Package scraper collects the set of players present on today's public
// daily-challenge ranking page. It is a best-effort confirmation layer next
// to the stats API: it proves "played today", nothing more.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mirokatsu/osu-streak-tracker/models"
)

const defaultBaseURL = "https://osu.ppy.sh"

type DailyScraper struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func New(logger *slog.Logger) *DailyScraper {
	return &DailyScraper{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		logger:     logger,
	}
}

// PlayersWhoPlayedToday walks the paginated daily-challenge ranking for now's
// UTC calendar date and returns every player it can extract. The walk is best
// effort: any page failure ends it and whatever was collected so far is
// returned, so a total failure yields an empty list rather than an error.
func (s *DailyScraper) PlayersWhoPlayedToday(ctx context.Context, now time.Time) []models.ScrapedPlayer {
	year, month, day := now.UTC().Date()
	entryURL := fmt.Sprintf("%s/rankings/daily-challenge/%d-%d-%d", s.baseURL, year, int(month), day)

	players := make([]models.ScrapedPlayer, 0)

	currentURL := entryURL
	for currentURL != "" {
		s.logger.Info("navigating ranking page", slog.String("url", currentURL))

		pagePlayers, nextURL, err := s.scrapePage(ctx, currentURL)
		if err != nil {
			s.logger.Error("ranking page scrape failed, keeping players collected so far",
				slog.String("url", currentURL), slog.Any("error", err))
			break
		}
		players = append(players, pagePlayers...)

		if nextURL == currentURL {
			// Malformed pagination pointing back at itself; without this
			// guard the walk would never terminate.
			s.logger.Error("pagination loop detected, stopping", slog.String("url", currentURL))
			break
		}
		currentURL = nextURL
	}

	s.logger.Info("ranking walk finished", slog.Int("players", len(players)))
	return players
}

// scrapePage fetches one ranking page and returns its players plus the next
// page URL, empty when the page is the last one.
func (s *DailyScraper) scrapePage(ctx context.Context, pageURL string) ([]models.ScrapedPlayer, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse ranking page: %w", err)
	}

	players := make([]models.ScrapedPlayer, 0)
	doc.Find(".ranking-page-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.ranking-page-table-main__link.js-usercard").First()
		if link.Length() == 0 {
			return
		}

		id, _ := strconv.Atoi(link.AttrOr("data-user-id", ""))
		name := strings.TrimSpace(link.Find("span").First().Text())

		if id != 0 || name != "" {
			players = append(players, models.ScrapedPlayer{ID: id, Name: name})
		}
	})

	nextHref := doc.Find("nav.pagination-v2 div:last-child > a").First().AttrOr("href", "")
	nextURL, err := resolveURL(pageURL, nextHref)
	if err != nil {
		return players, "", fmt.Errorf("failed to resolve next page url %q: %w", nextHref, err)
	}

	return players, nextURL, nil
}

func resolveURL(base, href string) (string, error) {
	if href == "" {
		return "", nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}
