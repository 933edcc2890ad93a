// Package osuapi is the client for the osu! v2 API, which is the
// authoritative source for per-player daily-challenge stats.
package osuapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultBaseURL = "https://osu.ppy.sh"

var (
	ErrNotFound     = errors.New("osu api: user not found")
	ErrUnauthorized = errors.New("osu api: unauthorized")
	ErrUnavailable  = errors.New("osu api: upstream unavailable")
)

// Client talks to the osu! v2 API with client-credentials auth. The oauth2
// token source refreshes proactively before expiry; on a 401 the client
// additionally drops its token source and retries the request once, in case
// the token was revoked server-side.
type Client struct {
	conf    *clientcredentials.Config
	baseURL string

	mu         sync.Mutex
	httpClient *http.Client
}

func New(clientID, clientSecret string) *Client {
	return newClient(clientID, clientSecret, defaultBaseURL, defaultBaseURL+"/oauth/token")
}

func newClient(clientID, clientSecret, baseURL, tokenURL string) *Client {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{"public"},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	c := &Client{
		conf:    conf,
		baseURL: baseURL,
	}
	c.httpClient = c.freshClient()
	return c
}

func (c *Client) freshClient() *http.Client {
	client := c.conf.Client(context.Background())
	client.Timeout = 15 * time.Second
	return client
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.httpClient
}

// resetAuth discards the cached token source so the next request fetches a
// fresh token.
func (c *Client) resetAuth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = c.freshClient()
}

// userResponse mirrors the fields of GET /api/v2/users/{user}/osu that the
// tracker consumes.
type userResponse struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Statistics struct {
		GlobalRank *int `json:"global_rank"`
	} `json:"statistics"`
	DailyChallengeUserStats struct {
		DailyStreakCurrent int        `json:"daily_streak_current"`
		DailyStreakBest    int        `json:"daily_streak_best"`
		Playcount          int        `json:"playcount"`
		LastUpdate         *time.Time `json:"last_update"`
	} `json:"daily_challenge_user_stats"`
}

// GetUser fetches a player's current stats snapshot by id or username.
func (c *Client) GetUser(ctx context.Context, identifier string) (*models.StatsSnapshot, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/api/v2/users/%s/osu", c.baseURL, identifier))
	if err != nil {
		return nil, err
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: decoding user response: %v", ErrUnavailable, err)
	}

	snap := &models.StatsSnapshot{
		ID:                 user.ID,
		Username:           user.Username,
		Playcount:          user.DailyChallengeUserStats.Playcount,
		DailyStreakCurrent: user.DailyChallengeUserStats.DailyStreakCurrent,
		DailyStreakBest:    user.DailyChallengeUserStats.DailyStreakBest,
		LastActivity:       user.DailyChallengeUserStats.LastUpdate,
	}
	if user.Statistics.GlobalRank != nil {
		snap.GlobalRank = *user.Statistics.GlobalRank
	}
	return snap, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	body, status, err := c.doOnce(ctx, url)
	if err == nil && status == http.StatusUnauthorized {
		// Token may have been revoked ahead of its expiry; refresh and
		// retry exactly once.
		c.resetAuth()
		body, status, err = c.doOnce(ctx, url)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case status == http.StatusOK:
		return body, nil
	case status == http.StatusNotFound:
		return nil, ErrNotFound
	case status == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, status)
	}
}

func (c *Client) doOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := readAllLimited(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}
