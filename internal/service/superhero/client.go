package superhero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kapu/superhero-cards-go/internal/constants"
	"github.com/kapu/superhero-cards-go/internal/domain"
	"github.com/kapu/superhero-cards-go/internal/util"
	"github.com/kapu/superhero-cards-go/pkg/errors"
	"go.uber.org/zap"
)

// HeroFetcher resolves a catalog id into a hero record.
type HeroFetcher interface {
	FetchHero(ctx context.Context, id int) (*domain.Hero, error)
}

// ResponseCache stores validated raw bodies by hero id.
type ResponseCache interface {
	GetHeroResponse(ctx context.Context, id int) ([]byte, bool)
	SetHeroResponse(ctx context.Context, id int, body []byte)
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	cache      ResponseCache
	logger     *zap.Logger
}

// NewClient creates a client for endpoint, the "<base-url>/<token>" prefix a
// hero id is appended to. cache may be nil.
func NewClient(httpClient *http.Client, endpoint string, cache ResponseCache, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.APIConfig.SuperheroTimeout}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		cache:      cache,
		logger:     logger,
	}
}

// FetchHero issues one GET for id. There is no retry: every error returned is
// terminal for this attempt.
func (c *Client) FetchHero(ctx context.Context, id int) (*domain.Hero, error) {
	if id <= 0 {
		return nil, errors.NewValidationError("hero id must be positive", "id", id)
	}

	if c.cache != nil {
		if body, ok := c.cache.GetHeroResponse(ctx, id); ok {
			if hero, err := decodeHero(id, body, http.StatusOK); err == nil {
				return hero, nil
			}
			c.logger.Debug("Ignoring unusable cached hero response", zap.Int("hero_id", id))
		}
	}

	body, status, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}

	hero, err := decodeHero(id, body, status)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.SetHeroResponse(ctx, id, body)
	}

	c.logger.Debug("Hero fetched",
		zap.Int("hero_id", id),
		zap.String("name", hero.Name),
	)
	return hero, nil
}

func (c *Client) get(ctx context.Context, id int) ([]byte, int, error) {
	reqURL := c.endpoint + "/" + strconv.Itoa(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, errors.NewAPIError("failed to build request", 0, map[string]any{
			"hero_id": id,
		}).WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.NewAPIError("request failed", 0, map[string]any{
			"hero_id": id,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.APIConfig.MaxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, errors.NewAPIError("failed to read response body", resp.StatusCode, map[string]any{
			"hero_id": id,
		}).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, errors.NewAPIError(fmt.Sprintf("unexpected status: %d", resp.StatusCode), resp.StatusCode, map[string]any{
			"hero_id": id,
			"body":    util.TruncateString(string(body), constants.StringLimits.LoggedBody),
		})
	}

	return body, resp.StatusCode, nil
}

func decodeHero(id int, body []byte, status int) (*domain.Hero, error) {
	var payload domain.HeroResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewAPIError("response is not valid hero JSON", status, map[string]any{
			"hero_id": id,
			"body":    util.TruncateString(string(body), constants.StringLimits.LoggedBody),
		}).WithCause(err)
	}

	if field := payload.MissingField(); field != "" {
		return nil, errors.NewIncompleteResponseError(id, field)
	}

	hero := payload.ToHero()
	return &hero, nil
}
