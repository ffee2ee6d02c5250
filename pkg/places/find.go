package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crisp-geo/crisp/internal/resilience"
)

// findResponse is the JSON envelope returned by the find endpoint. MATCH is
// a bare number in some responses and a quoted string in others, so it is
// decoded leniently.
type findResponse struct {
	Results []struct {
		LPI struct {
			Address                       string          `json:"ADDRESS"`
			AdministrativeArea            string          `json:"ADMINISTRATIVE_AREA"`
			BLPUStateCodeDescription      string          `json:"BLPU_STATE_CODE_DESCRIPTION"`
			ClassificationCodeDescription string          `json:"CLASSIFICATION_CODE_DESCRIPTION"`
			Match                         json.RawMessage `json:"MATCH"`
			XCoordinate                   float64         `json:"X_COORDINATE"`
			YCoordinate                   float64         `json:"Y_COORDINATE"`
		} `json:"LPI"`
	} `json:"results"`
}

// Find returns the best match for a free-text query. A response with zero
// candidates is not an error; the returned Match has Matched=false so the
// caller can surface a "no match" notice.
func (c *client) Find(ctx context.Context, query string) (*Match, error) {
	if c.cache != nil {
		if m, ok := c.cache.Get(ctx, query); ok {
			return m, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	params := url.Values{
		"key":        {c.key},
		"query":      {query},
		"fq":         {c.countryFilter},
		"dataset":    {c.dataset},
		"maxresults": {"1"},
	}
	reqURL := c.baseURL + "/find?" + params.Encode()

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("places", "find")

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "places: build request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "places: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("places: api returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "places: read body")
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	var fr findResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, eris.Wrap(err, "places: parse response")
	}

	if len(fr.Results) == 0 {
		zap.L().Debug("places: no match", zap.String("query", query))
		m := &Match{Matched: false}
		if c.cache != nil {
			_ = c.cache.Put(ctx, query, m)
		}
		return m, nil
	}

	lpi := fr.Results[0].LPI
	m := &Match{
		Address:            lpi.Address,
		AdministrativeArea: lpi.AdministrativeArea,
		Classification:     lpi.ClassificationCodeDescription,
		StatusDescription:  lpi.BLPUStateCodeDescription,
		MatchScore:         parseMatchScore(lpi.Match),
		Easting:            lpi.XCoordinate,
		Northing:           lpi.YCoordinate,
		Matched:            true,
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, query, m); err != nil {
			zap.L().Warn("places: cache store failed", zap.Error(err))
		}
	}
	return m, nil
}

// parseMatchScore decodes MATCH whether it arrives as a number or a string.
func parseMatchScore(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}
