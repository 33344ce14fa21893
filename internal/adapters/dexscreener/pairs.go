package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

const (
	tokensPath = "/dex/tokens/"
	searchPath = "/dex/search"
)

// FetchPairs implementa ports.PairSource: una única consulta, normalizada.
func (c *Client) FetchPairs(ctx context.Context, q domain.Query) (domain.PairBatch, error) {
	path, err := queryPath(q)
	if err != nil {
		return domain.PairBatch{}, err
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return domain.PairBatch{}, fmt.Errorf("dexscreener.FetchPairs: %w", err)
	}

	var env pairsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PairBatch{}, &domain.FetchError{
			Op:  "decode",
			URL: c.baseURL + path,
			Err: fmt.Errorf("%w: envelope: %v", domain.ErrMalformedRecord, err),
		}
	}

	batch := normalizeBatch(env.Pairs, c.clock.Now().UTC())
	slog.Debug("pairs fetched",
		"kind", q.Kind,
		"value", q.Value,
		"raw", len(env.Pairs),
		"candidates", len(batch.Candidates),
		"malformed", batch.Malformed,
	)
	return batch, nil
}

func queryPath(q domain.Query) (string, error) {
	if q.Value == "" {
		return "", fmt.Errorf("dexscreener.queryPath: empty %s query", q.Kind)
	}
	switch q.Kind {
	case domain.QueryToken:
		return tokensPath + url.PathEscape(q.Value), nil
	case domain.QuerySearch:
		return searchPath + "?q=" + url.QueryEscape(q.Value), nil
	default:
		return "", fmt.Errorf("dexscreener.queryPath: unknown query kind %q", q.Kind)
	}
}
