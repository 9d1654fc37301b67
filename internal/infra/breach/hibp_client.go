// Package breach implements the k-anonymity breached-password lookup.
package breach

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"credvault/config"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/errors"
)

const maxRangeBodySize = 2 << 20

// RangeFetcher returns every known suffix for a 5-character hash prefix with its breach count.
type RangeFetcher interface {
	FetchRange(ctx context.Context, prefix string) (map[string]int, error)
}

// hibpClient queries a Pwned Passwords compatible range API.
type hibpClient struct {
	baseURL    string
	userAgent  string
	addPadding bool
	client     *http.Client
}

// NewHIBPClient builds a range fetcher over HTTP. The config is expected to be defaulted.
func NewHIBPClient(cfg *config.BreachConfig) RangeFetcher {
	return &hibpClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		addPadding: cfg.AddPadding,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *hibpClient) FetchRange(ctx context.Context, prefix string) (map[string]int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrOracleUnavailable, err.Error())
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.addPadding {
		req.Header.Set("Add-Padding", "true")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrOracleUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxRangeBodySize))

		return nil, errors.Wrapf(domainerrors.ErrOracleUnavailable, "range request returned status %d", resp.StatusCode)
	}

	return parseRange(io.LimitReader(resp.Body, maxRangeBodySize))
}

// parseRange reads SUFFIX:COUNT lines. Blank lines are skipped and CRLF endings are accepted.
func parseRange(r io.Reader) (map[string]int, error) {
	entries := make(map[string]int)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		suffix, rawCount, ok := strings.Cut(line, ":")
		if !ok || suffix == "" {
			return nil, errors.Wrapf(domainerrors.ErrOracleUnavailable, "malformed range line %q", line)
		}
		count, err := strconv.Atoi(strings.TrimSpace(rawCount))
		if err != nil || count < 0 {
			return nil, errors.Wrapf(domainerrors.ErrOracleUnavailable, "malformed count in range line %q", line)
		}

		entries[strings.ToUpper(suffix)] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(domainerrors.ErrOracleUnavailable, err.Error())
	}

	return entries, nil
}
