package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tradevault-engine/internal/model"
)

// RecentKlines fetches the newest limit bars for symbol, oldest first.
// Every row the REST endpoint returns is a completed bar.
func (c *Client) RecentKlines(ctx context.Context, symbol string, limit int) ([]model.Kline, error) {
	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		c.restURL, url.QueryEscape(symbol), c.interval, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: build klines request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance: fetch klines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("binance: klines %s: status %d: %s",
			symbol, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Rows are positional arrays: [openTime, "open", "high", "low",
	// "close", "volume", ...]; numbers beyond index 5 are unused.
	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("binance: decode klines: %w", err)
	}

	out := make([]model.Kline, 0, len(rows))
	for _, row := range rows {
		k, err := parseRow(symbol, row)
		if err != nil {
			return nil, fmt.Errorf("binance: parse kline row: %w", err)
		}
		out = append(out, k)
	}
	return out, nil
}

func parseRow(symbol string, row []json.RawMessage) (model.Kline, error) {
	if len(row) < 6 {
		return model.Kline{}, fmt.Errorf("short row: %d fields", len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return model.Kline{}, err
	}

	var vals [5]float64
	for i := range vals {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return model.Kline{}, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Kline{}, err
		}
		vals[i] = f
	}

	return model.Kline{
		Symbol:   symbol,
		OpenTime: openTime,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
		Closed:   true,
	}, nil
}
