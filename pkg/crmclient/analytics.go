package crmclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"polimata/pkg/domain"
)

func (c *Client) Summary(ctx context.Context) (domain.Summary, error) {
	var summary domain.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/summary", nil, nil, &summary); err != nil {
		return domain.Summary{}, err
	}
	return summary, nil
}

func (c *Client) Timeline(ctx context.Context, days int) (domain.Timeline, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var timeline domain.Timeline
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/timeline", q, nil, &timeline); err != nil {
		return domain.Timeline{}, err
	}
	return timeline, nil
}

func (c *Client) TopCompanies(ctx context.Context, limit int) ([]domain.TopCompany, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		TopCompanies []domain.TopCompany `json:"top_companies"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/top-companies", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.TopCompanies == nil {
		return []domain.TopCompany{}, nil
	}
	return resp.TopCompanies, nil
}
