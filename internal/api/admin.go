package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/trainmap/gymdex/internal/model"
)

// ErrNoAdminToken is returned when an /admin call is attempted without a
// configured bearer token.
var ErrNoAdminToken = eris.New("api: admin token not configured")

func (c *httpClient) adminHeaders() (map[string]string, error) {
	if c.adminToken == "" {
		return nil, ErrNoAdminToken
	}
	return map[string]string{"Authorization": "Bearer " + c.adminToken}, nil
}

func (c *httpClient) Candidates(ctx context.Context, f model.CandidateFilter) (*model.CandidatePage, error) {
	hdr, err := c.adminHeaders()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var out model.CandidatePage
	if err := c.getJSON(ctx, "/admin/candidates", q, hdr, &out); err != nil {
		return nil, eris.Wrap(err, "api: list candidates")
	}
	return &out, nil
}

func (c *httpClient) UpdateCandidate(ctx context.Context, id string, patch model.CandidatePatch) (*model.Candidate, error) {
	hdr, err := c.adminHeaders()
	if err != nil {
		return nil, err
	}

	var out model.Candidate
	path := "/admin/candidates/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, hdr, patch, &out); err != nil {
		return nil, eris.Wrapf(err, "api: update candidate %q", id)
	}
	return &out, nil
}

func (c *httpClient) ApproveCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	hdr, err := c.adminHeaders()
	if err != nil {
		return nil, err
	}

	var out model.Candidate
	path := "/admin/candidates/" + url.PathEscape(id) + "/approve"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, hdr, nil, &out); err != nil {
		return nil, eris.Wrapf(err, "api: approve candidate %q", id)
	}
	return &out, nil
}

func (c *httpClient) RejectCandidate(ctx context.Context, id, note string) (*model.Candidate, error) {
	hdr, err := c.adminHeaders()
	if err != nil {
		return nil, err
	}

	var out model.Candidate
	path := "/admin/candidates/" + url.PathEscape(id) + "/reject"
	payload := map[string]string{"note": note}
	if err := c.doJSON(ctx, http.MethodPost, path, nil, hdr, payload, &out); err != nil {
		return nil, eris.Wrapf(err, "api: reject candidate %q", id)
	}
	return &out, nil
}
