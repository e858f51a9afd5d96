package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/trainmap/gymdex/internal/model"
)

// deviceHeader identifies the anonymous device on favorites endpoints.
const deviceHeader = "X-Device-ID"

func (c *httpClient) Favorites(ctx context.Context, deviceID string) ([]model.Favorite, error) {
	var out struct {
		Items []model.Favorite `json:"items"`
	}
	hdr := map[string]string{deviceHeader: deviceID}
	if err := c.getJSON(ctx, "/me/favorites", nil, hdr, &out); err != nil {
		return nil, eris.Wrap(err, "api: list favorites")
	}
	return out.Items, nil
}

func (c *httpClient) AddFavorite(ctx context.Context, deviceID, slug string) error {
	hdr := map[string]string{deviceHeader: deviceID}
	payload := map[string]string{"slug": slug}
	if err := c.doJSON(ctx, http.MethodPost, "/me/favorites", nil, hdr, payload, nil); err != nil {
		return eris.Wrapf(err, "api: add favorite %q", slug)
	}
	return nil
}

func (c *httpClient) RemoveFavorite(ctx context.Context, deviceID, slug string) error {
	hdr := map[string]string{deviceHeader: deviceID}
	path := "/me/favorites/" + url.PathEscape(slug)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, hdr, nil, nil); err != nil {
		return eris.Wrapf(err, "api: remove favorite %q", slug)
	}
	return nil
}
