package client

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	activeThemeKey = "active_theme"
	DefaultTheme   = "default"
)

// SiteSettings returns every setting as a key/value map.
func (c *Client) SiteSettings(ctx context.Context) (map[string]string, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, Request{Endpoint: "/api/admin/settings"}, &raw); err != nil {
		return nil, err
	}
	return decodeSettings(raw), nil
}

// decodeSettings accepts the map bare or wrapped in a data field, and
// stringifies non-string values.
func decodeSettings(raw json.RawMessage) map[string]string {
	var wrapped struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		fields = wrapped.Data
	} else {
		_ = json.Unmarshal(raw, &fields)
		delete(fields, "success")
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		if string(v) == "null" {
			out[k] = ""
			continue
		}
		out[k] = string(v)
	}
	return out
}

// UpdateSiteSettings writes the given keys and leaves the rest alone.
func (c *Client) UpdateSiteSettings(ctx context.Context, settings map[string]string) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Endpoint: "/api/admin/settings", Body: settings}, nil)
}

// PublicSiteSettings is readable without credentials.
func (c *Client) PublicSiteSettings(ctx context.Context) (*PublicSiteSettings, error) {
	var resp envelope[PublicSiteSettings]
	if err := c.Do(ctx, Request{Endpoint: "/api/site-settings", SkipAuth: true}, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ActiveTheme == "" {
		resp.Data.ActiveTheme = DefaultTheme
	}
	return &resp.Data, nil
}

// ActiveTheme returns the configured theme id, "default" when unset.
func (c *Client) ActiveTheme(ctx context.Context) (string, error) {
	settings, err := c.SiteSettings(ctx)
	if err != nil {
		return "", err
	}
	if theme := settings[activeThemeKey]; theme != "" {
		return theme, nil
	}
	return DefaultTheme, nil
}

func (c *Client) SetActiveTheme(ctx context.Context, theme string) error {
	return c.UpdateSiteSettings(ctx, map[string]string{activeThemeKey: theme})
}
