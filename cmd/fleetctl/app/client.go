package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

type apiClient struct {
	base *url.URL
	http *http.Client
}

func newAPIClient(server string, timeout time.Duration) (*apiClient, error) {
	base, err := url.Parse(strings.TrimSuffix(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", server, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", server)
	}
	return &apiClient{base: base, http: &http.Client{Timeout: timeout}}, nil
}

func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &body) != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, body.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}

// socketURL is the websocket endpoint matching the HTTP base URL.
func (c *apiClient) socketURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	return u.String()
}

// filterFromFlags mirrors the query API: one identifier or any number of types.
func filterFromFlags(identifier string, types []string) (model.Filter, error) {
	switch {
	case identifier != "" && len(types) > 0:
		return model.Filter{}, fmt.Errorf("--identifier and --type are exclusive")
	case identifier != "":
		return model.ByIdentifier(identifier), nil
	case len(types) > 0:
		parsed := make([]model.VesselType, 0, len(types))
		for _, t := range types {
			vt, err := model.ParseVesselType(t)
			if err != nil {
				return model.Filter{}, err
			}
			parsed = append(parsed, vt)
		}
		return model.ByTypes(parsed...), nil
	default:
		return model.AllVessels(), nil
	}
}

func filterQuery(f model.Filter) url.Values {
	q := url.Values{}
	switch f.Kind {
	case model.FilterIdentifier:
		q.Set("identifier", f.Identifier)
	case model.FilterTypes:
		for _, t := range f.Types {
			q.Add("type", string(t))
		}
	}
	return q
}
