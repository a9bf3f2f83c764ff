// Package alert posts PolicyEngine's block decisions to the central
// collector named by the "central_server_ip" general setting.
package alert

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/hostwatch/edr-agent/domain"
)

const (
	centralServerIPKey = "central_server_ip"
	requestTimeout     = 5 * time.Second
)

// Client posts Alerts to http://<central_server_ip>/alerts. Missing
// central_server_ip is not a startup error: it only surfaces the first time
// an alert actually needs sending, matching the fail-open posture of the
// rest of the agent.
type Client struct {
	httpClient *http.Client
	settings   domain.GeneralSettings
}

// NewClient builds a Client from the general-settings document loaded at
// startup. settings is read once per Send, so a future reload of the
// underlying map (not currently supported) would take effect immediately.
func NewClient(settings domain.GeneralSettings) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		settings:   settings,
	}
}

func (c *Client) Send(a domain.Alert) error {
	ip, ok := c.settings.Lookup(centralServerIPKey)
	if !ok {
		return fmt.Errorf("alert: %q not set in general settings", centralServerIPKey)
	}

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling alert: %w", err)
	}

	url := fmt.Sprintf("http://%s/alerts", ip)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting alert to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("central server %s responded %s", url, resp.Status)
	}

	logrus.Debugf("alert %s delivered to %s (%s)", a.ID, url, resp.Status)
	return nil
}

var _ domain.AlertClientIface = (*Client)(nil)
