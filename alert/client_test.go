package alert

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/hostwatch/edr-agent/domain"
)

func TestSendPostsAlertToCentralServer(t *testing.T) {
	var received domain.Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/alerts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c := NewClient(domain.GeneralSettings{"central_server_ip": u.Host})

	a := domain.Alert{
		ID:          "test-id",
		AlertLabel:  "Suspicious command execution blocked",
		Machine:     "host1",
		Cause:       "EDR CMD BLOQUÉ: nc (pid=7)",
		TriggeredAt: time.Now().UTC(),
	}

	require.NoError(t, c.Send(a))
	require.Equal(t, a.ID, received.ID)
	require.Equal(t, a.Cause, received.Cause)
}

func TestSendFailsWithoutCentralServerIP(t *testing.T) {
	c := NewClient(domain.GeneralSettings{})
	err := c.Send(domain.Alert{ID: "x"})
	require.Error(t, err)
}

func TestSendFailsOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c := NewClient(domain.GeneralSettings{"central_server_ip": u.Host})
	err = c.Send(domain.Alert{ID: "x"})
	require.Error(t, err)
}
