package unifi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"
	"github.com/crowdsecurity/go-cs-lib/ptr"
)

func fakeController(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	cstest.RequireErrorContains(t, err, "controller url is required")

	client, err := NewClient(Config{BaseURL: "https://192.168.1.1/", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "default", client.Site())
	assert.Equal(t, "https://192.168.1.1", client.baseURL)
}

func TestFetchIPSEventsWithAPIKey(t *testing.T) {
	var sawKey atomic.Bool

	server := fakeController(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") == "test-key" {
			sawKey.Store(true)
		}

		assert.Equal(t, "/proxy/network/api/s/default/stat/ips/event", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("_limit"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"_id":                   "abc123",
					"timestamp":             int64(1767268800000),
					"inner_alert_signature": "ET SCAN NMAP",
					"inner_alert_severity":  2,
					"src_ip":                "203.0.113.10",
				},
			},
		})
	})

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)

	events, err := client.FetchIPSEvents(t.Context(), 25)
	require.NoError(t, err)
	assert.True(t, sawKey.Load())

	require.Len(t, events, 1)
	assert.Equal(t, "abc123", events[0].ID)
	assert.Equal(t, "ET SCAN NMAP", *events[0].InnerAlertSignature)
	assert.Equal(t, 2, *events[0].InnerAlertSeverity)
}

func TestPasswordLoginFlow(t *testing.T) {
	var logins atomic.Int32

	server := fakeController(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			logins.Add(1)

			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "admin", creds["username"])

			w.WriteHeader(http.StatusOK)

			return
		}

		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	client, err := NewClient(Config{BaseURL: server.URL, Username: "admin", Password: "hunter2"})
	require.NoError(t, err)

	_, err = client.FetchIPSEvents(t.Context(), 10)
	require.NoError(t, err)

	// the session survives, no second login
	_, err = client.FetchIPSEvents(t.Context(), 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load())
}

func TestCredentialsRejected(t *testing.T) {
	server := fakeController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "wrong"})
	require.NoError(t, err)

	_, err = client.FetchIPSEvents(t.Context(), 10)
	cstest.RequireErrorContains(t, err, "controller rejected credentials (status 401)")
}

func TestNoCredentials(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://192.168.1.1"})
	require.NoError(t, err)

	_, err = client.FetchIPSEvents(t.Context(), 10)
	cstest.RequireErrorContains(t, err, "no api key and no username/password configured")
}

func TestToThreatEvent(t *testing.T) {
	raw := IPSEvent{
		ID:                  "abc123",
		Timestamp:           1767268800000,
		FlowID:              ptr.Of(int64(987654)),
		InnerAlertSignature: ptr.Of("ET SCAN NMAP"),
		InnerAlertSeverity:  ptr.Of(2),
		InnerAlertCategory:  ptr.Of("Attempted Information Leak"),
		InnerAlertAction:    ptr.Of("block"),
		Proto:               ptr.Of("TCP"),
		SrcIP:               ptr.Of("203.0.113.10"),
		SrcPort:             ptr.Of(54321),
		DstIP:               ptr.Of("192.168.1.20"),
		DstPort:             ptr.Of(443),
		SrcCountry:          ptr.Of("CN"),
		SrcGeo: &GeoInfo{
			City:         ptr.Of("Shenzhen"),
			CountryName:  ptr.Of("China"),
			Organization: ptr.Of("ExampleNet"),
		},
		DstGeo: &GeoInfo{
			CountryName: ptr.Of("Netherlands"),
		},
		SiteID: ptr.Of("default"),
	}

	event := raw.ToThreatEvent()

	assert.Equal(t, "abc123", event.UnifiEventID)
	assert.Equal(t, "2026-01-01T12:00:00Z", event.Timestamp.String())
	assert.Equal(t, "987654", *event.FlowID)
	assert.Equal(t, "ET SCAN NMAP", *event.Signature)
	assert.Equal(t, "block", *event.Action)

	// the flat country field wins over geo when both are present
	assert.Equal(t, "CN", *event.SrcCountry)
	assert.Equal(t, "Shenzhen", *event.SrcCity)
	assert.Equal(t, "ExampleNet", *event.SrcOrg)

	// with no flat country, geo fills it
	assert.Equal(t, "Netherlands", *event.DestCountry)
}

func TestTestConnection(t *testing.T) {
	server := fakeController(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/proxy/network/api/s/default/stat/health":
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"subsystem": "wlan", "num_user": 12, "num_ap": 3},
					{"subsystem": "lan", "num_user": 7},
				},
			})
		case r.URL.Path == "/proxy/network/api/s/default/stat/ips/event":
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	result := client.TestConnection(t.Context())
	assert.True(t, result.Connected)
	require.NotNil(t, result.ClientCount)
	assert.Equal(t, 12, *result.ClientCount)
	require.NotNil(t, result.APCount)
	assert.Equal(t, 3, *result.APCount)
	require.NotNil(t, result.IPSEventsAvailable)
	assert.True(t, *result.IPSEventsAvailable)
	assert.Nil(t, result.Error)
}

func TestTestConnectionFailure(t *testing.T) {
	server := fakeController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	result := client.TestConnection(t.Context())
	assert.False(t, result.Connected)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "rejected credentials")
}
