package main

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func loadSettings(t *testing.T, data string) (*Settings, error) {
	t.Helper()
	cfg, err := ini.Load([]byte(data))
	require.NoError(t, err)
	return LoadSettings(cfg)
}

const minimalSettings = `
[ari]
app = test_app
username = user
password = secret
`

func TestSettingsDefaults(t *testing.T) {
	s, err := loadSettings(t, minimalSettings)
	require.NoError(t, err)

	assert.Equal(t, "localhost", s.Host())
	assert.Equal(t, 8088, s.Port())
	assert.Equal(t, "ws", s.Scheme())
	assert.False(t, s.SubscribeAll())
	assert.Equal(t, 10*time.Second, s.RequestTimeout())

	assert.Equal(t, "PJSIP/123456@asterisk-operator", s.DialEndpoint())
	assert.Equal(t, 5, s.DialTimeout())
	assert.Equal(t, "dialed", s.DialAppArgs())
	assert.Equal(t, "incoming", s.IncomingMarker())
	assert.Equal(t, "bridge123", s.BridgeName())
	assert.Equal(t, "mixing", s.BridgeType())
	assert.Equal(t, "rec123", s.RecordingName())
	assert.Equal(t, "wav", s.RecordingFormat())

	assert.Empty(t, s.Endpoints())
	assert.Empty(t, s.MetricsListenAddress())
	assert.Equal(t, "aribridge", s.MetricsNamespace())
}

func TestSettingsOverrides(t *testing.T) {
	s, err := loadSettings(t, `
[ari]
host = pbx.example.org
port = 8089
scheme = wss
app = bridge_app
username = user
password = secret
subscribe_all = true
request_timeout = 0

[dial]
endpoint = PJSIP/operator
timeout = 30

[endpoints]
100 = PJSIP/100@office
200 = SIP/200

[metrics]
listen_address = :9100
`)
	require.NoError(t, err)

	assert.Equal(t, "wss", s.Scheme())
	assert.Equal(t, time.Duration(0), s.RequestTimeout())
	assert.Equal(t, "PJSIP/operator", s.DialEndpoint())
	assert.Equal(t, 30, s.DialTimeout())
	assert.Equal(t, map[string]string{"100": "PJSIP/100@office", "200": "SIP/200"}, s.Endpoints())
	assert.Equal(t, ":9100", s.MetricsListenAddress())

	u, err := url.Parse(s.EventsURL())
	require.NoError(t, err)
	assert.Equal(t, "wss", u.Scheme)
	assert.Equal(t, "pbx.example.org:8089", u.Host)
	assert.Equal(t, "/ari/events", u.Path)
	assert.Equal(t, "bridge_app", u.Query().Get("app"))
	assert.Equal(t, "user:secret", u.Query().Get("api_key"))
	assert.Equal(t, "true", u.Query().Get("subscribeAll"))
}

func TestSettingsUnknownSchemeFallsBack(t *testing.T) {
	s, err := loadSettings(t, minimalSettings+"scheme = http\n")
	require.NoError(t, err)
	assert.Equal(t, "ws", s.Scheme())
	assert.NotContains(t, s.EventsURL(), "subscribeAll")
}

func TestSettingsValidation(t *testing.T) {
	cases := map[string]string{
		"missing app":      "[ari]\nusername = u\npassword = p\n",
		"missing password": "[ari]\napp = a\nusername = u\n",
		"bad port":         minimalSettings + "port = 70000\n",
		"negative timeout": minimalSettings + "request_timeout = -1\n",
		"marker clash":     minimalSettings + "[dial]\napp_args = incoming\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loadSettings(t, data)
			assert.Error(t, err)
		})
	}
}
