package main

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	ini "gopkg.in/ini.v1"
)

// Settings holds application configuration loaded from settings.ini.
type Settings struct {
	host           string
	port           int
	scheme         string
	app            string
	username       string
	password       string
	subscribeAll   bool
	requestTimeout int

	dialEndpoint    string
	dialTimeout     int
	dialAppArgs     string
	incomingMarker  string
	bridgeName      string
	bridgeType      string
	recordingName   string
	recordingFormat string

	endpoints map[string]string

	metricsListen    string
	metricsNamespace string
}

// LoadSettings reads configuration from ini file and validates required fields.
func LoadSettings(cfg *ini.File) (*Settings, error) {
	s := &Settings{}

	sec := cfg.Section("ari")
	s.host = sec.Key("host").MustString("localhost")
	s.port = sec.Key("port").MustInt(8088)
	s.scheme = sec.Key("scheme").In("ws", []string{"ws", "wss"})
	s.app = sec.Key("app").String()
	s.username = sec.Key("username").String()
	s.password = sec.Key("password").String()
	s.subscribeAll = sec.Key("subscribe_all").MustBool(false)
	s.requestTimeout = sec.Key("request_timeout").MustInt(10)

	sec = cfg.Section("dial")
	s.dialEndpoint = sec.Key("endpoint").MustString("PJSIP/123456@asterisk-operator")
	s.dialTimeout = sec.Key("timeout").MustInt(5)
	s.dialAppArgs = sec.Key("app_args").MustString("dialed")
	s.incomingMarker = sec.Key("incoming_marker").MustString("incoming")
	s.bridgeName = sec.Key("bridge_name").MustString("bridge123")
	s.bridgeType = sec.Key("bridge_type").MustString("mixing")
	s.recordingName = sec.Key("recording_name").MustString("rec123")
	s.recordingFormat = sec.Key("recording_format").MustString("wav")

	s.endpoints = cfg.Section("endpoints").KeysHash()

	sec = cfg.Section("metrics")
	s.metricsListen = sec.Key("listen_address").String()
	s.metricsNamespace = sec.Key("namespace").MustString("aribridge")

	if s.app == "" {
		return nil, fmt.Errorf("ari app must be set")
	}
	if s.username == "" || s.password == "" {
		return nil, fmt.Errorf("ari credentials must be set")
	}
	if s.port <= 0 || s.port > 65535 {
		return nil, fmt.Errorf("ari port %d out of range", s.port)
	}
	if s.requestTimeout < 0 || s.dialTimeout < 0 {
		return nil, fmt.Errorf("timeouts must not be negative")
	}
	if s.dialAppArgs == s.incomingMarker {
		return nil, fmt.Errorf("dial app_args and incoming_marker must differ")
	}

	return s, nil
}

func (s *Settings) Host() string       { return s.host }
func (s *Settings) Port() int          { return s.port }
func (s *Settings) Scheme() string     { return s.scheme }
func (s *Settings) App() string        { return s.app }
func (s *Settings) Username() string   { return s.username }
func (s *Settings) Password() string   { return s.password }
func (s *Settings) SubscribeAll() bool { return s.subscribeAll }

func (s *Settings) DialEndpoint() string { return s.dialEndpoint }
func (s *Settings) DialTimeout() int     { return s.dialTimeout }
func (s *Settings) DialAppArgs() string  { return s.dialAppArgs }

func (s *Settings) IncomingMarker() string  { return s.incomingMarker }
func (s *Settings) BridgeName() string      { return s.bridgeName }
func (s *Settings) BridgeType() string      { return s.bridgeType }
func (s *Settings) RecordingName() string   { return s.recordingName }
func (s *Settings) RecordingFormat() string { return s.recordingFormat }

func (s *Settings) Endpoints() map[string]string { return s.endpoints }

func (s *Settings) MetricsListenAddress() string { return s.metricsListen }
func (s *Settings) MetricsNamespace() string     { return s.metricsNamespace }

func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.requestTimeout) * time.Second
}

// EventsURL is the WebSocket URL of the ARI events endpoint for the
// configured application.
func (s *Settings) EventsURL() string {
	q := url.Values{}
	q.Set("app", s.app)
	q.Set("api_key", s.username+":"+s.password)
	if s.subscribeAll {
		q.Set("subscribeAll", "true")
	}
	u := url.URL{
		Scheme:   s.scheme,
		Host:     net.JoinHostPort(s.host, strconv.Itoa(s.port)),
		Path:     "/ari/events",
		RawQuery: q.Encode(),
	}
	return u.String()
}
