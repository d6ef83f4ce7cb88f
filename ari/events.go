package ari

import (
	"context"
	"encoding/json"
	"strings"
)

// Event type tags handled by this package's users.
const (
	EventStasisStart   = "StasisStart"
	EventStasisEnd     = "StasisEnd"
	EventDial          = "Dial"
	EventChannelVarset = "ChannelVarset"
)

// CallerID is a name/number pair of a channel snapshot.
type CallerID struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// DialplanCEP is the dialplan location of a channel.
type DialplanCEP struct {
	Context  string `json:"context"`
	Exten    string `json:"exten"`
	Priority int64  `json:"priority"`
	AppName  string `json:"app_name,omitempty"`
	AppData  string `json:"app_data,omitempty"`
}

// Channel is a channel snapshot as carried by events and REST responses.
type Channel struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	State        string       `json:"state,omitempty"`
	Caller       *CallerID    `json:"caller,omitempty"`
	Connected    *CallerID    `json:"connected,omitempty"`
	AccountCode  string       `json:"accountcode,omitempty"`
	Dialplan     *DialplanCEP `json:"dialplan,omitempty"`
	CreationTime string       `json:"creationtime,omitempty"`
	Language     string       `json:"language,omitempty"`
}

// AppData returns the dialplan application data, or "" when unknown.
func (c *Channel) AppData() string {
	if c == nil || c.Dialplan == nil {
		return ""
	}
	return c.Dialplan.AppData
}

// Exten returns the dialplan extension, or "" when unknown.
func (c *Channel) Exten() string {
	if c == nil || c.Dialplan == nil {
		return ""
	}
	return c.Dialplan.Exten
}

// Bridge is a bridge snapshot.
type Bridge struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Technology   string   `json:"technology,omitempty"`
	BridgeType   string   `json:"bridge_type,omitempty"`
	BridgeClass  string   `json:"bridge_class,omitempty"`
	Creator      string   `json:"creator,omitempty"`
	Channels     []string `json:"channels,omitempty"`
	CreationTime string   `json:"creationtime,omitempty"`
}

// LiveRecording is the snapshot returned when a recording starts.
type LiveRecording struct {
	Name      string `json:"name"`
	Format    string `json:"format"`
	State     string `json:"state"`
	TargetURI string `json:"target_uri,omitempty"`
}

// Event is an unsolicited notification. Only the fields relevant to the
// event type are populated; Raw keeps the complete frame.
type Event struct {
	Type        string `json:"type"`
	Timestamp   string `json:"timestamp,omitempty"`
	Application string `json:"application,omitempty"`
	AsteriskID  string `json:"asterisk_id,omitempty"`

	Channel *Channel `json:"channel,omitempty"`
	Bridge  *Bridge  `json:"bridge,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Dial
	Peer       *Channel `json:"peer,omitempty"`
	Caller     *Channel `json:"caller,omitempty"`
	DialStatus string   `json:"dialstatus,omitempty"`
	DialString string   `json:"dialstring,omitempty"`

	// ChannelVarset
	Variable string `json:"variable,omitempty"`
	Value    string `json:"value,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// EventHandler handles one event. It runs on the router goroutine and must
// not block; r may be used to issue further requests.
type EventHandler func(ctx context.Context, r Requester, ev *Event)

// EventHandlers maps an event type tag to its handler.
type EventHandlers map[string]EventHandler

func normalizeEventType(t string) string {
	return strings.ToLower(t)
}

// normalized returns a copy keyed by lower-cased event type.
func (h EventHandlers) normalized() EventHandlers {
	out := make(EventHandlers, len(h))
	for k, fn := range h {
		if fn != nil {
			out[normalizeEventType(k)] = fn
		}
	}
	return out
}
