package ari

import (
	"context"
	"net/url"
	"strconv"
)

// Channels builds channel resource requests.
type Channels struct {
	r Requester
}

// NewChannels creates a channel request builder on top of r.
func NewChannels(r Requester) *Channels {
	return &Channels{r: r}
}

// List returns all active channels.
func (c *Channels) List(ctx context.Context) ([]Channel, error) {
	var out []Channel
	err := do(ctx, c.r, NewRequest(MethodGet, "channels"), &out)
	return out, err
}

// Get returns one channel.
func (c *Channels) Get(ctx context.Context, id string) (*Channel, error) {
	var out Channel
	if err := do(ctx, c.r, NewRequest(MethodGet, "channels/"+url.PathEscape(id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateParams describes a channel to create without dialing it.
type CreateParams struct {
	Endpoint   string
	App        string
	AppArgs    string
	Originator string
	ChannelID  string
	Formats    string
}

// Create creates a channel in the application. The channel is dialed
// separately with Dial.
func (c *Channels) Create(ctx context.Context, p CreateParams) (*Channel, error) {
	req := NewRequest(MethodPost, "channels/create").
		WithQuery("endpoint", p.Endpoint).
		WithQuery("app", p.App)
	if p.AppArgs != "" {
		req.WithQuery("appArgs", p.AppArgs)
	}
	if p.Originator != "" {
		req.WithQuery("originator", p.Originator)
	}
	if p.ChannelID != "" {
		req.WithQuery("channelId", p.ChannelID)
	}
	if p.Formats != "" {
		req.WithQuery("formats", p.Formats)
	}

	var out Channel
	if err := do(ctx, c.r, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dial dials a created channel. A timeout of zero leaves the server default.
func (c *Channels) Dial(ctx context.Context, id, caller string, timeoutSeconds int) error {
	q := url.Values{}
	if caller != "" {
		q.Set("caller", caller)
	}
	if timeoutSeconds != 0 {
		q.Set("timeout", strconv.Itoa(timeoutSeconds))
	}
	path := "channels/" + url.PathEscape(id) + "/dial"
	return do(ctx, c.r, NewRequest(MethodPost, withQuery(path, q)), nil)
}

// Hangup hangs up a channel and waits for the acknowledgement.
func (c *Channels) Hangup(ctx context.Context, id, reason string) error {
	return do(ctx, c.r, hangupRequest(id, reason), nil)
}

// HangupAsync hangs up a channel without waiting.
func (c *Channels) HangupAsync(id, reason string) error {
	return c.r.Fire(hangupRequest(id, reason))
}

func hangupRequest(id, reason string) *Request {
	q := url.Values{}
	if reason != "" {
		q.Set("reason", reason)
	}
	return NewRequest(MethodDelete, withQuery("channels/"+url.PathEscape(id), q))
}
