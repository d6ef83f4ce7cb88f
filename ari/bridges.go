package ari

import (
	"context"
	"net/url"
	"strconv"
)

// do sends req through r, checks the status and decodes the body into out
// when out is non-nil.
func do(ctx context.Context, r Requester, req *Request, out interface{}) error {
	resp, err := r.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Unmarshal(out)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// Bridges builds bridge resource requests.
type Bridges struct {
	r Requester
}

// NewBridges creates a bridge request builder on top of r.
func NewBridges(r Requester) *Bridges {
	return &Bridges{r: r}
}

// List returns all bridges.
func (b *Bridges) List(ctx context.Context) ([]Bridge, error) {
	var out []Bridge
	err := do(ctx, b.r, NewRequest(MethodGet, "bridges"), &out)
	return out, err
}

// Create creates a bridge. With an empty id the server picks one.
func (b *Bridges) Create(ctx context.Context, id, name, bridgeType string) (*Bridge, error) {
	if bridgeType == "" {
		bridgeType = "mixing"
	}
	q := url.Values{"type": {bridgeType}}
	if name != "" {
		q.Set("name", name)
	}
	path := "bridges"
	if id != "" {
		path = "bridges/" + url.PathEscape(id)
	}
	var out Bridge
	if err := do(ctx, b.r, NewRequest(MethodPost, withQuery(path, q)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one bridge.
func (b *Bridges) Get(ctx context.Context, id string) (*Bridge, error) {
	var out Bridge
	if err := do(ctx, b.r, NewRequest(MethodGet, "bridges/"+url.PathEscape(id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete destroys a bridge and waits for the acknowledgement.
func (b *Bridges) Delete(ctx context.Context, id string) error {
	return do(ctx, b.r, deleteBridgeRequest(id), nil)
}

// DeleteAsync destroys a bridge without waiting.
func (b *Bridges) DeleteAsync(id string) error {
	return b.r.Fire(deleteBridgeRequest(id))
}

func deleteBridgeRequest(id string) *Request {
	return NewRequest(MethodDelete, "bridges/"+url.PathEscape(id))
}

// AddChannelOptions are the optional addChannel parameters.
type AddChannelOptions struct {
	Role                        string
	AbsorbDTMF                  bool
	Mute                        bool
	InhibitConnectedLineUpdates bool
}

// AddChannel adds channel to the bridge.
func (b *Bridges) AddChannel(ctx context.Context, bridgeID, channel string, opts AddChannelOptions) error {
	q := url.Values{"channel": {channel}}
	if opts.Role != "" {
		q.Set("role", opts.Role)
	}
	if opts.AbsorbDTMF {
		q.Set("absorbDTMF", "true")
	}
	if opts.Mute {
		q.Set("mute", "true")
	}
	if opts.InhibitConnectedLineUpdates {
		q.Set("inhibitConnectedLineUpdates", "true")
	}
	path := "bridges/" + url.PathEscape(bridgeID) + "/addChannel"
	return do(ctx, b.r, NewRequest(MethodPost, withQuery(path, q)), nil)
}

// RemoveChannel removes channel from the bridge.
func (b *Bridges) RemoveChannel(ctx context.Context, bridgeID, channel string) error {
	path := "bridges/" + url.PathEscape(bridgeID) + "/removeChannel"
	return do(ctx, b.r, NewRequest(MethodPost, withQuery(path, url.Values{"channel": {channel}})), nil)
}

// RecordOptions are the bridge recording parameters. Name and Format are
// required.
type RecordOptions struct {
	Name               string
	Format             string
	RecorderFormat     string
	MaxDurationSeconds int
	MaxSilenceSeconds  int
	IfExists           string
	Beep               bool
	TerminateOn        string
}

// Record starts recording the mixed audio of the bridge.
func (b *Bridges) Record(ctx context.Context, bridgeID string, opts RecordOptions) (*LiveRecording, error) {
	q := url.Values{"name": {opts.Name}, "format": {opts.Format}}
	if opts.RecorderFormat != "" {
		q.Set("recorder_format", opts.RecorderFormat)
	} else {
		q.Set("recorder_format", opts.Format)
	}
	if opts.MaxDurationSeconds > 0 {
		q.Set("maxDurationSeconds", strconv.Itoa(opts.MaxDurationSeconds))
	}
	if opts.MaxSilenceSeconds > 0 {
		q.Set("maxSilenceSeconds", strconv.Itoa(opts.MaxSilenceSeconds))
	}
	ifExists := opts.IfExists
	if ifExists == "" {
		ifExists = "fail"
	}
	q.Set("ifExists", ifExists)
	if opts.Beep {
		q.Set("beep", "true")
	}
	terminateOn := opts.TerminateOn
	if terminateOn == "" {
		terminateOn = "none"
	}
	q.Set("terminateOn", terminateOn)

	path := "bridges/" + url.PathEscape(bridgeID) + "/record"
	var out LiveRecording
	if err := do(ctx, b.r, NewRequest(MethodPost, withQuery(path, q)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
