package ari_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aribridge/ari"
	"aribridge/ari/aritest"
)

func TestBridgeRequests(t *testing.T) {
	c, tr := newClient(t)
	runClient(t, c)
	tr.SetResponder(func(req aritest.SentRequest) []byte {
		switch req.URI {
		case "bridges/b1?name=bridge123&type=mixing":
			return aritest.Response(req, 200, "OK", map[string]string{"id": "b1", "name": "bridge123"})
		case "bridges/b1/record?format=wav&ifExists=fail&name=rec123&recorder_format=wav&terminateOn=none":
			return aritest.Response(req, 201, "Created", map[string]string{"name": "rec123", "format": "wav", "state": "queued"})
		}
		return aritest.Response(req, 204, "No Content", nil)
	})

	ctx := context.Background()
	bridges := ari.NewBridges(c)

	b, err := bridges.Create(ctx, "b1", "bridge123", "")
	require.NoError(t, err)
	assert.Equal(t, "bridge123", b.Name)

	require.NoError(t, bridges.AddChannel(ctx, "b1", "C1", ari.AddChannelOptions{Role: "participant", Mute: true}))

	rec, err := bridges.Record(ctx, "b1", ari.RecordOptions{Name: "rec123", Format: "wav"})
	require.NoError(t, err)
	assert.Equal(t, "queued", rec.State)

	require.NoError(t, bridges.RemoveChannel(ctx, "b1", "C1"))
	require.NoError(t, bridges.DeleteAsync("b1"))

	var uris []string
	for _, req := range tr.Sent() {
		uris = append(uris, req.Method+" "+req.URI)
	}
	assert.Equal(t, []string{
		"POST bridges/b1?name=bridge123&type=mixing",
		"POST bridges/b1/addChannel?channel=C1&mute=true&role=participant",
		"POST bridges/b1/record?format=wav&ifExists=fail&name=rec123&recorder_format=wav&terminateOn=none",
		"POST bridges/b1/removeChannel?channel=C1",
		"DELETE bridges/b1",
	}, uris)
}

func TestChannelCreateUsesQueryStrings(t *testing.T) {
	c, tr := newClient(t)
	runClient(t, c)
	tr.SetResponder(func(req aritest.SentRequest) []byte {
		return aritest.Response(req, 200, "OK", map[string]string{"id": "C2", "name": "PJSIP/asterisk-operator-0001"})
	})

	ch, err := ari.NewChannels(c).Create(context.Background(), ari.CreateParams{
		Endpoint:   "PJSIP/123456@asterisk-operator",
		App:        "test_app",
		AppArgs:    "dialed",
		Originator: "C1",
	})
	require.NoError(t, err)
	assert.Equal(t, "C2", ch.ID)

	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "channels/create", sent[0].URI)
	assert.Equal(t, []ari.QueryString{
		{Name: "endpoint", Value: "PJSIP/123456@asterisk-operator"},
		{Name: "app", Value: "test_app"},
		{Name: "appArgs", Value: "dialed"},
		{Name: "originator", Value: "C1"},
	}, sent[0].QueryStrings)
}

func TestChannelDialAndStatusError(t *testing.T) {
	c, tr := newClient(t)
	runClient(t, c)
	tr.SetResponder(func(req aritest.SentRequest) []byte {
		return aritest.Response(req, 404, "Not Found", map[string]string{"message": "Channel not found"})
	})

	err := ari.NewChannels(c).Dial(context.Background(), "C2", "C1", 5)
	var se *ari.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.StatusCode)
	assert.Equal(t, "channels/C2/dial?caller=C1&timeout=5", se.URI)
}
