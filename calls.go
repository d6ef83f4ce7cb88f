package main

import (
	"context"

	"aribridge/ari"
)

// createCompanionCall creates the far-end channel for an incoming call. The
// new channel enters the application with the dial app args once answered.
func createCompanionCall(ctx context.Context, r ari.Requester, s *Settings, endpoint, incomingID string) (*ari.Channel, error) {
	return ari.NewChannels(r).Create(ctx, ari.CreateParams{
		Endpoint:   endpoint,
		App:        s.App(),
		AppArgs:    s.DialAppArgs(),
		Originator: incomingID,
	})
}

// dialCompanionCall dials a created companion channel on behalf of the
// incoming caller.
func dialCompanionCall(ctx context.Context, r ari.Requester, s *Settings, otherID, incomingID string) error {
	return ari.NewChannels(r).Dial(ctx, otherID, incomingID, s.DialTimeout())
}
