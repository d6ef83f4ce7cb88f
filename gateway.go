package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"aribridge/ari"
)

// Gateway bridges every incoming call to a companion channel dialed out of
// the application.
type Gateway struct {
	settings  *Settings
	sessions  *Registry
	directory *EndpointDirectory
	metrics   *appMetrics
	log       *logrus.Entry
	newID     func() string

	workflows sync.WaitGroup
}

// NewGateway creates a new Gateway instance.
func NewGateway(settings *Settings, directory *EndpointDirectory, metrics *appMetrics, log *logrus.Entry) *Gateway {
	return &Gateway{
		settings:  settings,
		sessions:  NewRegistry(),
		directory: directory,
		metrics:   metrics,
		log:       log,
		newID:     uuid.NewString,
	}
}

// EventHandlers returns the dispatch table for the events the gateway acts on.
func (g *Gateway) EventHandlers() ari.EventHandlers {
	return ari.EventHandlers{
		ari.EventStasisStart:   g.handleStasisStart,
		ari.EventStasisEnd:     g.handleStasisEnd,
		ari.EventDial:          g.handleDial,
		ari.EventChannelVarset: g.handleChannelVarset,
	}
}

// Sessions exposes the session registry.
func (g *Gateway) Sessions() *Registry { return g.sessions }

// Wait blocks until every running session workflow has returned.
func (g *Gateway) Wait() { g.workflows.Wait() }

// HandleAny logs every event except the chatty ChannelVarset.
func (g *Gateway) HandleAny(_ context.Context, _ ari.Requester, ev *ari.Event) {
	if strings.EqualFold(ev.Type, ari.EventChannelVarset) {
		return
	}
	g.log.Infof("Received %s %s", ev.Type, eventSubject(ev))
}

func (g *Gateway) isIncoming(ch *ari.Channel) bool {
	return strings.Contains(ch.AppData(), g.settings.IncomingMarker())
}

// handleStasisStart creates a session for an incoming call and starts its
// workflow, or completes a session when its companion channel arrives.
func (g *Gateway) handleStasisStart(ctx context.Context, r ari.Requester, ev *ari.Event) {
	ch := ev.Channel
	if ch == nil {
		g.log.Warn("StasisStart without channel")
		return
	}
	if sess, ok := g.sessions.ByOther(ch.ID); ok {
		g.startWorkflow(func() { g.answerWorkflow(ctx, r, sess, ch) })
		return
	}
	if !g.isIncoming(ch) {
		g.log.Debugf("StasisStart for %s (args %v) not tracked", ch.ID, ev.Args)
		return
	}

	sess := NewSession(ch.ID, ch.Name, g.log)
	if !g.sessions.Add(sess) {
		g.metrics.duplicateStart()
		g.log.Warnf("duplicate StasisStart for %s ignored", ch.ID)
		return
	}
	sess.SetBridge(g.newID())
	g.metrics.sessionStarted()
	g.metrics.setSessions(g.sessions.Len())

	if err := sess.Transition(ctx, evEstablish); err != nil {
		g.log.Errorf("session %s: %v", ch.ID, err)
		return
	}
	g.startWorkflow(func() { g.bridgeWorkflow(ctx, r, sess, ch) })
}

func (g *Gateway) startWorkflow(fn func()) {
	g.workflows.Add(1)
	go func() {
		defer g.workflows.Done()
		fn()
	}()
}

// bridgeWorkflow provisions the bridge, the recording and the companion
// channel of a new session. Any failure hangs up the incoming channel; the
// resulting StasisEnd tears the session down.
func (g *Gateway) bridgeWorkflow(ctx context.Context, r ari.Requester, sess *Session, incoming *ari.Channel) {
	bridges := ari.NewBridges(r)
	bridgeID := sess.BridgeID()
	log := g.log.WithFields(logrus.Fields{"channel": incoming.ID, "bridge": bridgeID})

	fail := func(step string, err error) {
		g.metrics.workflowFailed(step)
		log.Errorf("%s failed: %v", step, err)
		if sess.TearingDown() {
			return
		}
		if err := ari.NewChannels(r).HangupAsync(incoming.ID, "normal"); err != nil {
			log.Errorf("hangup of %s failed: %v", incoming.ID, err)
		}
	}

	if _, err := bridges.Create(ctx, bridgeID, g.settings.BridgeName(), g.settings.BridgeType()); err != nil {
		fail("create_bridge", err)
		return
	}
	if sess.TearingDown() {
		return
	}
	if err := bridges.AddChannel(ctx, bridgeID, incoming.ID, ari.AddChannelOptions{}); err != nil {
		fail("add_channel", err)
		return
	}
	g.logBridge(ctx, bridges, log, bridgeID)
	if sess.TearingDown() {
		return
	}

	recName := fmt.Sprintf("%s-%s", g.settings.RecordingName(), bridgeID)
	rec, err := bridges.Record(ctx, bridgeID, ari.RecordOptions{Name: recName, Format: g.settings.RecordingFormat()})
	if err != nil {
		fail("record", err)
		return
	}
	log.Infof("recording %s (%s) %s", rec.Name, rec.Format, rec.State)
	g.logBridge(ctx, bridges, log, bridgeID)
	if sess.TearingDown() {
		return
	}

	endpoint := g.directory.Resolve(incoming.Exten())
	log.Infof("Creating other channel to %s", endpoint)
	other, err := createCompanionCall(ctx, r, g.settings, endpoint, incoming.ID)
	if err != nil {
		fail("create_channel", err)
		return
	}
	if !sess.SetOther(other.ID, other.Name) {
		log.Infof("session gone, hanging up %s", other.ID)
		if err := ari.NewChannels(r).HangupAsync(other.ID, ""); err != nil {
			log.Errorf("hangup of %s failed: %v", other.ID, err)
		}
		return
	}
	g.sessions.LinkOther(sess, other.ID)

	if err := sess.Transition(ctx, evDial); err != nil {
		log.Warnf("dial transition: %v", err)
		return
	}
	log.Infof("Dialing other channel %s", other.Name)
	if err := dialCompanionCall(ctx, r, g.settings, other.ID, incoming.ID); err != nil {
		fail("dial", err)
	}
}

// logBridge logs the bridge snapshot at debug level. Failures are not fatal
// to the workflow.
func (g *Gateway) logBridge(ctx context.Context, bridges *ari.Bridges, log *logrus.Entry, bridgeID string) {
	b, err := bridges.Get(ctx, bridgeID)
	if err != nil {
		log.Debugf("bridge snapshot unavailable: %v", err)
		return
	}
	log.Debugf("bridge %s (%s) channels %v", b.ID, b.BridgeType, b.Channels)
}

// answerWorkflow joins an answered companion channel to the session bridge.
func (g *Gateway) answerWorkflow(ctx context.Context, r ari.Requester, sess *Session, other *ari.Channel) {
	bridgeID := sess.BridgeID()
	log := g.log.WithFields(logrus.Fields{"channel": sess.IncomingChannelID, "bridge": bridgeID})
	if sess.TearingDown() {
		return
	}
	if err := ari.NewBridges(r).AddChannel(ctx, bridgeID, other.ID, ari.AddChannelOptions{}); err != nil {
		g.metrics.workflowFailed("add_other")
		log.Errorf("adding %s to bridge failed: %v", other.ID, err)
		return
	}
	if err := sess.Transition(ctx, evAnswer); err != nil {
		log.Warnf("answer transition: %v", err)
	}
}

// handleStasisEnd tears down the session of an incoming channel: the
// companion is hung up, the bridge deleted and the session removed.
func (g *Gateway) handleStasisEnd(ctx context.Context, r ari.Requester, ev *ari.Event) {
	ch := ev.Channel
	if ch == nil {
		return
	}
	sess, ok := g.sessions.Get(ch.ID)
	if !ok {
		if _, companion := g.sessions.ByOther(ch.ID); companion {
			g.log.Infof("companion %s left", ch.ID)
		}
		return
	}

	otherID, bridgeID, ok := sess.Teardown(ctx)
	if !ok {
		return
	}
	if otherID != "" {
		g.log.Infof("Hanging up ws %s", otherID)
		if err := ari.NewChannels(r).HangupAsync(otherID, ""); err != nil {
			g.log.Errorf("hangup of %s failed: %v", otherID, err)
		}
	}
	if bridgeID != "" {
		if err := ari.NewBridges(r).DeleteAsync(bridgeID); err != nil {
			g.log.Errorf("delete of bridge %s failed: %v", bridgeID, err)
		}
	}
	g.sessions.Remove(ch.ID)
	g.metrics.sessionTornDown()
	g.metrics.setSessions(g.sessions.Len())
}

func (g *Gateway) handleDial(_ context.Context, _ ari.Requester, ev *ari.Event) {
	name := ""
	if ev.Peer != nil {
		name = ev.Peer.Name
	}
	g.log.Infof("Dial: %s Status: '%s'", name, ev.DialStatus)
}

func (g *Gateway) handleChannelVarset(_ context.Context, _ ari.Requester, ev *ari.Event) {
	id := ""
	if ev.Channel != nil {
		id = ev.Channel.ID
	}
	g.log.Tracef("ChannelVarset %s %s=%s", id, ev.Variable, ev.Value)
}
