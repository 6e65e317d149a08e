package stubdaemon_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/commands"
	"voiceforge-desktop/internal/daemonctl"
	"voiceforge-desktop/internal/events"
	"voiceforge-desktop/internal/signals"
	"voiceforge-desktop/internal/stubdaemon"
)

// TestSessionBusRoundTrip drives the command and signal relays against the
// stub daemon on a real session bus.
func TestSessionBusRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	ep := startStubDaemon(t, "RoundTrip")

	session := bus.NewSession(ep)
	defer session.Close()
	relay, err := commands.New(session)
	if err != nil {
		t.Fatalf("commands.New: %v", err)
	}
	if err := daemonctl.WaitForDaemon(ctx, relay, 5*time.Second, 20*time.Millisecond); err != nil {
		t.Fatalf("WaitForDaemon: %v", err)
	}

	specs, err := signals.NewRegistry().Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	hub := events.NewHub(64)
	sigRelay, err := signals.NewRelay(signals.SessionSource{Session: session}, hub, specs)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer func() {
		stopRelay()
		sigRelay.Wait()
	}()
	if err := sigRelay.Start(relayCtx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSubscribed(t, sigRelay)

	sessions, err := relay.GetSessions(ctx, 5)
	if err != nil || sessions == "" || sessions[0] != '[' {
		t.Fatalf("GetSessions = %q, %v", sessions, err)
	}
	if err := relay.ListenStart(ctx); err != nil {
		t.Fatalf("ListenStart: %v", err)
	}
	if listening, err := relay.IsListening(ctx); err != nil || !listening {
		t.Fatalf("IsListening = %v, %v", listening, err)
	}
	template := "standup"
	if _, err := relay.Analyze(ctx, 30, &template); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := relay.ListenStop(ctx); err != nil {
		t.Fatalf("ListenStop: %v", err)
	}

	want := map[string]bool{
		events.NameListenStateChanged: false,
		events.NameAnalysisDone:       false,
		events.NameTranscriptUpdated:  false,
	}
	var cursor uint64
	for !allSeen(want) {
		batch, next, err := hub.Fetch(ctx, cursor, 0, true)
		if err != nil {
			t.Fatalf("Fetch: %v (seen %v)", err, want)
		}
		cursor = next
		for _, evt := range batch {
			if _, ok := want[evt.Name]; ok {
				want[evt.Name] = true
			}
		}
	}
}

// TestSessionOutlivesCallContext checks that the shared connection is not tied
// to the context of the call that happened to dial it.
func TestSessionOutlivesCallContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	ep := startStubDaemon(t, "Outlives")

	session := bus.NewSession(ep)
	defer session.Close()
	relay, err := commands.New(session, commands.WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("commands.New: %v", err)
	}

	firstCtx, firstCancel := context.WithTimeout(ctx, 2*time.Second)
	if _, err := relay.IsListening(firstCtx); err != nil {
		firstCancel()
		t.Fatalf("IsListening: %v", err)
	}
	firstCancel()

	specs, err := signals.NewRegistry().Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	hub := events.NewHub(64)
	sigRelay, err := signals.NewRelay(signals.SessionSource{Session: session}, hub, specs)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer func() {
		stopRelay()
		sigRelay.Wait()
	}()
	if err := sigRelay.Start(relayCtx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSubscribed(t, sigRelay)

	time.Sleep(200 * time.Millisecond)
	for _, loop := range sigRelay.States() {
		if loop.State != signals.StateSubscribed {
			t.Fatalf("loop %s left subscribed state after call context ended: %+v", loop.Member, loop)
		}
	}

	if err := relay.ListenStart(ctx); err != nil {
		t.Fatalf("ListenStart after cancelled call context: %v", err)
	}
	var cursor uint64
	for {
		batch, next, err := hub.Fetch(ctx, cursor, 0, true)
		if err != nil {
			t.Fatalf("Fetch: %v (states %+v)", err, sigRelay.States())
		}
		cursor = next
		for _, evt := range batch {
			if evt.Name == events.NameListenStateChanged {
				return
			}
		}
	}
}

// TestSessionRedialsAfterConnectionLoss checks that a closed shared
// connection is replaced on the next call.
func TestSessionRedialsAfterConnectionLoss(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	ep := startStubDaemon(t, "Redial")

	var dials int
	session := bus.NewSession(ep, bus.WithDialer(func(ctx context.Context) (*dbus.Conn, error) {
		dials++
		return bus.DialSession(ctx)
	}))
	defer session.Close()

	first, err := session.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	if _, err := session.Call(ctx, "IsListening"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	_ = first.Close()

	if _, err := session.Call(ctx, "IsListening"); err != nil {
		t.Fatalf("Call after connection loss: %v", err)
	}
	if dials != 2 {
		t.Fatalf("dials = %d, want 2", dials)
	}
	second, err := session.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	if second == first || !second.Connected() {
		t.Fatalf("expected a fresh live connection")
	}
}

func startStubDaemon(t *testing.T, suffix string) bus.Endpoint {
	t.Helper()
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no session bus available")
	}
	serverConn, err := dbus.ConnectSessionBus()
	if err != nil {
		t.Skipf("session bus unavailable: %v", err)
	}
	t.Cleanup(func() { _ = serverConn.Close() })

	ep, err := bus.NewEndpoint(fmt.Sprintf("com.voiceforge.Test.%s.P%d", suffix, os.Getpid()), "/com/voiceforge/App", "com.voiceforge.App")
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	svc := stubdaemon.New(ep, serverConn, stubdaemon.WithChunkInterval(20*time.Millisecond))
	serveCtx, stopServe := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- stubdaemon.Serve(serveCtx, serverConn, svc) }()
	t.Cleanup(func() {
		stopServe()
		if err := <-served; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return ep
}

func waitSubscribed(t *testing.T, relay *signals.Relay) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		ready := true
		for _, loop := range relay.States() {
			if loop.State != signals.StateSubscribed {
				ready = false
			}
		}
		if ready {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("signal loops not subscribed: %+v", relay.States())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func allSeen(seen map[string]bool) bool {
	for _, ok := range seen {
		if !ok {
			return false
		}
	}
	return true
}
