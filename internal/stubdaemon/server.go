package stubdaemon

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/services"
	"voiceforge-desktop/internal/signals"
)

var signalDecls = []introspect.Signal{
	{Name: signals.ListenStateChanged.Member, Args: []introspect.Arg{{Name: "is_listening", Type: "b"}}},
	{Name: signals.AnalysisDone.Member, Args: []introspect.Arg{{Name: "status", Type: "s"}}},
	{Name: signals.TranscriptChunk.Member, Args: []introspect.Arg{
		{Name: "text", Type: "s"},
		{Name: "speaker", Type: "s"},
		{Name: "timestamp_ms", Type: "u"},
		{Name: "is_final", Type: "b"},
	}},
	{Name: signals.TranscriptUpdated.Member, Args: []introspect.Arg{{Name: "session_id", Type: "u"}}},
}

// Export registers svc and its introspection data on conn without claiming
// the service name.
func Export(conn *dbus.Conn, svc *Service) error {
	ep := svc.endpoint
	if err := conn.Export(svc, ep.Path, ep.Interface); err != nil {
		return services.Wrap(services.ErrTransport, "export", fmt.Sprintf("export %s: %v", ep.Interface, err), err)
	}
	node := introspection(ep, svc)
	if err := conn.Export(introspect.NewIntrospectable(node), ep.Path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return services.Wrap(services.ErrTransport, "export", fmt.Sprintf("export introspection: %v", err), err)
	}
	return nil
}

// Serve exports svc, claims the endpoint's service name and blocks until ctx
// ends. The name is released on return.
func Serve(ctx context.Context, conn *dbus.Conn, svc *Service) error {
	if err := Export(conn, svc); err != nil {
		return err
	}
	ep := svc.endpoint
	reply, err := conn.RequestName(ep.Service, dbus.NameFlagDoNotQueue)
	if err != nil {
		return services.Wrap(services.ErrConnection, "request_name", fmt.Sprintf("request name %s: %v", ep.Service, err), err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return services.Wrap(services.ErrConnection, "request_name", fmt.Sprintf("name %s is already owned", ep.Service), nil)
	}
	svc.logger.Info("stub daemon ready",
		logging.String("service", ep.Service),
		logging.String("path", string(ep.Path)),
		logging.Bool("envelope", svc.envelope),
	)

	<-ctx.Done()

	_ = svc.Close()
	if _, err := conn.ReleaseName(ep.Service); err != nil {
		svc.logger.Debug("release name failed", logging.Error(err))
	}
	svc.logger.Info("stub daemon stopped")
	return nil
}

func introspection(ep bus.Endpoint, svc *Service) *introspect.Node {
	return &introspect.Node{
		Name: string(ep.Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ep.Interface,
				Methods: introspect.Methods(svc),
				Signals: signalDecls,
			},
		},
	}
}
