package kvm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/transport"
)

func newClientCmd() *cobra.Command {
	var masterAddr string
	var name string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Run the client: a machine that receives the shared keyboard and mouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), masterAddr, name)
		},
	}
	cmd.Flags().StringVar(&masterAddr, "master", "127.0.0.1:24800", "host:port of the master's control channel")
	cmd.Flags().StringVar(&name, "name", "", "friendly name announced to the master (defaults to a random id)")
	return cmd
}

func runClient(ctx context.Context, masterAddr, name string) error {
	clientID := uuid.New()
	if name == "" {
		name = clientID.String()
	}

	client := transport.NewClient(masterAddr, transport.DefaultConfig())
	log.Info().Str("master", masterAddr).Str("name", name).Msg("client: connecting")

	injector := &loggingInjector{}

	return client.Run(ctx, func(ctx context.Context, peer *transport.Peer) error {
		if err := peer.Send(protocol.Message{
			Type: protocol.MsgHello,
			Hello: &protocol.HelloMessage{
				ClientID:        clientID,
				ProtocolVersion: protocol.ProtocolVersion,
				PlatformID:      detectPlatform(),
				ClientName:      name,
				Capabilities:    protocol.CapKeyboardEmulation | protocol.CapMouseEmulation,
			},
		}); err != nil {
			return fmt.Errorf("client: send hello: %w", err)
		}

		// The peer's read loop starts once onConnect returns and client.Run
		// runs the peer; Inbound is closed when that loop exits.
		go func() {
			for msg := range peer.Inbound() {
				injector.Handle(msg)
			}
		}()
		return nil
	})
}

// detectPlatform would normally inspect runtime.GOOS; the reference
// deployment only ships the Windows/Linux/macOS backends, none of which are
// wired into this core, so clients built from this tree always identify as
// PlatformLinux.
func detectPlatform() protocol.PlatformID {
	return protocol.PlatformLinux
}

// loggingInjector stands in for the platform-specific input emulation
// backend (Windows SendInput, X11 XTest, macOS CoreGraphics event taps)
// named as an external collaborator out of this core's scope. It records
// what it would have injected, which is exactly the shape a test double for
// the real backend needs.
type loggingInjector struct{}

func (l *loggingInjector) Handle(msg protocol.Message) {
	switch msg.Type {
	case protocol.MsgKeyEvent:
		if msg.KeyEvent != nil {
			log.Debug().
				Str("key", msg.KeyEvent.KeyCode.String()).
				Str("event", keyEventTypeName(msg.KeyEvent.EventType)).
				Msg("client: inject key event")
		}
	case protocol.MsgMouseMove:
		if msg.MouseMove != nil {
			log.Debug().Int32("x", msg.MouseMove.X).Int32("y", msg.MouseMove.Y).Msg("client: inject mouse move")
		}
	case protocol.MsgMouseButton:
		if msg.MouseButton != nil {
			log.Debug().Uint8("button", uint8(msg.MouseButton.Button)).Msg("client: inject mouse button")
		}
	case protocol.MsgMouseScroll:
		if msg.MouseScroll != nil {
			log.Debug().Int16("dx", msg.MouseScroll.DeltaX).Int16("dy", msg.MouseScroll.DeltaY).Msg("client: inject mouse scroll")
		}
	case protocol.MsgInputBatch:
		for _, ev := range msg.InputBatch {
			l.handleInputEvent(ev)
		}
	case protocol.MsgClipboardData:
		if msg.ClipboardData != nil {
			log.Debug().Int("bytes", len(msg.ClipboardData.Data)).Msg("client: clipboard update received")
		}
	case protocol.MsgConfigUpdate:
		if msg.ConfigUpdate != nil {
			log.Debug().Str("log_level", msg.ConfigUpdate.LogLevel).Msg("client: config update received")
		}
	case protocol.MsgDisconnect:
		log.Info().Msg("client: master requested disconnect")
	}
}

func (l *loggingInjector) handleInputEvent(ev protocol.InputEvent) {
	switch ev.Kind {
	case protocol.InputEventKey:
		if ev.Key != nil {
			l.Handle(protocol.Message{Type: protocol.MsgKeyEvent, KeyEvent: ev.Key})
		}
	case protocol.InputEventMouseMove:
		if ev.MouseMove != nil {
			l.Handle(protocol.Message{Type: protocol.MsgMouseMove, MouseMove: ev.MouseMove})
		}
	case protocol.InputEventMouseButton:
		if ev.MouseButton != nil {
			l.Handle(protocol.Message{Type: protocol.MsgMouseButton, MouseButton: ev.MouseButton})
		}
	case protocol.InputEventMouseScroll:
		if ev.MouseScroll != nil {
			l.Handle(protocol.Message{Type: protocol.MsgMouseScroll, MouseScroll: ev.MouseScroll})
		}
	}
}

func keyEventTypeName(t protocol.KeyEventType) string {
	if t == protocol.KeyDown {
		return "down"
	}
	return "up"
}
