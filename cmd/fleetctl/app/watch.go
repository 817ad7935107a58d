package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
)

type watchOptions struct {
	Identifier string
	Types      []string
	Count      int
	Quiet      bool
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to the fleet stream and print every frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := filterFromFlags(opts.Identifier, opts.Types)
			if err != nil {
				return err
			}
			c, err := newAPIClient(root.Server, root.Timeout)
			if err != nil {
				return err
			}
			return watch(cmd.Context(), c.socketURL(), root.Timeout, filter, opts, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.Identifier, "identifier", opts.Identifier, "Follow only the vessel with this identifier.")
	fs.StringSliceVar(&opts.Types, "type", opts.Types, "Follow only vessels of these types.")
	fs.IntVar(&opts.Count, "count", opts.Count, "Exit after this many frames. Zero watches until interrupted.")
	fs.BoolVarP(&opts.Quiet, "quiet", "q", opts.Quiet, "Print one line per frame instead of vessel tables.")
	return cmd
}

func watch(ctx context.Context, endpoint string, timeout time.Duration, filter model.Filter, opts *watchOptions, out io.Writer) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = timeout
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeStream(conn, timeout)
		case <-done:
		}
	}()

	if err := conn.WriteJSON(protocol.Request{Request: protocol.RequestSubscribe, Filter: &filter}); err != nil {
		return err
	}

	for n := 0; opts.Count == 0 || n < opts.Count; n++ {
		var m protocol.Message
		if err := conn.ReadJSON(&m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return fmt.Errorf("hub closed the stream: %d %s", ce.Code, ce.Text)
			}
			return err
		}

		reply, err := render(out, m, opts.Quiet)
		if err != nil {
			return err
		}
		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				return err
			}
		}
	}

	closeStream(conn, timeout)
	return nil
}

func closeStream(conn *websocket.Conn, timeout time.Duration) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeout))
}

// render prints one frame and returns the request the frame calls for, if any.
func render(w io.Writer, m protocol.Message, quiet bool) (*protocol.Request, error) {
	switch m.Type {
	case protocol.MessageSnapshot:
		fmt.Fprintf(w, "tick %d: snapshot of %d vessels\n", m.Tick, len(m.Vessels))
		if !quiet {
			printVessels(w, m.Vessels)
		}
		return nil, nil
	case protocol.MessageDelta:
		fmt.Fprintf(w, "tick %d: %d vessels changed\n", m.Tick, len(m.Vessels))
		if !quiet {
			printVessels(w, m.Vessels)
		}
		return &protocol.Request{Request: protocol.RequestAck, Tick: m.Tick}, nil
	case protocol.MessageResyncRequired:
		fmt.Fprintf(w, "tick %d: fell behind, %d deltas dropped, resyncing\n", m.Tick, m.Dropped)
		return &protocol.Request{Request: protocol.RequestResync}, nil
	case protocol.MessageError:
		return nil, fmt.Errorf("hub rejected request: %s: %s", m.Code, m.Error)
	default:
		fmt.Fprintf(w, "tick %d: %s\n", m.Tick, m.Type)
		return nil, nil
	}
}
