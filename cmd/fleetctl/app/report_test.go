package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	pkgmqtt "github.com/autopeer-io/fleetcast/pkg/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/mqtt/topic"
)

type recordingClient struct {
	connectErr   error
	topic        string
	payload      []byte
	disconnected bool
}

func (c *recordingClient) Start(context.Context) error               { return nil }
func (c *recordingClient) AwaitConnection(context.Context) error     { return c.connectErr }
func (c *recordingClient) IsConnected() bool                         { return c.connectErr == nil }
func (c *recordingClient) Disconnect(context.Context)                { c.disconnected = true }
func (c *recordingClient) Unsubscribe(context.Context, string) error { return nil }
func (c *recordingClient) Subscribe(context.Context, string, int, pkgmqtt.MessageHandler) error {
	return nil
}

func (c *recordingClient) Publish(_ context.Context, t string, _ int, _ bool, payload []byte) error {
	c.topic, c.payload = t, payload
	return nil
}

func TestReportMessage(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		opts    reportOptions
		wantErr bool
	}{
		{"valid", reportOptions{Identifier: "IMO7000001", Lat: 10, Lon: 20, Speed: 12, Course: 90}, false},
		{"with status", reportOptions{Identifier: "IMO7000001", Status: "dry_dock"}, false},
		{"missing identifier", reportOptions{Lat: 10}, true},
		{"latitude out of range", reportOptions{Identifier: "IMO7000001", Lat: 95}, true},
		{"course out of range", reportOptions{Identifier: "IMO7000001", Course: 360}, true},
		{"unknown status", reportOptions{Identifier: "IMO7000001", Status: "sinking"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := tt.opts.message(now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("message() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !msg.ObservedAt.Equal(now) {
				t.Errorf("observedAt = %v, want %v", msg.ObservedAt, now)
			}
		})
	}
}

func TestPublishReport(t *testing.T) {
	msg := model.LiveMessage{
		Identifier: "IMO7000001",
		Position:   model.Position{Lat: 1, Lon: 2},
		ObservedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	client := &recordingClient{}
	got, err := publishReport(context.Background(), client, topic.NewTopicBuilder("fleet/v1"), 1, msg)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fleet/v1/position/IMO7000001" || client.topic != got {
		t.Errorf("published to %q (returned %q)", client.topic, got)
	}
	var decoded model.LiveMessage
	if err := json.Unmarshal(client.payload, &decoded); err != nil || decoded.Identifier != msg.Identifier {
		t.Errorf("payload = %s, err %v", client.payload, err)
	}
	if !client.disconnected {
		t.Error("client not disconnected")
	}

	down := &recordingClient{connectErr: errors.New("refused")}
	if _, err := publishReport(context.Background(), down, topic.NewTopicBuilder("fleet/v1"), 1, msg); err == nil {
		t.Error("publish succeeded without a connection")
	}
	if down.topic != "" {
		t.Error("published without a connection")
	}
}
