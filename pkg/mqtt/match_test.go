package mqtt

import "testing"

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"fleet/v1/position/+", "fleet/v1/position/IMO7000001", true},
		{"fleet/v1/position/+", "fleet/v1/position/IMO7000001/extra", false},
		{"fleet/v1/#", "fleet/v1/position/IMO7000001", true},
		{"fleet/v1/position/IMO1", "fleet/v1/position/IMO1", true},
		{"fleet/v1/position/IMO1", "fleet/v1/position/IMO2", false},
		{"fleet/+/position/+", "fleet/v2/position/x", true},
		{"fleet/v1/position/+", "fleet/v1", false},
	}
	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestTopicFilter(t *testing.T) {
	if got := topicFilter("$share/hubs/fleet/v1/position/+"); got != "fleet/v1/position/+" {
		t.Errorf("shared filter = %q", got)
	}
	if got := topicFilter("fleet/v1/position/+"); got != "fleet/v1/position/+" {
		t.Errorf("plain filter = %q", got)
	}
}

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClientConfig
		wantErr bool
	}{
		{"tcp", ClientConfig{BrokerURL: "tcp://localhost:1883"}, false},
		{"websocket", ClientConfig{BrokerURL: "wss://broker.example.com/mqtt"}, false},
		{"empty", ClientConfig{}, true},
		{"http scheme", ClientConfig{BrokerURL: "http://localhost"}, true},
		{"bad will qos", ClientConfig{BrokerURL: "tcp://localhost:1883", WillQoS: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClientAppliesDefaults(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883"}
	if _, err := NewClient(cfg); err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if cfg.KeepAlive != 60 || cfg.ConnectTimeout == 0 || cfg.ReconnectBackoff == 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
