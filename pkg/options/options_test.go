package options

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8080", false},
		{":8091", false},
		{"localhost:6379", false},
		{"8080", true},
		{"host:notaport", true},
		{"host:70000", true},
	}
	for _, tt := range tests {
		if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestOptionalGroupsDisabledByDefault(t *testing.T) {
	if NewRedisOptions().Enabled() {
		t.Error("redis enabled without an address")
	}
	if NewMqttOptions().Enabled() {
		t.Error("mqtt enabled without a broker")
	}
	if errs := NewRedisOptions().Validate(); len(errs) != 0 {
		t.Errorf("disabled redis options reported errors: %v", errs)
	}
	if errs := NewMqttOptions().Validate(); len(errs) != 0 {
		t.Errorf("disabled mqtt options reported errors: %v", errs)
	}
}

func TestFlagsBindFields(t *testing.T) {
	o := NewRedisOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	if err := fs.Parse([]string{"--redis.addr=localhost:6379", "--redis.db=2"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if o.Addr != "localhost:6379" || o.DB != 2 {
		t.Errorf("flags not bound: %+v", o)
	}
	if errs := o.Validate(); len(errs) != 0 {
		t.Errorf("Validate: %v", errs)
	}
}

func TestMqttValidateRejectsBadQoS(t *testing.T) {
	o := NewMqttOptions()
	o.Broker = "tcp://localhost:1883"
	o.QoS = 5
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("got %d errors, want 1: %v", len(errs), errs)
	}
}

func TestDomainDefaultsValidate(t *testing.T) {
	groups := map[string]IOptions{
		"simulation": NewSimulationOptions(),
		"broadcast":  NewBroadcastOptions(),
		"feed":       NewFeedOptions(),
		"routes":     NewRoutesOptions(),
	}
	for name, o := range groups {
		if errs := o.Validate(); len(errs) != 0 {
			t.Errorf("%s defaults: %v", name, errs)
		}
	}
}

func TestDomainValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		opts IOptions
	}{
		{"zero period", &SimulationOptions{Period: 0}},
		{"route probability above one", func() IOptions {
			o := NewSimulationOptions()
			o.RouteProbability = 1.5
			return o
		}()},
		{"tiny queue", func() IOptions {
			o := NewBroadcastOptions()
			o.QueueCapacity = 1
			return o
		}()},
		{"liveness below ping interval", func() IOptions {
			o := NewBroadcastOptions()
			o.Liveness = o.PingInterval
			return o
		}()},
		{"no feed buffer", &FeedOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := tt.opts.Validate(); len(errs) == 0 {
				t.Error("Validate accepted invalid options")
			}
		})
	}
}

func TestSimulationFlags(t *testing.T) {
	o := NewSimulationOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	if err := fs.Parse([]string{"--simulation.period=5s", "--simulation.fleet-size=12", "--simulation.seed=7"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if o.Period.Seconds() != 5 || o.FleetSize != 12 || o.Seed != 7 {
		t.Errorf("flags not bound: %+v", o)
	}
}
