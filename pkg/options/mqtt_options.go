package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/fleetcast/pkg/mqtt"
)

var _ IOptions = (*MqttOptions)(nil)

// MqttOptions configure the live feed connection. An empty Broker disables it.
type MqttOptions struct {
	Broker   string `json:"broker" mapstructure:"broker"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client-id" mapstructure:"client-id"`

	KeepAlive      time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	SessionExpiry  uint32        `json:"session-expiry" mapstructure:"session-expiry"`
	CleanStart     bool          `json:"clean-start" mapstructure:"clean-start"`

	// InsecureSkipVerify disables broker certificate checks. Testing only.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	// TopicRoot prefixes every topic: {TopicRoot}/position/{vesselID}.
	TopicRoot string `json:"topic-root" mapstructure:"topic-root"`

	// ShareGroup, when set, subscribes through $share/<group>/ so several
	// hubs split one feed.
	ShareGroup string `json:"share-group" mapstructure:"share-group"`

	QoS int `json:"qos" mapstructure:"qos"`
}

func NewMqttOptions() *MqttOptions {
	return &MqttOptions{
		KeepAlive:      60 * time.Second,
		ConnectTimeout: 5 * time.Second,
		SessionExpiry:  60,
		CleanStart:     true,
		TopicRoot:      "fleet/v1",
		QoS:            1,
	}
}

// Enabled reports whether a broker was configured.
func (o *MqttOptions) Enabled() bool {
	return o != nil && o.Broker != ""
}

func (o *MqttOptions) Validate() []error {
	if !o.Enabled() {
		return nil
	}

	var errs []error
	if err := o.ToClientConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if o.TopicRoot == "" {
		errs = append(errs, errors.New("--mqtt.topic-root must not be empty"))
	}
	if o.QoS < 0 || o.QoS > 2 {
		errs = append(errs, errors.New("--mqtt.qos must be 0, 1 or 2"))
	}
	return errs
}

func (o *MqttOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Broker, join(prefixes, "mqtt.broker"), o.Broker, "The URL of the MQTT broker carrying the live feed. Empty disables ingest.")
	fs.StringVar(&o.Username, join(prefixes, "mqtt.username"), o.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.Password, join(prefixes, "mqtt.password"), o.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.ClientID, join(prefixes, "mqtt.client-id"), o.ClientID, "Explicit Client ID (optional, usually generated).")

	fs.DurationVar(&o.KeepAlive, join(prefixes, "mqtt.keep-alive"), o.KeepAlive, "MQTT Keep Alive interval.")
	fs.DurationVar(&o.ConnectTimeout, join(prefixes, "mqtt.connect-timeout"), o.ConnectTimeout, "Timeout for establishing MQTT connection.")
	fs.Uint32Var(&o.SessionExpiry, join(prefixes, "mqtt.session-expiry"), o.SessionExpiry, "MQTT Session Expiry Interval in seconds.")
	fs.BoolVar(&o.CleanStart, join(prefixes, "mqtt.clean-start"), o.CleanStart, "Start a clean session on the first connection.")
	fs.BoolVar(&o.InsecureSkipVerify, join(prefixes, "mqtt.insecure-skip-verify"), o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")

	fs.StringVar(&o.TopicRoot, join(prefixes, "mqtt.topic-root"), o.TopicRoot, "Topic prefix of the live feed.")
	fs.StringVar(&o.ShareGroup, join(prefixes, "mqtt.share-group"), o.ShareGroup, "Shared subscription group for the position feed.")
	fs.IntVar(&o.QoS, join(prefixes, "mqtt.qos"), o.QoS, "QoS of the position feed subscription.")
}

func (o *MqttOptions) ToClientConfig() *mqtt.ClientConfig {
	return &mqtt.ClientConfig{
		BrokerURL:          o.Broker,
		Username:           o.Username,
		Password:           o.Password,
		ClientID:           o.ClientID,
		KeepAlive:          uint16(o.KeepAlive.Seconds()),
		SessionExpiry:      o.SessionExpiry,
		ConnectTimeout:     o.ConnectTimeout,
		CleanStart:         o.CleanStart,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}
}
