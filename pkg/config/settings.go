package config

// MQTTSettings contains only MQTT-specific configuration, extracted for
// dependency injection so mqtt.StatePublisher / mqtt.PulseSubscriber don't
// couple to the full Config.
type MQTTSettings struct {
	Broker     string
	Port       int
	Username   string
	Password   string
	ClientID   string
	RetryDelay int
	KeepAlive  int
}

// NewMQTTSettings extracts MQTT settings from the full config.
func NewMQTTSettings(cfg *Config) MQTTSettings {
	return MQTTSettings{
		Broker:     cfg.MQTT.Broker,
		Port:       cfg.MQTT.Port,
		Username:   cfg.MQTT.Username,
		Password:   cfg.MQTT.Password,
		ClientID:   cfg.MQTT.ClientID,
		RetryDelay: cfg.MQTT.RetryDelay,
		KeepAlive:  cfg.MQTT.KeepAlive,
	}
}
