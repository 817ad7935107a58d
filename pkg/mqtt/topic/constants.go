package topic

// Wildcards and prefixes of the MQTT topic grammar.
const (
	// Wildcard matches exactly one level.
	Wildcard = "+"

	// MultiWildcard matches the remaining levels and must come last.
	MultiWildcard = "#"

	// SharePrefix marks a shared subscription: $share/<group>/<filter>.
	SharePrefix = "$share"
)
