package options

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group that can be bound to a flag set.
type IOptions interface {
	// Validate reports every problem with the group instead of stopping at the first.
	Validate() []error

	// AddFlags registers the group's flags, named "<group>.<field>".
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks a host:port pair. An empty host binds all interfaces.
func ValidateAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q in address %q", port, addr)
	}
	return nil
}

func join(prefixes []string, name string) string {
	prefix := ""
	for _, p := range prefixes {
		prefix += p
	}
	return prefix + name
}
