package protocol

import "strings"

// Naming is the suffix convention used to derive generated type names.
type Naming struct {
	ProtocolSuffix string `json:"protocol_suffix"`
	ServiceSuffix  string `json:"service_suffix"`
	ClientSuffix   string `json:"client_suffix"`
}

// DefaultNaming maps "XProtocol" to "XService" and "XClient".
func DefaultNaming() Naming {
	return Naming{
		ProtocolSuffix: "Protocol",
		ServiceSuffix:  "Service",
		ClientSuffix:   "Client",
	}
}

// Derive returns the service and client names for a protocol name. The match
// is exact and case-sensitive, and the base left after stripping the suffix
// must not be empty.
func (n Naming) Derive(name string) (service, client string, err error) {
	base, ok := strings.CutSuffix(name, n.ProtocolSuffix)
	if !ok || base == "" {
		return "", "", &NamingError{Name: name, Suffix: n.ProtocolSuffix}
	}
	return base + n.ServiceSuffix, base + n.ClientSuffix, nil
}
