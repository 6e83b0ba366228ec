package models

import (
	"net"
	"strings"
)

// Device is a network device registered to an account. Hostname and Alias
// are never nil-like: absent values are stored as "".
type Device struct {
	MAC      string
	IP       string
	Hostname string
	Alias    string
}

// NewDevice builds a Device from raw registry columns, normalizing the MAC
// and turning a NULL alias into "".
func NewDevice(mac, ip, hostname string, alias *string) Device {
	d := Device{
		MAC:      NormalizeMAC(mac),
		IP:       strings.TrimSpace(ip),
		Hostname: strings.TrimSpace(hostname),
	}
	if alias != nil {
		d.Alias = strings.TrimSpace(*alias)
	}
	return d
}

// NormalizeMAC returns the canonical upper-case, colon-delimited form of a
// 48-bit MAC. Colon-free ("001122aabbcc"), dash- or dot-delimited input is
// accepted. Anything unparsable is returned upper-cased and trimmed.
func NormalizeMAC(mac string) string {
	s := strings.TrimSpace(mac)
	if len(s) == 12 && isHex(s) {
		var b strings.Builder
		for i := 0; i < 12; i += 2 {
			if i > 0 {
				b.WriteByte(':')
			}
			b.WriteString(s[i : i+2])
		}
		s = b.String()
	}
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(hw.String())
}

// ValidMAC reports whether mac is a parsable 48-bit MAC in any supported form.
func ValidMAC(mac string) bool {
	n := NormalizeMAC(mac)
	hw, err := net.ParseMAC(n)
	return err == nil && len(hw) == 6
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
