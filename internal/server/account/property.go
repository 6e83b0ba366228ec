package account

// Property is a display-ready account field.
//
// Empty marks a value that is missing or could not be loaded; Value then
// holds a placeholder or "". ReadOnly fields cannot be changed through the
// portal, ReadOnlyReason says why.
type Property struct {
	Value          string `json:"value"`
	Style          string `json:"style,omitempty"`
	Empty          bool   `json:"empty,omitempty"`
	ReadOnly       bool   `json:"read_only,omitempty"`
	ReadOnlyReason string `json:"read_only_reason,omitempty"`
}

// Display styles.
const (
	StyleSuccess = "success"
	StyleWarning = "warning"
	StyleDanger  = "danger"
	StyleMuted   = "muted"
)

func value(v string) Property {
	return Property{Value: v, Empty: v == ""}
}

func readOnly(p Property, reason string) Property {
	p.ReadOnly = true
	p.ReadOnlyReason = reason
	return p
}
