package domain

// TollMechanism classifies the monetization style an infrastructure
// chokepoint is believed to exploit.
type TollMechanism string

const (
	TollAPI      TollMechanism = "API"
	TollNetwork  TollMechanism = "Network"
	TollData     TollMechanism = "Data"
	TollPlatform TollMechanism = "Platform"
	TollProtocol TollMechanism = "Protocol"
	TollOther    TollMechanism = "Other"
)

// String returns the string representation of TollMechanism.
func (t TollMechanism) String() string {
	return string(t)
}

// SignalStatus is the lifecycle status of a persisted signal.
type SignalStatus string

const (
	StatusActive   SignalStatus = "active"
	StatusArchived SignalStatus = "archived"
)

// String returns the string representation of SignalStatus.
func (s SignalStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s SignalStatus) IsValid() bool {
	return s == StatusActive || s == StatusArchived
}
