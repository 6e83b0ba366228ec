package models

// Group classifies an account by its directory group membership.
type Group string

const (
	GroupActive   Group = "active"
	GroupExactive Group = "exactive"
	GroupPassive  Group = "passive"
)

// DirectoryUser is the identity part of an account as stored in the
// directory service.
type DirectoryUser struct {
	Login string
	Name  string
	Mail  string
}

// RegistryUser is a row of the registry `nutzer` table.
type RegistryUser struct {
	ID          int64
	Login       string
	DormitoryID int
	Floor       int
	Room        string
	Status      int
}

// Account is the union of the directory identity and the registry record.
type Account struct {
	ID          int64
	Login       string
	Name        string
	Mail        string
	Group       Group
	DormitoryID int
	Floor       int
	Room        string
	Status      int
	Devices     []Device
}

// IPs lists the addresses of all devices, in device order.
func (a *Account) IPs() []string {
	ips := make([]string, 0, len(a.Devices))
	for _, d := range a.Devices {
		ips = append(ips, d.IP)
	}
	return ips
}
