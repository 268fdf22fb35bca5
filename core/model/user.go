package model

// Role identifies what a user does on the platform.
type Role string

const (
	RoleGreenhouse Role = "greenhouse"
	RoleSorting    Role = "sorting"
	RoleDriver     Role = "driver"
	RoleFarmer     Role = "farmer"
	RoleBuyer      Role = "buyer"
)

// User represents a platform account. Capacity fields only apply to drivers:
// a driver operates either in empty-basket mode or load mode, never both.
type User struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Role         Role    `json:"role"`
	Location     *LatLng `json:"location,omitempty"`
	EmptyBaskets int     `json:"emptyBaskets"`
	LoadCapacity int     `json:"loadCapacity"`
	LicensePlate string  `json:"licensePlate,omitempty"`
}

// HasLocation reports whether the user has a known last position.
func (u User) HasLocation() bool { return u.Location != nil }

// CanCarry reports whether the driver's current capacity mode covers a
// request of the given type and quantity.
func (u User) CanCarry(t RequestType, quantity int) bool {
	switch t {
	case RequestEmpty:
		return u.EmptyBaskets >= quantity
	case RequestFull:
		return u.LoadCapacity >= quantity
	default:
		return false
	}
}

// Unloaded reports whether the driver holds no baskets in either mode.
func (u User) Unloaded() bool { return u.EmptyBaskets == 0 && u.LoadCapacity == 0 }
