// Package models defines the inventory entities shared by the repository,
// service and HTTP layers.
package models

import "time"

// Roles a user can hold.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultDeviceStatus is stored when a device is written without a status.
const DefaultDeviceStatus = "active"

// User represents an account with credentials.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Role         string
	// Approved is false for accounts waiting on an administrator. Admins
	// are always treated as approved.
	Approved  bool
	CreatedAt time.Time
}

// Active reports whether the user may sign in.
func (u *User) Active() bool {
	return u.Approved || u.Role == RoleAdmin
}

// Vendor is an equipment manufacturer.
type Vendor struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Model is an equipment model made by a vendor.
type Model struct {
	ID         int64  `json:"id"`
	VendorID   int64  `json:"vendorId"`
	VendorName string `json:"vendorName"`
	Name       string `json:"name"`
	DeviceType string `json:"deviceType"`
}

// Location is a site where devices are installed.
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Note string `json:"note"`
}

// DeviceListItem is a device joined with its model, vendor and location names.
type DeviceListItem struct {
	ID              int64  `json:"id"`
	VendorName      string `json:"vendorName"`
	ModelName       string `json:"modelName"`
	LocationName    string `json:"locationName"`
	SerialNumber    string `json:"serialNumber"`
	InventoryNumber string `json:"inventoryNumber"`
	Status          string `json:"status"`
	InstalledAt     string `json:"installedAt"`
}

// Device is a single installed piece of equipment. LocationID is nil when the
// device is not assigned to a location; InstalledAt is YYYY-MM-DD or empty.
type Device struct {
	ID              int64  `json:"id"`
	ModelID         int64  `json:"modelId"`
	LocationID      *int64 `json:"locationId,omitempty"`
	SerialNumber    string `json:"serialNumber"`
	InventoryNumber string `json:"inventoryNumber"`
	Status          string `json:"status"`
	InstalledAt     string `json:"installedAt"`
	Description     string `json:"description"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Username string
	Role     string
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
