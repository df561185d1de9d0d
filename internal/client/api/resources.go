package api

import (
	"context"
	"net/http"
	"net/url"
)

const (
	pathVendors   = "/vendors"
	pathModels    = "/models"
	pathLocations = "/locations"
	pathDevices   = "/devices"
	pathUsers     = "/users"
)

// ListVendors returns all vendors.
func (c *Client) ListVendors(ctx context.Context) ([]Vendor, error) {
	return list(ctx, c, pathVendors, nil, parseVendor)
}

// CreateVendor adds a vendor and returns its id. Admin only.
func (c *Client) CreateVendor(ctx context.Context, name, country string) (int64, error) {
	return c.create(ctx, pathVendors, vendorBody{Name: name, Country: country})
}

// UpdateVendor replaces a vendor's fields. Admin only.
func (c *Client) UpdateVendor(ctx context.Context, id int64, name, country string) error {
	return c.update(ctx, resourcePath(pathVendors, id), vendorBody{Name: name, Country: country})
}

// DeleteVendor removes a vendor. Admin only; fails with "in_use" while
// models still reference it.
func (c *Client) DeleteVendor(ctx context.Context, id int64) error {
	return c.remove(ctx, resourcePath(pathVendors, id))
}

// ListModels returns all equipment models with their vendor names.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	return list(ctx, c, pathModels, nil, parseModel)
}

func (c *Client) CreateModel(ctx context.Context, vendorID int64, name, deviceType string) (int64, error) {
	return c.create(ctx, pathModels, modelBody{VendorID: vendorID, Name: name, DeviceType: deviceType})
}

func (c *Client) UpdateModel(ctx context.Context, id, vendorID int64, name, deviceType string) error {
	return c.update(ctx, resourcePath(pathModels, id), modelBody{VendorID: vendorID, Name: name, DeviceType: deviceType})
}

func (c *Client) DeleteModel(ctx context.Context, id int64) error {
	return c.remove(ctx, resourcePath(pathModels, id))
}

// ListLocations returns all locations.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	return list(ctx, c, pathLocations, nil, parseLocation)
}

func (c *Client) CreateLocation(ctx context.Context, name, note string) (int64, error) {
	return c.create(ctx, pathLocations, locationBody{Name: name, Note: note})
}

func (c *Client) UpdateLocation(ctx context.Context, id int64, name, note string) error {
	return c.update(ctx, resourcePath(pathLocations, id), locationBody{Name: name, Note: note})
}

func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	return c.remove(ctx, resourcePath(pathLocations, id))
}

// ListDevices searches devices. The query is always sent as the q
// parameter; an empty query lists every device.
func (c *Client) ListDevices(ctx context.Context, query string) ([]DeviceItem, error) {
	return list(ctx, c, pathDevices, url.Values{"q": []string{query}}, parseDeviceItem)
}

// GetDevice returns the editable form of one device.
func (c *Client) GetDevice(ctx context.Context, id int64) (Device, error) {
	return get(ctx, c, resourcePath(pathDevices, id), parseDevice)
}

// CreateDevice adds a device; d.ID is ignored. When d.LocationID is unset
// the locationId key is left out of the request entirely.
func (c *Client) CreateDevice(ctx context.Context, d Device) (int64, error) {
	return c.create(ctx, pathDevices, newDeviceBody(d))
}

// UpdateDevice replaces the device with the given id using d's fields.
func (c *Client) UpdateDevice(ctx context.Context, id int64, d Device) error {
	return c.update(ctx, resourcePath(pathDevices, id), newDeviceBody(d))
}

// DeleteDevice removes a device. Admin only.
func (c *Client) DeleteDevice(ctx context.Context, id int64) error {
	return c.remove(ctx, resourcePath(pathDevices, id))
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return list(ctx, c, pathUsers, nil, parseUser)
}

// ListPendingUsers returns accounts that are not approved yet. Admin only.
func (c *Client) ListPendingUsers(ctx context.Context) ([]PendingUser, error) {
	return list(ctx, c, pathUsers+"/pending", nil, parsePendingUser)
}

// SetUserApproved grants or revokes access for an account. Admin only.
func (c *Client) SetUserApproved(ctx context.Context, id int64, approved bool) error {
	return c.update(ctx, resourcePath(pathUsers, id, "approval"), approvalBody{Approved: approved})
}

// ApproveUser approves a pending account. Admin only.
func (c *Client) ApproveUser(ctx context.Context, id int64) error {
	_, _, err := c.sendObject(ctx, http.MethodPost, resourcePath(pathUsers, id, "approve"), nil)
	return err
}

// DeleteUser removes an account. Admin only; the server refuses to delete
// the caller or another admin.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.remove(ctx, resourcePath(pathUsers, id))
}
