package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Session is the signed-in identity returned by Login and Register.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the session may use admin-only operations.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Roles issued by the server.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Vendor is an equipment manufacturer.
type Vendor struct {
	ID      int64
	Name    string
	Country string
}

// Model is an equipment model. VendorName is filled in by the server on
// list calls and is ignored on writes.
type Model struct {
	ID         int64
	VendorID   int64
	VendorName string
	Name       string
	DeviceType string
}

// DisplayName is "<vendor> / <model>", or just the model name when the
// vendor is unknown.
func (m Model) DisplayName() string {
	if m.VendorName == "" {
		return m.Name
	}
	return m.VendorName + " / " + m.Name
}

// Location is a site where devices are installed.
type Location struct {
	ID   int64
	Name string
	Note string
}

// DeviceItem is the denormalized row returned by ListDevices.
type DeviceItem struct {
	ID              int64
	VendorName      string
	ModelName       string
	LocationName    string
	SerialNumber    string
	InventoryNumber string
	Status          string
	InstalledAt     string
}

// Device is the editable form of a device returned by GetDevice and
// accepted by CreateDevice and UpdateDevice.
type Device struct {
	ID              int64
	ModelID         int64
	LocationID      OptionalID
	SerialNumber    string
	InventoryNumber string
	Status          string
	InstalledAt     string
	Description     string
}

// User is an account as seen by an administrator.
type User struct {
	ID        int64
	Username  string
	Role      string
	Approved  bool
	CreatedAt string
}

// PendingUser is an account waiting for approval.
type PendingUser struct {
	ID        int64
	Username  string
	Role      string
	CreatedAt string
}

// object is a decoded JSON object whose members are parsed on demand.
type object map[string]json.RawMessage

func isJSONKind(raw []byte, open byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == open
}

func decodeObject(raw []byte) (object, error) {
	if !isJSONKind(raw, '{') {
		return nil, fmt.Errorf("expected JSON object")
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func decodeArray(raw []byte) ([]json.RawMessage, error) {
	if !isJSONKind(raw, '[') {
		return nil, fmt.Errorf("expected JSON array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (o object) has(key string) bool {
	raw, ok := o[key]
	return ok && !isNull(raw)
}

func parseInt(key string, raw json.RawMessage) (int64, error) {
	// json.Number also accepts quoted numbers; only bare ones count here.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] == '"' {
		return 0, fmt.Errorf("field %q: not a number", key)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("field %q: not a number", key)
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("field %q: not an integer", key)
	}
	return int64(f), nil
}

func (o object) int(key string) (int64, error) {
	if !o.has(key) {
		return 0, fmt.Errorf("field %q: missing", key)
	}
	return parseInt(key, o[key])
}

func (o object) optionalID(key string) (OptionalID, error) {
	if !o.has(key) {
		return None(), nil
	}
	v, err := parseInt(key, o[key])
	if err != nil {
		return None(), err
	}
	return Some(v), nil
}

func (o object) string(key string, required bool) (string, error) {
	raw, ok := o[key]
	if !ok {
		if required {
			return "", fmt.Errorf("field %q: missing", key)
		}
		return "", nil
	}
	if isNull(raw) {
		if required {
			return "", fmt.Errorf("field %q: null", key)
		}
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q: not a string", key)
	}
	return s, nil
}

func (o object) bool(key string) (bool, error) {
	if !o.has(key) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(o[key], &b); err != nil {
		return false, fmt.Errorf("field %q: not a boolean", key)
	}
	return b, nil
}

// fieldReader collects the first parse error so entity parsers stay linear.
type fieldReader struct {
	o   object
	err error
}

func (r *fieldReader) int(key string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.o.int(key)
	r.err = err
	return v
}

func (r *fieldReader) optionalID(key string) OptionalID {
	if r.err != nil {
		return None()
	}
	v, err := r.o.optionalID(key)
	r.err = err
	return v
}

func (r *fieldReader) str(key string) string {
	return r.string(key, false)
}

func (r *fieldReader) requiredStr(key string) string {
	return r.string(key, true)
}

func (r *fieldReader) string(key string, required bool) string {
	if r.err != nil {
		return ""
	}
	v, err := r.o.string(key, required)
	r.err = err
	return v
}

func (r *fieldReader) bool(key string) bool {
	if r.err != nil {
		return false
	}
	v, err := r.o.bool(key)
	r.err = err
	return v
}

func parseSession(o object) (Session, error) {
	r := fieldReader{o: o}
	s := Session{
		Token:    r.str("token"),
		Username: r.str("username"),
		Role:     r.str("role"),
	}
	if r.err == nil && s.Token == "" {
		return Session{}, fmt.Errorf("field %q: empty", "token")
	}
	return s, r.err
}

func parseVendor(o object) (Vendor, error) {
	r := fieldReader{o: o}
	v := Vendor{
		ID:      r.int("id"),
		Name:    r.requiredStr("name"),
		Country: r.str("country"),
	}
	return v, r.err
}

func parseModel(o object) (Model, error) {
	r := fieldReader{o: o}
	m := Model{
		ID:         r.int("id"),
		VendorID:   r.int("vendorId"),
		VendorName: r.str("vendorName"),
		Name:       r.requiredStr("name"),
		DeviceType: r.str("deviceType"),
	}
	return m, r.err
}

func parseLocation(o object) (Location, error) {
	r := fieldReader{o: o}
	l := Location{
		ID:   r.int("id"),
		Name: r.requiredStr("name"),
		Note: r.str("note"),
	}
	return l, r.err
}

func parseDeviceItem(o object) (DeviceItem, error) {
	r := fieldReader{o: o}
	d := DeviceItem{
		ID:              r.int("id"),
		VendorName:      r.str("vendorName"),
		ModelName:       r.str("modelName"),
		LocationName:    r.str("locationName"),
		SerialNumber:    r.str("serialNumber"),
		InventoryNumber: r.str("inventoryNumber"),
		Status:          r.str("status"),
		InstalledAt:     r.str("installedAt"),
	}
	return d, r.err
}

func parseDevice(o object) (Device, error) {
	r := fieldReader{o: o}
	d := Device{
		ID:              r.int("id"),
		ModelID:         r.int("modelId"),
		LocationID:      r.optionalID("locationId"),
		SerialNumber:    r.str("serialNumber"),
		InventoryNumber: r.str("inventoryNumber"),
		Status:          r.str("status"),
		InstalledAt:     r.str("installedAt"),
		Description:     r.str("description"),
	}
	return d, r.err
}

func parseUser(o object) (User, error) {
	r := fieldReader{o: o}
	u := User{
		ID:        r.int("id"),
		Username:  r.requiredStr("username"),
		Role:      r.requiredStr("role"),
		Approved:  r.bool("approved"),
		CreatedAt: r.str("createdAt"),
	}
	return u, r.err
}

func parsePendingUser(o object) (PendingUser, error) {
	r := fieldReader{o: o}
	u := PendingUser{
		ID:        r.int("id"),
		Username:  r.requiredStr("username"),
		Role:      r.str("role"),
		CreatedAt: r.str("createdAt"),
	}
	return u, r.err
}

// deviceBody is the write shape of a device. LocationID is a pointer with
// omitempty so an unset location drops the key instead of sending null.
type deviceBody struct {
	ModelID         int64  `json:"modelId"`
	LocationID      *int64 `json:"locationId,omitempty"`
	SerialNumber    string `json:"serialNumber"`
	InventoryNumber string `json:"inventoryNumber"`
	Status          string `json:"status"`
	InstalledAt     string `json:"installedAt"`
	Description     string `json:"description"`
}

func newDeviceBody(d Device) deviceBody {
	body := deviceBody{
		ModelID:         d.ModelID,
		SerialNumber:    d.SerialNumber,
		InventoryNumber: d.InventoryNumber,
		Status:          d.Status,
		InstalledAt:     d.InstalledAt,
		Description:     d.Description,
	}
	if id, ok := d.LocationID.Get(); ok {
		body.LocationID = &id
	}
	return body
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type vendorBody struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type modelBody struct {
	VendorID   int64  `json:"vendorId"`
	Name       string `json:"name"`
	DeviceType string `json:"deviceType"`
}

type locationBody struct {
	Name string `json:"name"`
	Note string `json:"note"`
}

type approvalBody struct {
	Approved bool `json:"approved"`
}
