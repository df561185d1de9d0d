package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/service"
)

// InventoryService defines the reference data and device operations
// required by InventoryHandler.
type InventoryService interface {
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	CreateVendor(ctx context.Context, v models.Vendor) (int64, error)
	UpdateVendor(ctx context.Context, v models.Vendor) error
	DeleteVendor(ctx context.Context, id int64) error

	ListModels(ctx context.Context) ([]models.Model, error)
	CreateModel(ctx context.Context, m models.Model) (int64, error)
	UpdateModel(ctx context.Context, m models.Model) error
	DeleteModel(ctx context.Context, id int64) error

	ListLocations(ctx context.Context) ([]models.Location, error)
	CreateLocation(ctx context.Context, l models.Location) (int64, error)
	UpdateLocation(ctx context.Context, l models.Location) error
	DeleteLocation(ctx context.Context, id int64) error

	ListDevices(ctx context.Context, query string) ([]models.DeviceListItem, error)
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
	CreateDevice(ctx context.Context, d models.Device) (int64, error)
	UpdateDevice(ctx context.Context, d models.Device) error
	DeleteDevice(ctx context.Context, id int64) error
}

// InventoryHandler serves /vendors, /models, /locations and /devices.
type InventoryHandler struct {
	Service InventoryService
	Logger  *zap.Logger
}

type vendorRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type modelRequest struct {
	VendorID   int64  `json:"vendorId"`
	Name       string `json:"name"`
	DeviceType string `json:"deviceType"`
}

type locationRequest struct {
	Name string `json:"name"`
	Note string `json:"note"`
}

type deviceRequest struct {
	ModelID         int64  `json:"modelId"`
	LocationID      *int64 `json:"locationId"`
	SerialNumber    string `json:"serialNumber"`
	InventoryNumber string `json:"inventoryNumber"`
	Status          string `json:"status"`
	InstalledAt     string `json:"installedAt"`
	Description     string `json:"description"`
}

func (d deviceRequest) device(id int64) models.Device {
	return models.Device{
		ID:              id,
		ModelID:         d.ModelID,
		LocationID:      d.LocationID,
		SerialNumber:    d.SerialNumber,
		InventoryNumber: d.InventoryNumber,
		Status:          d.Status,
		InstalledAt:     d.InstalledAt,
		Description:     d.Description,
	}
}

// decode reads the body into dst. With withID it also parses {id} first.
// It writes the error response itself and reports whether to continue.
func decode(w http.ResponseWriter, r *http.Request, dst any, withID bool) (int64, bool) {
	var id int64
	if withID {
		var ok bool
		if id, ok = pathID(r); !ok {
			writeCode(w, http.StatusBadRequest, service.CodeInvalidID)
			return 0, false
		}
	}
	if err := readJSON(w, r, dst); err != nil {
		writeCode(w, http.StatusBadRequest, service.CodeInvalidJSON)
		return 0, false
	}
	return id, true
}

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request, items any, err error) {
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) created(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *InventoryHandler) updated(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (h *InventoryHandler) remove(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) error) {
	id, ok := pathID(r)
	if !ok {
		writeCode(w, http.StatusBadRequest, service.CodeInvalidID)
		return
	}
	if err := del(r.Context(), id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ListVendors handles GET /vendors.
func (h *InventoryHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListVendors(r.Context())
	h.list(w, r, items, err)
}

// CreateVendor handles POST /vendors.
func (h *InventoryHandler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
	if _, ok := decode(w, r, &req, false); !ok {
		return
	}
	id, err := h.Service.CreateVendor(r.Context(), models.Vendor{Name: req.Name, Country: req.Country})
	h.created(w, r, id, err)
}

// UpdateVendor handles PUT /vendors/{id}.
func (h *InventoryHandler) UpdateVendor(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
	id, ok := decode(w, r, &req, true)
	if !ok {
		return
	}
	err := h.Service.UpdateVendor(r.Context(), models.Vendor{ID: id, Name: req.Name, Country: req.Country})
	h.updated(w, r, id, err)
}

// DeleteVendor handles DELETE /vendors/{id}.
func (h *InventoryHandler) DeleteVendor(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Service.DeleteVendor)
}

// ListModels handles GET /models.
func (h *InventoryHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListModels(r.Context())
	h.list(w, r, items, err)
}

// CreateModel handles POST /models.
func (h *InventoryHandler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if _, ok := decode(w, r, &req, false); !ok {
		return
	}
	id, err := h.Service.CreateModel(r.Context(), models.Model{VendorID: req.VendorID, Name: req.Name, DeviceType: req.DeviceType})
	h.created(w, r, id, err)
}

// UpdateModel handles PUT /models/{id}.
func (h *InventoryHandler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	id, ok := decode(w, r, &req, true)
	if !ok {
		return
	}
	err := h.Service.UpdateModel(r.Context(), models.Model{ID: id, VendorID: req.VendorID, Name: req.Name, DeviceType: req.DeviceType})
	h.updated(w, r, id, err)
}

// DeleteModel handles DELETE /models/{id}.
func (h *InventoryHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Service.DeleteModel)
}

// ListLocations handles GET /locations.
func (h *InventoryHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListLocations(r.Context())
	h.list(w, r, items, err)
}

// CreateLocation handles POST /locations.
func (h *InventoryHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if _, ok := decode(w, r, &req, false); !ok {
		return
	}
	id, err := h.Service.CreateLocation(r.Context(), models.Location{Name: req.Name, Note: req.Note})
	h.created(w, r, id, err)
}

// UpdateLocation handles PUT /locations/{id}.
func (h *InventoryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	id, ok := decode(w, r, &req, true)
	if !ok {
		return
	}
	err := h.Service.UpdateLocation(r.Context(), models.Location{ID: id, Name: req.Name, Note: req.Note})
	h.updated(w, r, id, err)
}

// DeleteLocation handles DELETE /locations/{id}.
func (h *InventoryHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Service.DeleteLocation)
}

// ListDevices handles GET /devices?q=.
func (h *InventoryHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListDevices(r.Context(), r.URL.Query().Get("q"))
	h.list(w, r, items, err)
}

// GetDevice handles GET /devices/{id}.
func (h *InventoryHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeCode(w, http.StatusBadRequest, service.CodeInvalidID)
		return
	}
	d, err := h.Service.GetDevice(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDevice handles POST /devices.
func (h *InventoryHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if _, ok := decode(w, r, &req, false); !ok {
		return
	}
	id, err := h.Service.CreateDevice(r.Context(), req.device(0))
	h.created(w, r, id, err)
}

// UpdateDevice handles PUT /devices/{id}.
func (h *InventoryHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	id, ok := decode(w, r, &req, true)
	if !ok {
		return
	}
	h.updated(w, r, id, h.Service.UpdateDevice(r.Context(), req.device(id)))
}

// DeleteDevice handles DELETE /devices/{id}.
func (h *InventoryHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Service.DeleteDevice)
}
