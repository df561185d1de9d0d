package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atinyakov/telecombase/internal/models"
	"github.com/atinyakov/telecombase/internal/repository"
)

// InventoryRepository defines the persistence operations for reference data
// and devices.
type InventoryRepository interface {
	Ping(ctx context.Context) error

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

// InventoryService validates and normalizes inventory writes.
type InventoryService struct {
	repo InventoryRepository
}

// NewInventoryService constructs an InventoryService.
func NewInventoryService(repo InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

// Ping reports whether storage is reachable.
func (s *InventoryService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *InventoryService) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	return s.repo.ListVendors(ctx)
}

func (s *InventoryService) CreateVendor(ctx context.Context, v models.Vendor) (int64, error) {
	v, err := normalizeVendor(v)
	if err != nil {
		return 0, err
	}
	return s.repo.CreateVendor(ctx, v)
}

func (s *InventoryService) UpdateVendor(ctx context.Context, v models.Vendor) error {
	v, err := normalizeVendor(v)
	if err != nil {
		return err
	}
	return s.repo.UpdateVendor(ctx, v)
}

func (s *InventoryService) DeleteVendor(ctx context.Context, id int64) error {
	return s.repo.DeleteVendor(ctx, id)
}

func normalizeVendor(v models.Vendor) (models.Vendor, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.Country = strings.TrimSpace(v.Country)
	if v.Name == "" {
		return v, invalid(CodeNameRequired)
	}
	return v, nil
}

func (s *InventoryService) ListModels(ctx context.Context) ([]models.Model, error) {
	return s.repo.ListModels(ctx)
}

func (s *InventoryService) CreateModel(ctx context.Context, m models.Model) (int64, error) {
	m, err := normalizeModel(m)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.CreateModel(ctx, m)
	return id, vendorMissing(err)
}

func (s *InventoryService) UpdateModel(ctx context.Context, m models.Model) error {
	m, err := normalizeModel(m)
	if err != nil {
		return err
	}
	return vendorMissing(s.repo.UpdateModel(ctx, m))
}

func (s *InventoryService) DeleteModel(ctx context.Context, id int64) error {
	return s.repo.DeleteModel(ctx, id)
}

func normalizeModel(m models.Model) (models.Model, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.DeviceType = strings.TrimSpace(m.DeviceType)
	if m.VendorID <= 0 {
		return m, invalid(CodeVendorRequired)
	}
	if m.Name == "" {
		return m, invalid(CodeNameRequired)
	}
	return m, nil
}

func vendorMissing(err error) error {
	if errors.Is(err, repository.ErrMissingReference) {
		return invalid(CodeVendorNotFound)
	}
	return err
}

func (s *InventoryService) ListLocations(ctx context.Context) ([]models.Location, error) {
	return s.repo.ListLocations(ctx)
}

func (s *InventoryService) CreateLocation(ctx context.Context, l models.Location) (int64, error) {
	l, err := normalizeLocation(l)
	if err != nil {
		return 0, err
	}
	return s.repo.CreateLocation(ctx, l)
}

func (s *InventoryService) UpdateLocation(ctx context.Context, l models.Location) error {
	l, err := normalizeLocation(l)
	if err != nil {
		return err
	}
	return s.repo.UpdateLocation(ctx, l)
}

func (s *InventoryService) DeleteLocation(ctx context.Context, id int64) error {
	return s.repo.DeleteLocation(ctx, id)
}

func normalizeLocation(l models.Location) (models.Location, error) {
	l.Name = strings.TrimSpace(l.Name)
	l.Note = strings.TrimSpace(l.Note)
	if l.Name == "" {
		return l, invalid(CodeNameRequired)
	}
	return l, nil
}

// ListDevices searches devices; see repository.ListDevices for matching.
func (s *InventoryService) ListDevices(ctx context.Context, query string) ([]models.DeviceListItem, error) {
	return s.repo.ListDevices(ctx, strings.TrimSpace(query))
}

func (s *InventoryService) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	return s.repo.GetDevice(ctx, id)
}

func (s *InventoryService) CreateDevice(ctx context.Context, d models.Device) (int64, error) {
	d, err := normalizeDevice(d)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.CreateDevice(ctx, d)
	return id, referenceMissing(err)
}

func (s *InventoryService) UpdateDevice(ctx context.Context, d models.Device) error {
	d, err := normalizeDevice(d)
	if err != nil {
		return err
	}
	return referenceMissing(s.repo.UpdateDevice(ctx, d))
}

func (s *InventoryService) DeleteDevice(ctx context.Context, id int64) error {
	return s.repo.DeleteDevice(ctx, id)
}

// normalizeDevice trims text fields, defaults the status and checks the
// installation date.
func normalizeDevice(d models.Device) (models.Device, error) {
	if d.ModelID <= 0 {
		return d, invalid(CodeModelRequired)
	}
	d.SerialNumber = strings.TrimSpace(d.SerialNumber)
	d.InventoryNumber = strings.TrimSpace(d.InventoryNumber)
	d.Description = strings.TrimSpace(d.Description)
	d.Status = strings.TrimSpace(d.Status)
	if d.Status == "" {
		d.Status = models.DefaultDeviceStatus
	}
	d.InstalledAt = strings.TrimSpace(d.InstalledAt)
	if d.InstalledAt != "" {
		if _, err := time.Parse(time.DateOnly, d.InstalledAt); err != nil {
			return d, invalid(CodeInvalidInstalledAt)
		}
	}
	return d, nil
}

func referenceMissing(err error) error {
	if errors.Is(err, repository.ErrMissingReference) {
		return invalid(CodeReferenceNotFound)
	}
	return err
}
