package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/models"
)

// SeedStore is the subset of the inventory repository used by Seed.
type SeedStore interface {
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	CreateVendor(ctx context.Context, v models.Vendor) (int64, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	CreateLocation(ctx context.Context, l models.Location) (int64, error)
	ListModels(ctx context.Context) ([]models.Model, error)
	CreateModel(ctx context.Context, m models.Model) (int64, error)
}

// Demo reference data inserted by Seed.
var (
	seedVendor   = models.Vendor{Name: "Cisco", Country: "US"}
	seedLocation = models.Location{Name: "Main office", Note: "Default location"}
	seedModel    = models.Model{Name: "ISR 4321", DeviceType: "router"}
)

// Seed fills each empty reference table with one demo row so a fresh
// installation is usable right away. Tables that already hold rows are left
// alone, so Seed can run on every start.
func Seed(ctx context.Context, store SeedStore, log *zap.Logger) error {
	vendors, err := store.ListVendors(ctx)
	if err != nil {
		return fmt.Errorf("seed vendors: %w", err)
	}
	if len(vendors) == 0 {
		id, err := store.CreateVendor(ctx, seedVendor)
		if err != nil {
			return fmt.Errorf("seed vendors: %w", err)
		}
		v := seedVendor
		v.ID = id
		vendors = append(vendors, v)
		log.Info("seeded vendor", zap.String("name", v.Name), zap.Int64("id", id))
	}

	locations, err := store.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("seed locations: %w", err)
	}
	if len(locations) == 0 {
		id, err := store.CreateLocation(ctx, seedLocation)
		if err != nil {
			return fmt.Errorf("seed locations: %w", err)
		}
		log.Info("seeded location", zap.String("name", seedLocation.Name), zap.Int64("id", id))
	}

	existing, err := store.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("seed models: %w", err)
	}
	if len(existing) == 0 {
		m := seedModel
		m.VendorID = firstVendorID(vendors)
		id, err := store.CreateModel(ctx, m)
		if err != nil {
			return fmt.Errorf("seed models: %w", err)
		}
		log.Info("seeded model", zap.String("name", m.Name), zap.Int64("id", id))
	}
	return nil
}

// firstVendorID returns the oldest vendor's id.
func firstVendorID(vendors []models.Vendor) int64 {
	first := vendors[0].ID
	for _, v := range vendors[1:] {
		first = min(first, v.ID)
	}
	return first
}
