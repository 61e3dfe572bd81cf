// Package stops holds the fuel station and rest area reference data used by
// the route simulator and the replan detectors.
package stops

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"haulplan/internal/geo"
)

var ErrEmptyCatalog = errors.New("stops: catalog has no fuel stations or rest areas")

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type FuelStation struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Lat            float64  `yaml:"lat" json:"lat"`
	Lon            float64  `yaml:"lon" json:"lon"`
	PricePerGallon float64  `yaml:"price_per_gallon" json:"price_per_gallon"`
	Amenities      []string `yaml:"amenities,omitempty" json:"amenities,omitempty"`
}

func (f FuelStation) Point() geo.Point { return geo.Point{Lat: f.Lat, Lon: f.Lon} }

type RestArea struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Lat           float64  `yaml:"lat" json:"lat"`
	Lon           float64  `yaml:"lon" json:"lon"`
	ParkingSpaces int      `yaml:"parking_spaces,omitempty" json:"parking_spaces,omitempty"`
	Amenities     []string `yaml:"amenities,omitempty" json:"amenities,omitempty"`
}

func (r RestArea) Point() geo.Point { return geo.Point{Lat: r.Lat, Lon: r.Lon} }

// Catalog is read-only reference data. Implementations must be safe for
// concurrent readers.
type Catalog interface {
	FuelStations() []FuelStation
	RestAreas() []RestArea
}

// StaticCatalog is an in-memory Catalog, typically parsed from YAML.
type StaticCatalog struct {
	Fuel []FuelStation `yaml:"fuel_stations"`
	Rest []RestArea    `yaml:"rest_areas"`
}

func (c *StaticCatalog) FuelStations() []FuelStation { return c.Fuel }
func (c *StaticCatalog) RestAreas() []RestArea       { return c.Rest }

var (
	defaultOnce sync.Once
	defaultCat  *StaticCatalog
	defaultErr  error
)

// Default returns the catalog compiled into the binary.
func Default() (*StaticCatalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = ParseCatalog(defaultCatalogYAML)
	})
	return defaultCat, defaultErr
}

// LoadCatalog reads a YAML catalog file. An empty path returns Default.
func LoadCatalog(path string) (*StaticCatalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c, err := ParseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes YAML catalog bytes and checks every entry.
func ParseCatalog(b []byte) (*StaticCatalog, error) {
	var c StaticCatalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Fuel) == 0 && len(c.Rest) == 0 {
		return nil, ErrEmptyCatalog
	}
	for i, f := range c.Fuel {
		if f.ID == "" {
			return nil, fmt.Errorf("fuel_stations[%d]: id required", i)
		}
		if !f.Point().Valid() {
			return nil, fmt.Errorf("fuel_stations[%d] %s: invalid coordinates", i, f.ID)
		}
		if f.PricePerGallon < 0 {
			return nil, fmt.Errorf("fuel_stations[%d] %s: negative price", i, f.ID)
		}
	}
	for i, r := range c.Rest {
		if r.ID == "" {
			return nil, fmt.Errorf("rest_areas[%d]: id required", i)
		}
		if !r.Point().Valid() {
			return nil, fmt.Errorf("rest_areas[%d] %s: invalid coordinates", i, r.ID)
		}
	}
	return &c, nil
}
