// Package settingsfile loads a Settings document from a TOML file,
// following an OtherFiles include list recursively before resolving
// defaults, the way a project's settings can be split across a base
// file and per-printer or per-material overlays.
package settingsfile

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/chazu/contour/pkg/settings"
	"github.com/chazu/contour/pkg/slicererr"
)

// Document is the on-disk shape of a settings file: an include list
// plus the partial settings fields themselves.
type Document struct {
	OtherFiles []string `toml:"other_files"`

	LayerHeight      *float64 `toml:"layer_height"`
	NozzleDiameter   *float64 `toml:"nozzle_diameter"`
	RetractLength    *float64 `toml:"retract_length"`
	RetractSpeed     *float64 `toml:"retract_speed"`
	InfillPercentage *float64 `toml:"infill_percentage"`
	PrintX           *float64 `toml:"print_x"`
	PrintY           *float64 `toml:"print_y"`
	PrintZ           *float64 `toml:"print_z"`

	FilamentDiameter     *float64 `toml:"filament_diameter"`
	FilamentDensity      *float64 `toml:"filament_density"`
	FilamentExtruderTemp *float64 `toml:"filament_extruder_temp"`
	FilamentBedTemp      *float64 `toml:"filament_bed_temp"`
}

// combine merges other's set fields onto d, other taking priority —
// the same last-applied-wins rule PartialLayerSettings.Combine uses.
func (d *Document) combine(other Document) {
	if other.LayerHeight != nil {
		d.LayerHeight = other.LayerHeight
	}
	if other.NozzleDiameter != nil {
		d.NozzleDiameter = other.NozzleDiameter
	}
	if other.RetractLength != nil {
		d.RetractLength = other.RetractLength
	}
	if other.RetractSpeed != nil {
		d.RetractSpeed = other.RetractSpeed
	}
	if other.InfillPercentage != nil {
		d.InfillPercentage = other.InfillPercentage
	}
	if other.PrintX != nil {
		d.PrintX = other.PrintX
	}
	if other.PrintY != nil {
		d.PrintY = other.PrintY
	}
	if other.PrintZ != nil {
		d.PrintZ = other.PrintZ
	}
	if other.FilamentDiameter != nil {
		d.FilamentDiameter = other.FilamentDiameter
	}
	if other.FilamentDensity != nil {
		d.FilamentDensity = other.FilamentDensity
	}
	if other.FilamentExtruderTemp != nil {
		d.FilamentExtruderTemp = other.FilamentExtruderTemp
	}
	if other.FilamentBedTemp != nil {
		d.FilamentBedTemp = other.FilamentBedTemp
	}
}

// Load reads filepath and every file named in its OtherFiles list
// (recursively), combines them in inclusion order, then resolves the
// merged document onto settings.Default().
func Load(filepath string) (settings.Settings, error) {
	doc, err := loadRecursive(filepath, map[string]bool{})
	if err != nil {
		return settings.Settings{}, err
	}

	s := settings.Default()
	if doc.LayerHeight != nil {
		s.LayerHeight = *doc.LayerHeight
	}
	if doc.NozzleDiameter != nil {
		s.NozzleDiameter = *doc.NozzleDiameter
	}
	if doc.RetractLength != nil {
		s.RetractLength = *doc.RetractLength
	}
	if doc.RetractSpeed != nil {
		s.RetractSpeed = *doc.RetractSpeed
	}
	if doc.InfillPercentage != nil {
		s.InfillPercentage = *doc.InfillPercentage
	}
	if doc.PrintX != nil {
		s.PrintX = *doc.PrintX
	}
	if doc.PrintY != nil {
		s.PrintY = *doc.PrintY
	}
	if doc.PrintZ != nil {
		s.PrintZ = *doc.PrintZ
	}
	if doc.FilamentDiameter != nil {
		s.Filament.Diameter = *doc.FilamentDiameter
	}
	if doc.FilamentDensity != nil {
		s.Filament.Density = *doc.FilamentDensity
	}
	if doc.FilamentExtruderTemp != nil {
		s.Filament.ExtruderTemp = *doc.FilamentExtruderTemp
	}
	if doc.FilamentBedTemp != nil {
		s.Filament.BedTemp = *doc.FilamentBedTemp
	}

	if err := s.Validate(); err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}

func loadRecursive(filepath string, seen map[string]bool) (Document, error) {
	if seen[filepath] {
		return Document{}, nil
	}
	seen[filepath] = true

	data, err := os.ReadFile(filepath)
	if err != nil {
		return Document{}, slicererr.SettingsFileNotFound(filepath)
	}

	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Document{}, slicererr.SettingsFileMisformat(filepath)
	}

	merged := Document{}
	for _, other := range doc.OtherFiles {
		child, err := loadRecursive(other, seen)
		if err != nil {
			return Document{}, slicererr.SettingsRecursiveLoadError(other)
		}
		merged.combine(child)
	}
	merged.combine(doc)
	return merged, nil
}
