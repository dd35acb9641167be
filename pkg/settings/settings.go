// Package settings models the slicer's configuration schema: the
// full Settings document, its PartialSettings overlay counterpart used
// by per-layer overrides and recursive settings files, and the merge
// logic ("combine") that resolves both into the LayerSettings a single
// layer is generated with.
package settings

import (
	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/infill"
	"github.com/chazu/contour/pkg/slicererr"
)

// MovementParameter holds one value per MoveType, the way extrusion
// width, speed, and acceleration are all configured.
type MovementParameter struct {
	InteriorInnerPerimeter  float64
	InteriorSurfacePerimeter float64
	ExteriorInnerPerimeter  float64
	ExteriorSurfacePerimeter float64
	SolidTopInfill          float64
	SolidInfill             float64
	Infill                  float64
	Travel                  float64
	Bridge                  float64
	Support                 float64
}

// ForMoveType returns the value configured for t.
func (m MovementParameter) ForMoveType(t command.MoveType) float64 {
	switch t {
	case command.TopSolidInfill:
		return m.SolidTopInfill
	case command.SolidInfill:
		return m.SolidInfill
	case command.Infill:
		return m.Infill
	case command.ExteriorSurfacePerimeter:
		return m.ExteriorSurfacePerimeter
	case command.InteriorSurfacePerimeter:
		return m.InteriorSurfacePerimeter
	case command.ExteriorInnerPerimeter:
		return m.ExteriorInnerPerimeter
	case command.InteriorInnerPerimeter:
		return m.InteriorInnerPerimeter
	case command.Bridging:
		return m.Bridge
	case command.Support:
		return m.Support
	default:
		return m.Travel
	}
}

// PartialMovementParameter is MovementParameter with every field
// optional, for per-layer overrides.
type PartialMovementParameter struct {
	InteriorInnerPerimeter   *float64
	InteriorSurfacePerimeter *float64
	ExteriorInnerPerimeter   *float64
	ExteriorSurfacePerimeter *float64
	SolidTopInfill           *float64
	SolidInfill              *float64
	Infill                   *float64
	Travel                   *float64
	Bridge                   *float64
	Support                  *float64
}

func pickFloat(base float64, override *float64) float64 {
	if override != nil {
		return *override
	}
	return base
}

// Resolve applies p's overrides onto base, field by field.
func (p *PartialMovementParameter) Resolve(base MovementParameter) MovementParameter {
	if p == nil {
		return base
	}
	return MovementParameter{
		InteriorInnerPerimeter:   pickFloat(base.InteriorInnerPerimeter, p.InteriorInnerPerimeter),
		InteriorSurfacePerimeter: pickFloat(base.InteriorSurfacePerimeter, p.InteriorSurfacePerimeter),
		ExteriorInnerPerimeter:   pickFloat(base.ExteriorInnerPerimeter, p.ExteriorInnerPerimeter),
		ExteriorSurfacePerimeter: pickFloat(base.ExteriorSurfacePerimeter, p.ExteriorSurfacePerimeter),
		SolidTopInfill:           pickFloat(base.SolidTopInfill, p.SolidTopInfill),
		SolidInfill:              pickFloat(base.SolidInfill, p.SolidInfill),
		Infill:                   pickFloat(base.Infill, p.Infill),
		Travel:                   pickFloat(base.Travel, p.Travel),
		Bridge:                   pickFloat(base.Bridge, p.Bridge),
		Support:                  pickFloat(base.Support, p.Support),
	}
}

// FilamentSettings describes the loaded filament.
type FilamentSettings struct {
	Diameter     float64
	Density      float64
	Cost         float64
	ExtruderTemp float64
	BedTemp      float64
}

func DefaultFilamentSettings() FilamentSettings {
	return FilamentSettings{Diameter: 1.75, Density: 1.24, Cost: 24.99, ExtruderTemp: 210, BedTemp: 60}
}

// FanSettings controls part-cooling fan behavior.
type FanSettings struct {
	FanSpeed             float64
	DisableFanForLayers  int
	SlowDownThreshold    float64
	MinPrintSpeed        float64
}

func DefaultFanSettings() FanSettings {
	return FanSettings{FanSpeed: 100, DisableFanForLayers: 1, SlowDownThreshold: 15, MinPrintSpeed: 15}
}

// SkirtSettings controls skirt generation.
type SkirtSettings struct {
	Layers   int
	Distance float64
}

// SupportSettings controls support generation.
type SupportSettings struct {
	MaxOverhangAngle float64
	SupportSpacing   float64
}

// RetractionWipeSettings controls the wipe move a retraction rides on.
type RetractionWipeSettings struct {
	Speed        float64
	Acceleration float64
	Distance     float64
}

// LayerRange selects which layers a PartialLayerSettings entry applies
// to: by single index, an inclusive index range, or an inclusive height
// range (in millimeters from the bed).
type LayerRange struct {
	SingleLayer    *int
	CountRangeFrom *int
	CountRangeTo   *int
	HeightFrom     *float64
	HeightTo       *float64
}

// Matches reports whether layer/height falls within r.
func (r LayerRange) Matches(layer int, height float64) bool {
	if r.SingleLayer != nil {
		return *r.SingleLayer == layer
	}
	if r.CountRangeFrom != nil && r.CountRangeTo != nil {
		return *r.CountRangeFrom <= layer && layer <= *r.CountRangeTo
	}
	if r.HeightFrom != nil && r.HeightTo != nil {
		return *r.HeightFrom <= height && height <= *r.HeightTo
	}
	return false
}

// PartialLayerSettings is the per-layer-range override document.
type PartialLayerSettings struct {
	ExtrusionWidth                     *MovementParameter
	Speed                              *MovementParameter
	Acceleration                       *MovementParameter
	LayerHeight                        *float64
	LayerShrinkAmount                  *float64
	SolidInfillType                    *infill.Pattern
	PartialInfillType                  *infill.Pattern
	InfillPercentage                   *float64
	InfillPerimeterOverlapPercentage   *float64
	InnerPerimetersFirst               *bool
	BedTemp                            *float64
	ExtruderTemp                       *float64
	RetractionWipe                     *RetractionWipeSettings
	RetractionLength                   *float64
}

// Combine merges other's set fields onto p, other taking priority.
func (p *PartialLayerSettings) Combine(other PartialLayerSettings) {
	if other.ExtrusionWidth != nil {
		p.ExtrusionWidth = other.ExtrusionWidth
	}
	if other.Speed != nil {
		p.Speed = other.Speed
	}
	if other.Acceleration != nil {
		p.Acceleration = other.Acceleration
	}
	if other.LayerHeight != nil {
		p.LayerHeight = other.LayerHeight
	}
	if other.LayerShrinkAmount != nil {
		p.LayerShrinkAmount = other.LayerShrinkAmount
	}
	if other.SolidInfillType != nil {
		p.SolidInfillType = other.SolidInfillType
	}
	if other.PartialInfillType != nil {
		p.PartialInfillType = other.PartialInfillType
	}
	if other.InfillPercentage != nil {
		p.InfillPercentage = other.InfillPercentage
	}
	if other.InfillPerimeterOverlapPercentage != nil {
		p.InfillPerimeterOverlapPercentage = other.InfillPerimeterOverlapPercentage
	}
	if other.InnerPerimetersFirst != nil {
		p.InnerPerimetersFirst = other.InnerPerimetersFirst
	}
	if other.BedTemp != nil {
		p.BedTemp = other.BedTemp
	}
	if other.ExtruderTemp != nil {
		p.ExtruderTemp = other.ExtruderTemp
	}
	if other.RetractionWipe != nil {
		p.RetractionWipe = other.RetractionWipe
	}
	if other.RetractionLength != nil {
		p.RetractionLength = other.RetractionLength
	}
}

// LayerSettings is the fully-resolved configuration a single layer is
// generated with.
type LayerSettings struct {
	LayerHeight                      float64
	LayerShrinkAmount                *float64
	Speed                            MovementParameter
	Acceleration                     MovementParameter
	ExtrusionWidth                   MovementParameter
	SolidInfillType                  infill.Pattern
	PartialInfillType                infill.Pattern
	InfillPercentage                 float64
	InfillPerimeterOverlapPercentage float64
	InnerPerimetersFirst             bool
	BedTemp                          float64
	ExtruderTemp                     float64
	RetractionWipe                   *RetractionWipeSettings
	RetractionLength                 float64
}

// Settings is the complete, fully-resolved document for a print.
type Settings struct {
	LayerHeight      float64
	ExtrusionWidth   MovementParameter
	Filament         FilamentSettings
	Fan              FanSettings
	Skirt            *SkirtSettings
	Support          *SupportSettings
	NozzleDiameter   float64
	RetractLength    float64
	RetractLiftZ     float64
	RetractSpeed     float64
	RetractionWipe   *RetractionWipeSettings
	Speed            MovementParameter
	Acceleration     MovementParameter
	InfillPercentage float64

	InnerPerimetersFirst bool
	NumberOfPerimeters   int
	TopLayers            int
	BottomLayers         int

	PrintX, PrintY, PrintZ float64

	BrimWidth                        *float64
	LayerShrinkAmount                *float64
	MinimumRetractDistance           float64
	InfillPerimeterOverlapPercentage float64
	SolidInfillType                  infill.Pattern
	PartialInfillType                infill.Pattern

	StartingInstructions           string
	EndingInstructions              string
	BeforeLayerChangeInstructions  string
	AfterLayerChangeInstructions   string
	ObjectChangeInstructions       string

	MaxAccelerationX, MaxAccelerationY, MaxAccelerationZ, MaxAccelerationE float64
	MaxAccelerationExtruding, MaxAccelerationTravel, MaxAccelerationRetracting float64
	MaxJerkX, MaxJerkY, MaxJerkZ, MaxJerkE float64

	MinimumFeedratePrint, MinimumFeedrateTravel float64
	MaximumFeedrateX, MaximumFeedrateY, MaximumFeedrateZ, MaximumFeedrateE float64

	LayerSettings []LayerRangeOverride

	BedExcludeAreas geom.MultiPolygon
}

// LayerRangeOverride pairs a LayerRange with the PartialLayerSettings
// document that applies to it.
type LayerRangeOverride struct {
	Range    LayerRange
	Settings PartialLayerSettings
}

// Default returns the stock configuration: a 0.4mm nozzle, 0.15mm
// layers, and a first-layer override with 0.3mm layers, slower moves
// (20mm/s printing, 5mm/s travel) and its own bed and extruder
// temperatures.
func Default() Settings {
	firstLayer := 0
	movement04 := MovementParameter{
		InteriorInnerPerimeter: 0.4, InteriorSurfacePerimeter: 0.4, ExteriorInnerPerimeter: 0.4,
		ExteriorSurfacePerimeter: 0.4, SolidTopInfill: 0.4, SolidInfill: 0.4, Infill: 0.4, Travel: 0.4,
		Bridge: 0.4, Support: 0.4,
	}
	speed := MovementParameter{
		InteriorInnerPerimeter: 40, InteriorSurfacePerimeter: 40, ExteriorInnerPerimeter: 40,
		ExteriorSurfacePerimeter: 40, SolidTopInfill: 200, SolidInfill: 200, Infill: 200, Travel: 180,
		Bridge: 30, Support: 50,
	}
	accel := MovementParameter{
		InteriorInnerPerimeter: 900, InteriorSurfacePerimeter: 900, ExteriorInnerPerimeter: 800,
		ExteriorSurfacePerimeter: 800, SolidTopInfill: 1000, SolidInfill: 1000, Infill: 1000, Travel: 1000,
		Bridge: 1000, Support: 1000,
	}
	firstLayerSpeed := MovementParameter{
		InteriorInnerPerimeter: 20, InteriorSurfacePerimeter: 20, ExteriorInnerPerimeter: 20,
		ExteriorSurfacePerimeter: 20, SolidTopInfill: 20, SolidInfill: 20, Infill: 20, Travel: 5,
		Bridge: 20, Support: 20,
	}
	firstLayerHeight, firstLayerBed, firstLayerExtruder := 0.3, 60.0, 210.0

	return Settings{
		LayerHeight:              0.15,
		ExtrusionWidth:           movement04,
		Filament:                 DefaultFilamentSettings(),
		Fan:                      DefaultFanSettings(),
		NozzleDiameter:           0.4,
		RetractLength:            0.8,
		RetractLiftZ:             0.6,
		RetractSpeed:             35,
		Speed:                    speed,
		Acceleration:             accel,
		InfillPercentage:         0.2,
		InnerPerimetersFirst:     true,
		NumberOfPerimeters:       3,
		TopLayers:                3,
		BottomLayers:             3,
		PrintX:                   210,
		PrintY:                   210,
		PrintZ:                   210,
		MinimumRetractDistance:   1.0,
		InfillPerimeterOverlapPercentage: 0.25,
		SolidInfillType:          infill.Rectilinear,
		PartialInfillType:        infill.Linear,
		StartingInstructions: "G90 ; use absolute coordinates\n" +
			"M83 ; extruder relative mode\n" +
			"M104 S[Extruder Temperature] ; set extruder temp\n" +
			"M140 S[Bed Temperature] ; set bed temp\n" +
			"M190 S[Bed Temperature] ; wait for bed temp\n" +
			"M109 S[Extruder Temperature] ; wait for extruder temp\n" +
			"G28 ; home all axes\n" +
			"G92 E0.0\n",
		EndingInstructions: "G4 ; wait\n" +
			"M104 S0 ; turn off temperature\n" +
			"M140 S0 ; turn off heatbed\n" +
			"M84 ; disable motors\n" +
			"M107 ; disable fan\n",
		MaxAccelerationX: 1000, MaxAccelerationY: 1000, MaxAccelerationZ: 1000, MaxAccelerationE: 5000,
		MaxAccelerationExtruding: 1250, MaxAccelerationTravel: 1250, MaxAccelerationRetracting: 1250,
		MaxJerkX: 8, MaxJerkY: 8, MaxJerkZ: 0.4, MaxJerkE: 1.5,
		MaximumFeedrateX: 200, MaximumFeedrateY: 200, MaximumFeedrateZ: 12, MaximumFeedrateE: 120,
		LayerSettings: []LayerRangeOverride{
			{
				Range: LayerRange{SingleLayer: &firstLayer},
				Settings: PartialLayerSettings{
					Speed:        &firstLayerSpeed,
					LayerHeight:  &firstLayerHeight,
					BedTemp:      &firstLayerBed,
					ExtruderTemp: &firstLayerExtruder,
				},
			},
		},
	}
}

// GetLayerSettings resolves the per-layer overrides matching layer/height
// against the base document, innermost (last-matching) override winning
// per field.
func (s *Settings) GetLayerSettings(layer int, height float64) LayerSettings {
	var changes PartialLayerSettings
	for _, lro := range s.LayerSettings {
		if lro.Range.Matches(layer, height) {
			changes.Combine(lro.Settings)
		}
	}

	pick := func(base float64, o *float64) float64 { return pickFloat(base, o) }

	ls := LayerSettings{
		LayerHeight:                      pick(s.LayerHeight, changes.LayerHeight),
		LayerShrinkAmount:                s.LayerShrinkAmount,
		Speed:                            s.Speed,
		Acceleration:                     s.Acceleration,
		ExtrusionWidth:                   s.ExtrusionWidth,
		SolidInfillType:                  s.SolidInfillType,
		PartialInfillType:                s.PartialInfillType,
		InfillPercentage:                 pick(s.InfillPercentage, changes.InfillPercentage),
		InfillPerimeterOverlapPercentage: pick(s.InfillPerimeterOverlapPercentage, changes.InfillPerimeterOverlapPercentage),
		InnerPerimetersFirst:             s.InnerPerimetersFirst,
		BedTemp:                          pick(s.Filament.BedTemp, changes.BedTemp),
		ExtruderTemp:                     pick(s.Filament.ExtruderTemp, changes.ExtruderTemp),
		RetractionWipe:                   s.RetractionWipe,
		RetractionLength:                 pick(s.RetractLength, changes.RetractionLength),
	}
	if changes.LayerShrinkAmount != nil {
		ls.LayerShrinkAmount = changes.LayerShrinkAmount
	}
	if changes.Speed != nil {
		ls.Speed = *changes.Speed
	}
	if changes.Acceleration != nil {
		ls.Acceleration = *changes.Acceleration
	}
	if changes.ExtrusionWidth != nil {
		ls.ExtrusionWidth = *changes.ExtrusionWidth
	}
	if changes.SolidInfillType != nil {
		ls.SolidInfillType = *changes.SolidInfillType
	}
	if changes.PartialInfillType != nil {
		ls.PartialInfillType = *changes.PartialInfillType
	}
	if changes.InnerPerimetersFirst != nil {
		ls.InnerPerimetersFirst = *changes.InnerPerimetersFirst
	}
	if changes.RetractionWipe != nil {
		ls.RetractionWipe = changes.RetractionWipe
	}
	return ls
}

// Validate checks structural and physical sanity, returning the first
// warning or error found (the original document checks fail fast, in a
// fixed priority order: hard errors first, then physical-plausibility
// warnings).
func (s *Settings) Validate() error {
	for _, check := range []struct {
		val  float64
		name string
	}{
		{s.PrintX, "print_x"}, {s.PrintY, "print_y"}, {s.PrintZ, "print_z"},
		{s.NozzleDiameter, "nozzle_diameter"}, {s.LayerHeight, "layer_height"},
		{s.RetractSpeed, "retract_speed"},
		{s.MaxAccelerationX, "max_acceleration_x"}, {s.MaxAccelerationY, "max_acceleration_y"},
		{s.MaxAccelerationZ, "max_acceleration_z"}, {s.MaxAccelerationE, "max_acceleration_e"},
		{s.MaxJerkX, "max_jerk_x"}, {s.MaxJerkY, "max_jerk_y"},
		{s.MaxJerkZ, "max_jerk_z"}, {s.MaxJerkE, "max_jerk_e"},
		{s.MaximumFeedrateX, "maximum_feedrate_x"}, {s.MaximumFeedrateY, "maximum_feedrate_y"},
		{s.MaximumFeedrateZ, "maximum_feedrate_z"}, {s.MaximumFeedrateE, "maximum_feedrate_e"},
	} {
		if check.val <= 0 {
			return slicererr.SettingsFileMissingSettings(check.name)
		}
	}

	if s.LayerHeight < s.NozzleDiameter*0.2 {
		return slicererr.LayerSizeTooLow(s.LayerHeight, s.NozzleDiameter)
	}
	if s.LayerHeight > s.NozzleDiameter*0.8 {
		return slicererr.LayerSizeTooHigh(s.LayerHeight, s.NozzleDiameter)
	}
	if w := checkExtrusionWidths(s.ExtrusionWidth, s.NozzleDiameter); w != nil {
		return w
	}
	if s.Skirt != nil && s.BrimWidth != nil && s.Skirt.Distance <= *s.BrimWidth {
		return slicererr.SkirtAndBrimOverlap(s.Skirt.Distance, *s.BrimWidth)
	}
	if s.Filament.ExtruderTemp < 140 {
		return slicererr.NozzleTemperatureTooLow(s.Filament.ExtruderTemp)
	}
	if s.Filament.ExtruderTemp > 260 {
		return slicererr.NozzleTemperatureTooHigh(s.Filament.ExtruderTemp)
	}
	return nil
}

func checkExtrusionWidths(w MovementParameter, nozzleDiameter float64) error {
	widths := []float64{w.Infill, w.SolidTopInfill, w.SolidInfill, w.Bridge, w.Support, w.InteriorSurfacePerimeter}
	for _, width := range widths {
		if width < nozzleDiameter*0.6 {
			return slicererr.ExtrusionWidthTooLow(width, nozzleDiameter)
		}
		if width > nozzleDiameter*2.0 {
			return slicererr.ExtrusionWidthTooHigh(width, nozzleDiameter)
		}
	}
	return nil
}
