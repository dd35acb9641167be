package command

import (
	"math"

	"github.com/chazu/contour/pkg/geom"
)

// CalculatedValues aggregates the statistics a single pass over a
// finished command stream produces: total print time, plastic volume
// extruded, mass, and filament length consumed.
type CalculatedValues struct {
	TotalTime      float64 // seconds
	PlasticVolume  float64 // cubic millimeters
	Mass           float64 // grams
	FilamentLength float64 // millimeters
}

// Calculate walks cmds once, accumulating CalculatedValues. density is
// taken from the active filament settings; nozzleDiameter is the divisor
// used to convert extruded volume into filament length, since the
// slicer meters volume through the nozzle's bore rather than the
// filament's own cross-section. retractSpeed/retractLength/retractLiftZ/
// travelSpeed are the retraction settings each SetState that carries a
// retraction change is charged against, matching calculate_values's
// retract_length/retract_speed + retract_lift_z/travel_speed accounting.
func Calculate(cmds []Command, density, nozzleDiameter, retractSpeed, retractLength, retractLiftZ, travelSpeed float64) CalculatedValues {
	var cv CalculatedValues
	speed := 0.0
	loc := geom.Coord{}
	nozzleArea := math.Pi * (nozzleDiameter / 2) * (nozzleDiameter / 2)

	for _, c := range cmds {
		switch v := c.(type) {
		case SetState:
			if v.State.MovementSpeed != nil {
				speed = *v.State.MovementSpeed
			}
			if v.State.Retract != nil {
				cv.TotalTime += retractionTime(retractLength, retractSpeed, retractLiftZ, travelSpeed)
			}
		case MoveTo:
			cv.TotalTime += travelTime(loc, v.End, speed)
			loc = v.End
		case MoveAndExtrude:
			dist := hypot(v.Start, v.End)
			cv.TotalTime += travelTime(v.Start, v.End, speed)
			vol := v.Width * v.Thickness * dist
			cv.PlasticVolume += vol
			cv.Mass += vol * density / 1000
			if nozzleArea > 0 {
				cv.FilamentLength += vol / nozzleArea
			}
			loc = v.End
		case Delay:
			cv.TotalTime += float64(v.Msec) / 1000.0
		}
	}
	return cv
}

// retractionTime is the time cost charged against any SetState carrying a
// retraction change (Retract, Unretract, or MoveRetract alike), matching
// calculate_values's unconditional-on-kind accounting.
func retractionTime(retractLength, retractSpeed, retractLiftZ, travelSpeed float64) float64 {
	var t float64
	if retractSpeed > 0 {
		t += retractLength / retractSpeed * 60
	}
	if travelSpeed > 0 {
		t += retractLiftZ / travelSpeed * 60
	}
	return t
}

func travelTime(a, b geom.Coord, speed float64) float64 {
	if speed <= 0 {
		return 0
	}
	return hypot(a, b) / speed * 60
}

func hypot(a, b geom.Coord) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
