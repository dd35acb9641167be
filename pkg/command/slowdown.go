package command

import (
	"math"
	"sort"

	"github.com/chazu/contour/pkg/geom"
)

// SlowDownLayer rewrites one layer's worth of commands (already split at
// LayerChange boundaries by the caller) so the layer takes at least
// minLayerTime seconds. Extrude segments are bucketed by their commanded
// speed; if the layer would otherwise finish sooner, the highest-speed
// bucket is repeatedly popped and either reduced just enough to close the
// remaining deficit or equalized down to the next-highest bucket's speed,
// continuing until the deficit is closed. Travel SetStates (speed equal to
// travelSpeed) are left untouched; no rewritten speed drops below
// minPrintSpeed.
func SlowDownLayer(cmds []Command, minLayerTime, travelSpeed, minPrintSpeed, retractLength, retractSpeed, retractLiftZ float64) []Command {
	buckets := map[float64]float64{}
	nonMoveTime := 0.0
	speed := 0.0
	loc := geom.Coord{}

	for _, c := range cmds {
		switch v := c.(type) {
		case MoveTo:
			nonMoveTime += travelTime(loc, v.End, speed)
			loc = v.End
		case MoveAndExtrude:
			buckets[speed] += hypot(v.Start, v.End)
			loc = v.End
		case SetState:
			if v.State.MovementSpeed != nil {
				speed = *v.State.MovementSpeed
			}
			if v.State.Retract != nil {
				nonMoveTime += retractionTime(retractLength, retractSpeed, retractLiftZ, travelSpeed)
			}
		case Delay:
			nonMoveTime += float64(v.Msec) / 1000.0
		}
	}

	if len(buckets) == 0 {
		return cmds
	}

	// speedTime matches travelTime's length/speed*60 convention, so the
	// totals computed here line up with what a later Calculate call over
	// the rewritten stream reports.
	speedTime := func(length, speed float64) float64 {
		if speed <= 0 {
			return 0
		}
		return length / speed * 60
	}

	totalTime := nonMoveTime
	for s, length := range buckets {
		totalTime += speedTime(length, s)
	}
	if totalTime >= minLayerTime {
		return cmds
	}

	type bucket struct{ speed, length float64 }
	sorted := make([]bucket, 0, len(buckets))
	for s, length := range buckets {
		sorted = append(sorted, bucket{s, length})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].speed < sorted[j].speed })

	var maxSpeed float64
	for {
		n := len(sorted)
		top := sorted[n-1]
		sorted = sorted[:n-1]
		topSpeed := 0.000001
		if len(sorted) > 0 {
			topSpeed = sorted[len(sorted)-1].speed
		}
		gain := speedTime(top.length, topSpeed) - speedTime(top.length, top.speed)
		deficit := minLayerTime - totalTime
		if deficit < gain {
			// The gain/deficit above are in the *60-scaled time domain;
			// the max-speed solve below is length/speed arithmetic, so
			// the deficit is converted back to that unscaled domain.
			second := deficit / 60
			maxSpeed = (top.length * top.speed) / (top.length + second*top.speed)
			break
		}
		totalTime += gain
		// The popped bucket now runs at the next bucket's speed, so the
		// two are slowed together from here on.
		if len(sorted) > 0 {
			sorted[len(sorted)-1].length += top.length
		}
	}

	out := make([]Command, len(cmds))
	copy(out, cmds)
	for i, c := range out {
		ss, ok := c.(SetState)
		if !ok || ss.State.MovementSpeed == nil || *ss.State.MovementSpeed == travelSpeed {
			continue
		}
		scaled := math.Max(math.Min(*ss.State.MovementSpeed, maxSpeed), minPrintSpeed)
		newState := ss.State
		newState.MovementSpeed = &scaled
		out[i] = SetState{State: newState}
	}
	return out
}
