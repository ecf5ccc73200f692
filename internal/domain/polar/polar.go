// Package polar holds per-class performance profiles: wind-to-boat speed
// ratios, optimal VMG angles and a simplified polar diagram.
package polar

import (
	"math"
	"sort"
	"strings"
)

// DefaultClass is the profile used for unknown vessel types.
const DefaultClass = "default"

// Profile describes one boat class. UpwindRatio and DownwindRatio are true
// wind speed divided by boat speed on the respective point of sail.
type Profile struct {
	Class         string  `json:"class"`
	UpwindRatio   float64 `json:"upwind_ratio"`
	DownwindRatio float64 `json:"downwind_ratio"`
	TackAngle     float64 `json:"tack_angle"`
	LaylineMargin float64 `json:"layline_margin"`
}

var profiles = map[string]Profile{
	"default": {Class: "default", UpwindRatio: 3.0, DownwindRatio: 1.5, TackAngle: 90, LaylineMargin: 5},
	"laser":   {Class: "laser", UpwindRatio: 3.2, DownwindRatio: 1.6, TackAngle: 84, LaylineMargin: 6},
	"ilca":    {Class: "ilca", UpwindRatio: 3.2, DownwindRatio: 1.6, TackAngle: 84, LaylineMargin: 6},
	"470":     {Class: "470", UpwindRatio: 3.0, DownwindRatio: 1.5, TackAngle: 90, LaylineMargin: 5},
	"49er":    {Class: "49er", UpwindRatio: 2.8, DownwindRatio: 1.3, TackAngle: 85, LaylineMargin: 4},
	"finn":    {Class: "finn", UpwindRatio: 3.3, DownwindRatio: 1.7, TackAngle: 88, LaylineMargin: 6.5},
	"nacra17": {Class: "nacra17", UpwindRatio: 2.5, DownwindRatio: 1.2, TackAngle: 90, LaylineMargin: 5},
	"star":    {Class: "star", UpwindRatio: 3.4, DownwindRatio: 1.7, TackAngle: 90, LaylineMargin: 5},
}

// Lookup returns the profile for class (case-insensitive). ok is false when
// the class is unknown, in which case the default profile is returned.
func Lookup(class string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(class))]
	if !ok {
		return profiles[DefaultClass], false
	}
	return p, true
}

// Classes lists the known classes in sorted order.
func Classes() []string {
	out := make([]string, 0, len(profiles))
	for k := range profiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OptimalAngles returns the best VMG true wind angles for upwind and downwind
// sailing. windSpeed is accepted for interface compatibility; the simplified
// model does not vary with it.
func (p Profile) OptimalAngles(_ float64) (upwind, downwind float64) {
	upwind = clamp(45+(p.UpwindRatio-3.0)*2, 40, 50)
	downwind = clamp(150-(p.DownwindRatio-1.5)*2, 135, 160)
	return upwind, downwind
}

// BoatSpeed returns the modelled boat speed in knots at true wind speed tws
// (knots) and true wind angle twa (degrees, sign ignored).
func (p Profile) BoatSpeed(tws, twa float64) float64 {
	if tws <= 0 {
		return 0
	}
	twa = math.Abs(math.Mod(twa, 360))
	if twa > 180 {
		twa = 360 - twa
	}
	up, _ := p.OptimalAngles(tws)
	closeHauled := tws / p.UpwindRatio
	running := tws / p.DownwindRatio

	switch {
	case twa == 0:
		return 0
	case twa < up:
		r := twa / up
		return closeHauled * r * r
	case twa <= 90:
		blend := (twa - up) / (90 - up)
		return closeHauled*(1-blend) + running*blend
	default:
		return running * math.Pow(tws/10, 0.1)
	}
}

// VMG returns the velocity made good toward the wind (positive upwind) in knots.
func (p Profile) VMG(tws, twa float64) float64 {
	return p.BoatSpeed(tws, twa) * math.Cos(twa*math.Pi/180)
}

// TackingAngle returns the angle turned through when tacking at tws knots.
// Light air widens the angle and heavy air narrows it.
func (p Profile) TackingAngle(tws float64) float64 {
	switch {
	case tws < 5:
		return p.TackAngle + 10
	case tws > 15:
		return p.TackAngle - 5
	default:
		return p.TackAngle + 10 - (tws-5)*1.5
	}
}

// BaseLaylineMargin returns the class base safety margin in degrees.
func (p Profile) BaseLaylineMargin() float64 { return p.LaylineMargin }

// WindSpeedFromBoat estimates true wind speed from a boat speed sample on
// the given point of sail using the class ratios.
func (p Profile) WindSpeedFromBoat(boatSpeed float64, upwind bool) float64 {
	if upwind {
		return boatSpeed * p.UpwindRatio
	}
	return boatSpeed * p.DownwindRatio
}

func clamp(x, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, x)) }
