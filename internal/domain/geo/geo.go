// Package geo implements great-circle distance, bearings and circular
// statistics on compass angles in degrees.
package geo

import "math"

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6_371_000.0

// MpsToKnots converts meters per second to knots.
const MpsToKnots = 1.94384

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// Distance returns the haversine great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// Bearing returns the initial compass bearing from point 1 to point 2 in [0,360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := rad(lat1), rad(lat2)
	dLam := rad(lon2 - lon1)
	y := math.Sin(dLam) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLam)
	return Normalize(deg(math.Atan2(y, x)))
}

// Destination returns the point reached by travelling dist meters from
// (lat, lon) on the given initial bearing.
func Destination(lat, lon, bearing, dist float64) (float64, float64) {
	delta := dist / EarthRadiusM
	theta := rad(bearing)
	phi1, lam1 := rad(lat), rad(lon)
	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lam2 := lam1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(phi1), math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))
	return deg(phi2), normalizeLon(deg(lam2))
}

// Midpoint returns the coordinate average of two nearby points.
func Midpoint(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	return (lat1 + lat2) / 2, (lon1 + lon2) / 2
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}

// Normalize maps an angle in degrees to [0,360).
func Normalize(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// Diff returns the signed smallest rotation from a to b, in (-180,180].
func Diff(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

// AbsDiff returns the unsigned smallest angle between a and b, in [0,180].
func AbsDiff(a, b float64) float64 { return math.Abs(Diff(a, b)) }

// CircularMean returns the weighted mean direction of angles. weights may be
// nil for equal weighting. ok is false when the resultant vanishes.
func CircularMean(angles, weights []float64) (mean float64, ok bool) {
	var s, c float64
	for i, a := range angles {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		s += w * math.Sin(rad(a))
		c += w * math.Cos(rad(a))
	}
	if math.Hypot(s, c) < 1e-12 {
		return 0, false
	}
	return Normalize(deg(math.Atan2(s, c))), true
}

// CircularVariance returns 1 - R for the unweighted angles, in [0,1].
func CircularVariance(angles []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	var s, c float64
	for _, a := range angles {
		s += math.Sin(rad(a))
		c += math.Cos(rad(a))
	}
	r := math.Hypot(s, c) / float64(len(angles))
	return clamp01(1 - r)
}

// Bisector returns the direction halfway along the smaller arc between a and b.
func Bisector(a, b float64) float64 {
	return Normalize(a + Diff(a, b)/2)
}

// UV decomposes a compass direction into (east, north) unit components.
func UV(direction float64) (u, v float64) {
	return math.Sin(rad(direction)), math.Cos(rad(direction))
}

// FromUV returns the compass direction of an (east, north) vector.
func FromUV(u, v float64) float64 {
	return Normalize(deg(math.Atan2(u, v)))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
