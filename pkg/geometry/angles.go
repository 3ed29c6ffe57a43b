package geometry

import "math"

// NormalizeDegrees maps any angle to [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// AngleLTE reports whether angle, measured either way round the circle, is
// at most maximum degrees away from zero.
func AngleLTE(angle, maximum float64) bool {
	angle = NormalizeDegrees(angle)
	angle = math.Min(angle, 360-angle)
	return angle <= maximum
}

// SteerTowards moves source toward target by at most maxAccel in speed and
// maxTurn degrees in heading, turning the short way round.
func SteerTowards(source, target Vector2D, maxAccel, maxTurn float64) Vector2D {
	sourceSpeed, sourceHeading := source.Polar()
	targetSpeed, targetHeading := target.Polar()

	if targetSpeed > sourceSpeed {
		targetSpeed = math.Min(sourceSpeed+maxAccel, targetSpeed)
	} else {
		targetSpeed = math.Max(sourceSpeed-maxAccel, targetSpeed)
	}

	delta := NormalizeDegrees(targetHeading - sourceHeading)
	if delta < 180 {
		delta = math.Min(delta, maxTurn)
	} else {
		delta = math.Max(delta-360, -maxTurn)
	}

	return NewVectorPolarDegrees(targetSpeed, NormalizeDegrees(sourceHeading+delta))
}
