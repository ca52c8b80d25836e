// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import "math"

const earthRadiusKM = 6371.0088

// greatCircleDistanceKM is the spherical (haversine) distance between two
// lat/lon points in kilometers, used by geo_within_radius (§4.4).
func greatCircleDistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	phi1, phi2 := toRad(lat1), toRad(lat2)
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
