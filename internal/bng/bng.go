// Package bng converts British National Grid eastings/northings (EPSG:27700)
// into WGS84 longitude/latitude (EPSG:4326) and Web Mercator (EPSG:3857).
//
// The Places API returns projected OSGB36 coordinates; everything downstream
// (buffer geometry, spatial queries, the map) works in degrees. The inverse
// Transverse Mercator projection plus a 7-parameter Helmert datum shift is
// accurate to a few metres across Great Britain, which is sufficient for
// map centring and buffer queries.
package bng

import "math"

// Airy 1830 ellipsoid and the National Grid projection constants.
const (
	airyA = 6377563.396
	airyB = 6356256.909

	scaleF0  = 0.9996012717
	latOrig  = 49.0 * math.Pi / 180.0
	lonOrig  = -2.0 * math.Pi / 180.0
	eastOrig = 400000.0
	// True origin is 100km south of the false origin.
	northOrig = -100000.0
)

// GRS80 ellipsoid (WGS84 for this accuracy class).
const (
	grsA = 6378137.000
	grsB = 6356752.3141
)

// OSGB36 -> WGS84 Helmert parameters (inverse of the published WGS84->OSGB36
// transformation): translations in metres, rotations in arc-seconds, scale in ppm.
const (
	helmertTX = 446.448
	helmertTY = -125.157
	helmertTZ = 542.060
	helmertRX = 0.1502
	helmertRY = 0.2470
	helmertRZ = 0.8421
	helmertS  = -20.4894
)

const earthRadius3857 = 6378137.0

// ToWGS84 converts a British National Grid easting/northing to WGS84
// longitude/latitude in decimal degrees.
func ToWGS84(easting, northing float64) (lon, lat float64) {
	phi, lambda := inverseTM(easting, northing)
	return helmertShift(phi, lambda)
}

// ToWebMercator converts a British National Grid easting/northing straight
// to Web Mercator metres (EPSG:3857).
func ToWebMercator(easting, northing float64) (x, y float64) {
	lon, lat := ToWGS84(easting, northing)
	return WGS84ToWebMercator(lon, lat)
}

// WGS84ToWebMercator projects WGS84 degrees onto EPSG:3857 metres.
func WGS84ToWebMercator(lon, lat float64) (x, y float64) {
	x = earthRadius3857 * lon * math.Pi / 180.0
	y = earthRadius3857 * math.Log(math.Tan(math.Pi/4.0+lat*math.Pi/360.0))
	return x, y
}

// inverseTM runs the inverse Transverse Mercator projection on the Airy 1830
// ellipsoid, returning OSGB36 latitude/longitude in radians.
func inverseTM(easting, northing float64) (phi, lambda float64) {
	e2 := 1 - (airyB*airyB)/(airyA*airyA)
	n := (airyA - airyB) / (airyA + airyB)

	// Iterate to find the footpoint latitude.
	phi = latOrig
	m := 0.0
	for {
		phi = (northing-northOrig-m)/(airyA*scaleF0) + phi
		m = meridionalArc(phi, n)
		if math.Abs(northing-northOrig-m) < 1e-5 {
			break
		}
	}

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	nu := airyA * scaleF0 / math.Sqrt(1-e2*sinPhi*sinPhi)
	rho := airyA * scaleF0 * (1 - e2) / math.Pow(1-e2*sinPhi*sinPhi, 1.5)
	eta2 := nu/rho - 1

	vii := tanPhi / (2 * rho * nu)
	viii := tanPhi / (24 * rho * math.Pow(nu, 3)) *
		(5 + 3*tanPhi*tanPhi + eta2 - 9*tanPhi*tanPhi*eta2)
	ix := tanPhi / (720 * rho * math.Pow(nu, 5)) *
		(61 + 90*tanPhi*tanPhi + 45*math.Pow(tanPhi, 4))
	x1 := 1 / (cosPhi * nu)
	xi := 1 / (cosPhi * 6 * math.Pow(nu, 3)) * (nu/rho + 2*tanPhi*tanPhi)
	xii := 1 / (cosPhi * 120 * math.Pow(nu, 5)) *
		(5 + 28*tanPhi*tanPhi + 24*math.Pow(tanPhi, 4))
	xiia := 1 / (cosPhi * 5040 * math.Pow(nu, 7)) *
		(61 + 662*tanPhi*tanPhi + 1320*math.Pow(tanPhi, 4) + 720*math.Pow(tanPhi, 6))

	dE := easting - eastOrig
	phi = phi - vii*dE*dE + viii*math.Pow(dE, 4) - ix*math.Pow(dE, 6)
	lambda = lonOrig + x1*dE - xi*math.Pow(dE, 3) + xii*math.Pow(dE, 5) - xiia*math.Pow(dE, 7)

	return phi, lambda
}

// meridionalArc computes the developed meridional arc M for latitude phi.
func meridionalArc(phi, n float64) float64 {
	dPhi := phi - latOrig
	sPhi := phi + latOrig

	return airyB * scaleF0 * ((1+n+1.25*n*n+1.25*n*n*n)*dPhi -
		(3*n+3*n*n+2.625*n*n*n)*math.Sin(dPhi)*math.Cos(sPhi) +
		(1.875*n*n+1.875*n*n*n)*math.Sin(2*dPhi)*math.Cos(2*sPhi) -
		(35.0/24.0)*n*n*n*math.Sin(3*dPhi)*math.Cos(3*sPhi))
}

// helmertShift moves OSGB36 geodetic coordinates (radians) onto the WGS84
// datum and returns decimal degrees.
func helmertShift(phi, lambda float64) (lon, lat float64) {
	// Geodetic -> cartesian on Airy 1830.
	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	e2 := 1 - (airyB*airyB)/(airyA*airyA)
	nu := airyA / math.Sqrt(1-e2*sinPhi*sinPhi)

	x := nu * cosPhi * math.Cos(lambda)
	y := nu * cosPhi * math.Sin(lambda)
	z := nu * (1 - e2) * sinPhi

	// 7-parameter Helmert transformation.
	s := helmertS / 1e6
	rx := helmertRX * math.Pi / 648000.0
	ry := helmertRY * math.Pi / 648000.0
	rz := helmertRZ * math.Pi / 648000.0

	x2 := helmertTX + (1+s)*x - rz*y + ry*z
	y2 := helmertTY + rz*x + (1+s)*y - rx*z
	z2 := helmertTZ - ry*x + rx*y + (1+s)*z

	// Cartesian -> geodetic on GRS80, iterating latitude.
	e2b := 1 - (grsB*grsB)/(grsA*grsA)
	p := math.Sqrt(x2*x2 + y2*y2)
	phi2 := math.Atan2(z2, p*(1-e2b))
	for i := 0; i < 10; i++ {
		sin2 := math.Sin(phi2)
		nu2 := grsA / math.Sqrt(1-e2b*sin2*sin2)
		next := math.Atan2(z2+e2b*nu2*sin2, p)
		if math.Abs(next-phi2) < 1e-12 {
			phi2 = next
			break
		}
		phi2 = next
	}
	lambda2 := math.Atan2(y2, x2)

	return lambda2 * 180.0 / math.Pi, phi2 * 180.0 / math.Pi
}
