package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	// Same point.
	require.InDelta(t, 0, DistanceMeters(48.8566, 2.3522, 48.8566, 2.3522), 0.01)

	// Roughly 111km per degree of latitude.
	d := DistanceMeters(0, 0, 1, 0)
	require.InDelta(t, 111195, d, 200)

	// Notre-Dame to Sacre-Coeur, about 3.8km.
	d = DistanceMeters(48.8530, 2.3499, 48.8867, 2.3431)
	require.InDelta(t, 3780, d, 100)
}

func TestWithinGeofence(t *testing.T) {
	siteLat, siteLon := 5.3600, -4.0083
	radius := 150.0

	require.True(t, WithinGeofence(siteLat, siteLon, siteLat, siteLon, radius))

	// About 110m north of the site.
	require.True(t, WithinGeofence(siteLat+0.001, siteLon, siteLat, siteLon, radius))

	// About 550m north of the site.
	require.False(t, WithinGeofence(siteLat+0.005, siteLon, siteLat, siteLon, radius))

	// Exactly-on-the-edge positions count as inside.
	d := DistanceMeters(siteLat+0.001, siteLon, siteLat, siteLon)
	require.True(t, WithinGeofence(siteLat+0.001, siteLon, siteLat, siteLon, d))
}
