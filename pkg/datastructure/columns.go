package datastructure

// canonical column names of the feature table, shared between the enrichment
// stages and the resampler policy map
const (
	ColLatitude          = "latitude"
	ColLongitude         = "longitude"
	ColSpeedOsrm         = "speed_osrm"
	ColWayID             = "way_id"
	ColNodeID            = "node_id"
	ColOriginalLatitude  = "original_latitude"
	ColOriginalLongitude = "original_longitude"
	ColMatchDistance     = "match_distance"
	ColTimestamp         = "timestamp"
	ColWayType           = "way_type"
	ColWayMaxSpeed       = "way_maxspeed"
	ColWaySurface        = "way_surface"
	ColNodeHighway       = "node:highway"
	ColNodeRailway       = "node:railway"
	ColNodeCrossing      = "node:crossing"
	ColNodeDirection     = "node:direction"
	ColNodeStop          = "node:stop"
	ColIntersection      = "intersection"
	ColElevation         = "elevation"
)
