package pkg

const (
	// MAP_MATCH_CONFIDENCE reasonable precision while matching route to the map
	MAP_MATCH_CONFIDENCE = 0.8

	// OSRM_LOCATION_LIMIT maximum number of coordinates osrm accepts in one match request
	OSRM_LOCATION_LIMIT = 20000

	// ELEVATION_BATCH_LIMIT open-elevation POST lookup caps location count per request
	ELEVATION_BATCH_LIMIT = 2000

	// NODE_TAG_CACHE_CAPACITY process-wide memoized overpass node responses
	NODE_TAG_CACHE_CAPACITY = 10000
)

const (
	ONE_METER = 1.0

	// WAYPOINT_DEDUP_THRESHOLD_METER consecutive matched waypoints closer than this are the same point
	WAYPOINT_DEDUP_THRESHOLD_METER = 0.0001

	// SPEED_SMOOTHING_WINDOW_METER centered window for the distance-weighted speed moving average
	SPEED_SMOOTHING_WINDOW_METER = 100.0

	// COORD_MATCH_TOLERANCE_DEGREE |dlat|+|dlon| tolerance when binding originals to waypoints
	COORD_MATCH_TOLERANCE_DEGREE = 0.0000001

	// CDIST_RATIO_THRESHOLD relative cumulative-distance difference accepted as the same lap of a loop
	CDIST_RATIO_THRESHOLD = 0.05

	// NODE_BIND_TOLERANCE_DEGREE tolerance buffer around a waypoint when binding osm nodes, roughly 13 cm
	NODE_BIND_TOLERANCE_DEGREE = 1.2e-6
)

const (
	// UNMATCHED_WARN_FRACTION more unmatched tracepoints than this is reported to the caller
	UNMATCHED_WARN_FRACTION = 0.02

	// DOWNSAMPLE_WARN_PERCENT more points dropped by the down-sampler than this is reported to the caller
	DOWNSAMPLE_WARN_PERCENT = 10.0
)

const (
	SPEED_KM_H = 3.6 // m/s to km/h
)
