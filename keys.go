package gribgo

// Edition-independent header keys, as documented in the ecCodes namespaces:
// https://software.ecmwf.int/wiki/display/ECC/GRIB%3A+Namespaces

// DefaultGlobalAttributeKeys are enforced to be constant across every record
// of a stream and become dataset attributes.
var DefaultGlobalAttributeKeys = []string{"edition", "centre", "centreDescription"}

// DefaultVariableAttributeKeys are enforced to be constant across the records
// of one parameter and become variable attributes.
//
// NOTE: 'dataType' may have multiple values for the same variable, e.g.
// analysis and forecast records mixed in one stream, so it is not enforced.
var DefaultVariableAttributeKeys = []string{
	"paramId", "shortName", "units", "name", "cfName", "missingValue",
}

// spatialAttributeKeys describe the horizontal grid common to all grid types.
var spatialAttributeKeys = []string{"gridType", "numberOfPoints"}

// gridTypeMap selects the geometry attribute keys enforced per grid type.
// Unknown grid types enforce nothing.
var gridTypeMap = map[string][]string{
	"regular_ll": {
		"Ni", "iDirectionIncrementInDegrees", "iScansNegatively",
		"longitudeOfFirstGridPointInDegrees", "longitudeOfLastGridPointInDegrees",
		"Nj", "jDirectionIncrementInDegrees", "jPointsAreConsecutive", "jScansPositively",
		"latitudeOfFirstGridPointInDegrees", "latitudeOfLastGridPointInDegrees",
	},
	"reduced_ll": {
		"Nj", "jDirectionIncrementInDegrees", "jPointsAreConsecutive", "jScansPositively",
		"latitudeOfFirstGridPointInDegrees", "latitudeOfLastGridPointInDegrees",
		"pl",
	},
	"regular_gg": {
		"Ni", "iDirectionIncrementInDegrees", "iScansNegatively",
		"longitudeOfFirstGridPointInDegrees", "longitudeOfLastGridPointInDegrees",
		"N",
	},
	"lambert": {
		"LaDInDegrees", "LoVInDegrees", "iScansNegatively",
		"jPointsAreConsecutive", "jScansPositively",
		"latitudeOfFirstGridPointInDegrees", "latitudeOfSouthernPoleInDegrees",
		"longitudeOfFirstGridPointInDegrees", "longitudeOfSouthernPoleInDegrees",
		"DyInMetres", "DxInMetres", "Latin2InDegrees", "Latin1InDegrees", "Ny", "Nx",
	},
	"reduced_gg": {"N", "pl"},
	"sh":         {"M", "K", "J"},
}

// headerCoordinate is one declared coordinate axis with the attribute keys
// that must be record-invariant along it.
type headerCoordinate struct {
	key      string
	attrKeys []string
}

// headerCoordinates is the fixed, ordered list of coordinate axes.
// The order is the dimension order of assembled variables.
//
// NOTE: no support for mixed 'isobaricInPa' / 'isobaricInhPa' levels.
var headerCoordinates = []headerCoordinate{
	{key: "number", attrKeys: []string{"totalNumber"}},
	{key: "dataDate"},
	{key: "dataTime"},
	{key: "endStep", attrKeys: []string{"stepUnits", "stepType"}},
	{key: "topLevel", attrKeys: []string{"typeOfLevel"}},
}

// GridTypeKeys returns the geometry attribute keys for a grid type.
// Unknown grid types return nil.
func GridTypeKeys(gridType string) []string {
	return gridTypeMap[gridType]
}

// AllKeys returns the full default index schema: global and variable
// attribute keys, spatial and grid geometry keys, and the header coordinate
// keys with their associated attribute keys.
func AllKeys() []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(ks ...string) {
		for _, k := range ks {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	add(DefaultGlobalAttributeKeys...)
	add(DefaultVariableAttributeKeys...)
	add(spatialAttributeKeys...)
	for _, gridKeys := range gridTypeMap {
		add(gridKeys...)
	}
	for _, hc := range headerCoordinates {
		add(hc.key)
		add(hc.attrKeys...)
	}
	return keys
}
