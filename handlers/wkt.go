package handlers

import (
	"regexp"
	"strconv"
)

// EPSG authority references in WKT1 (AUTHORITY["EPSG","4326"]) and
// WKT2 (ID["EPSG",4326]) form.
var (
	wkt1AuthorityRe = regexp.MustCompile(`AUTHORITY\[\s*"EPSG"\s*,\s*"(\d+)"\s*\]`)
	wkt2IDRe        = regexp.MustCompile(`ID\[\s*"EPSG"\s*,\s*(\d+)\s*\]`)
)

// epsgFromWKT extracts the EPSG code of the whole CRS from a WKT string.
// The last authority reference wins: earlier ones belong to nested nodes
// (datum, spheroid, axes) rather than the coordinate system itself.
func epsgFromWKT(wkt string) (int, bool) {
	var last string
	for _, m := range wkt1AuthorityRe.FindAllStringSubmatch(wkt, -1) {
		last = m[1]
	}
	for _, m := range wkt2IDRe.FindAllStringSubmatch(wkt, -1) {
		last = m[1]
	}
	if last == "" {
		return 0, false
	}
	code, err := strconv.Atoi(last)
	if err != nil || code <= 0 {
		return 0, false
	}
	return code, true
}
