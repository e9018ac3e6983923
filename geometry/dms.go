package geometry

import (
	"strconv"

	"github.com/teranos/geodex/errors"
)

// DMSToDD converts a NITF IGEOLO-style DMS coordinate string
// ("ddmmssXdddmmssY", e.g. "324853N1170812W") to decimal degrees.
func DMSToDD(coords string) (lat, lon float64, err error) {
	if len(coords) < 15 {
		return 0, 0, errors.Newf("DMS string too short: %q", coords)
	}

	latD, err1 := strconv.Atoi(coords[0:2])
	latM, err2 := strconv.Atoi(coords[2:4])
	latS, err3 := strconv.Atoi(coords[4:6])
	latDir := coords[6]

	lonD, err4 := strconv.Atoi(coords[7:10])
	lonM, err5 := strconv.Atoi(coords[10:12])
	lonS, err6 := strconv.Atoi(coords[12:14])
	lonDir := coords[14]

	for _, e := range []error{err1, err2, err3, err4, err5, err6} {
		if e != nil {
			return 0, 0, errors.Wrapf(e, "malformed DMS string %q", coords)
		}
	}

	lat = float64(latD) + float64(latM)/60 + float64(latS)/3600
	lon = float64(lonD) + float64(lonM)/60 + float64(lonS)/3600
	if latDir == 'S' {
		lat = -lat
	}
	if lonDir == 'W' {
		lon = -lon
	}

	return lat, lon, nil
}
