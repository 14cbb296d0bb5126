package spatialite

import "strings"

// CRSFromPRJ returns the name of the outermost coordinate system in an ESRI
// .prj WKT string, e.g. "WGS_1984_UTM_Zone_32N" for PROJCS["WGS_1984_UTM_Zone_32N",...].
func CRSFromPRJ(wkt string) string {
	wkt = strings.TrimSpace(wkt)
	for _, keyword := range []string{"PROJCS", "GEOGCS", "COMPD_CS", "GEOCCS"} {
		if !strings.HasPrefix(strings.ToUpper(wkt), keyword) {
			continue
		}
		rest := strings.TrimSpace(wkt[len(keyword):])
		if len(rest) == 0 || (rest[0] != '[' && rest[0] != '(') {
			return ""
		}
		rest = strings.TrimSpace(rest[1:])
		if !strings.HasPrefix(rest, `"`) {
			return ""
		}
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return ""
		}
		return rest[1 : end+1]
	}
	return ""
}
