package henex

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// filenameRe matches the published result workbooks, e.g.
// 20240616_EL-IDA1_Results_EN_v01.xlsx or 20240616_EL-DAM_Results_EN_v01.xlsx.
var filenameRe = regexp.MustCompile(`^(\d{8})_EL-(DAM|IDA[123])_Results_EN_v(\d+)\.xlsx$`)

// FileInfo is the metadata encoded in a result workbook filename.
type FileInfo struct {
	Name    string
	Date    time.Time // Delivery date
	Market  string    // "DAM", "IDA1", "IDA2" or "IDA3"
	Version int       // Publication version
}

// ParseFilename extracts the delivery date, market and version from a result
// filename. It reports false when the name does not follow the published
// naming scheme.
func ParseFilename(name string) (FileInfo, bool) {
	base := path.Base(name)
	m := filenameRe.FindStringSubmatch(base)
	if m == nil {
		return FileInfo{}, false
	}

	date, err := time.Parse("20060102", m[1])
	if err != nil {
		return FileInfo{}, false
	}
	version, err := strconv.Atoi(m[3])
	if err != nil {
		return FileInfo{}, false
	}

	return FileInfo{
		Name:    base,
		Date:    date,
		Market:  m[2],
		Version: version,
	}, true
}

// filenameFromURL returns the basename of a download URL without its query.
func filenameFromURL(u string) string {
	trimmed := u
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return path.Base(trimmed)
}
