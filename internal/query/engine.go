package query

import (
	"sort"
	"strings"

	"github.com/afi0204/electric-porta1/internal/db"
)

// StatusAlert is the derived filter value that expands to every alert status.
const StatusAlert = "alert"

// LocationAll is the location filter value meaning "no location filter".
const LocationAll = "All"

// Params holds the filter, sort and pagination parameters of a device listing.
type Params struct {
	Status     string
	Location   string
	SearchTerm string
	SortBy     string
	SortOrder  string
	PageNumber int
	PageSize   int
}

// Page is one page of a filtered, sorted device listing.
type Page struct {
	Items      []db.Device
	PageNumber int
	PageSize   int
	TotalCount int
	TotalPages int
}

// Engine filters, sorts and paginates a point-in-time device snapshot.
type Engine struct {
	defaultPageSize int
	maxPageSize     int
}

// NewEngine creates a query engine with the specified pagination limits.
func NewEngine(defaultPageSize, maxPageSize int) *Engine {
	return &Engine{
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ListDevices applies the params to the snapshot and returns the requested
// page. The snapshot itself is not modified.
func (e *Engine) ListDevices(devices []db.Device, params Params) Page {
	matched := filter(devices, params)

	sort.SliceStable(matched, func(i, j int) bool {
		return compare(&matched[i], &matched[j], params) < 0
	})

	pageNumber := params.PageNumber
	if pageNumber < 1 {
		pageNumber = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = e.defaultPageSize
	}
	if pageSize > e.maxPageSize {
		pageSize = e.maxPageSize
	}

	totalCount := len(matched)
	totalPages := (totalCount + pageSize - 1) / pageSize

	start := (pageNumber - 1) * pageSize
	if start > totalCount {
		start = totalCount
	}
	end := start + pageSize
	if end > totalCount {
		end = totalCount
	}

	return Page{
		Items:      matched[start:end],
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

func filter(devices []db.Device, params Params) []db.Device {
	term := strings.ToLower(params.SearchTerm)

	var matched []db.Device
	for _, device := range devices {
		if params.Status != "" {
			if strings.EqualFold(params.Status, StatusAlert) {
				if !device.Status.IsAlert() {
					continue
				}
			} else if string(device.Status) != params.Status {
				continue
			}
		}
		if params.Location != "" && params.Location != LocationAll &&
			stringValue(device.Location) != params.Location {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(device.Name), term) &&
			!strings.Contains(strings.ToLower(device.DeviceID), term) {
			continue
		}
		matched = append(matched, device)
	}
	return matched
}

// compare is the composite ordering: the requested primary sort first, then
// an alert-promotion tie-break. Alert devices only move ahead of rows they
// are otherwise equal to, this is not an alert-then-primary two-level sort.
func compare(a, b *db.Device, params Params) int {
	if c := primaryCompare(a, b, params); c != 0 {
		return c
	}
	return alertCompare(a, b)
}

func primaryCompare(a, b *db.Device, params Params) int {
	ascending := params.SortOrder == "asc"

	var c int
	switch strings.ToLower(params.SortBy) {
	case "name":
		c = strings.Compare(a.Name, b.Name)
	case "location":
		c = strings.Compare(stringValue(a.Location), stringValue(b.Location))
	default:
		// Default listing: most recently heard-from devices first.
		return compareTimeDesc(a, b)
	}
	if !ascending {
		c = -c
	}
	return c
}

func compareTimeDesc(a, b *db.Device) int {
	at, bt := a.LastReadingTimestamp, b.LastReadingTimestamp
	switch {
	case at == nil && bt == nil:
		return 0
	case at == nil:
		return 1
	case bt == nil:
		return -1
	case at.After(*bt):
		return -1
	case bt.After(*at):
		return 1
	}
	return 0
}

func alertCompare(a, b *db.Device) int {
	aAlert, bAlert := a.Status.IsAlert(), b.Status.IsAlert()
	switch {
	case aAlert && !bAlert:
		return -1
	case bAlert && !aAlert:
		return 1
	}
	return 0
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
