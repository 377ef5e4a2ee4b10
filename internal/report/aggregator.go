// Package report turns reading history into per-device consumption report
// items with daily series. Calendar days are UTC days: readings are stamped
// in UTC at ingestion and the daily buckets strip the UTC time of day.
package report

import (
	"sort"
	"time"
)

// Reading is one consumption fact joined with its device, the aggregator's
// input row.
type Reading struct {
	DeviceID    string
	DeviceName  string
	Location    *string
	Timestamp   time.Time
	Consumption int64
}

// DailyConsumption is one calendar-day bucket of a device's report item.
type DailyConsumption struct {
	Date        time.Time
	Consumption int64
}

// Item is the per-device report entry.
type Item struct {
	DeviceID         string
	DeviceName       string
	Location         *string
	TotalConsumption int64
	DailyConsumption []DailyConsumption
}

// Aggregate groups readings by device, sums consumption and builds the
// ascending daily series per device. Items are ordered by total consumption,
// highest first.
func Aggregate(readings []Reading) []Item {
	type group struct {
		item  Item
		daily map[time.Time]int64
	}

	groups := make(map[string]*group)
	var order []string

	for _, reading := range readings {
		g, ok := groups[reading.DeviceID]
		if !ok {
			g = &group{
				item: Item{
					DeviceID:   reading.DeviceID,
					DeviceName: reading.DeviceName,
					Location:   reading.Location,
				},
				daily: make(map[time.Time]int64),
			}
			groups[reading.DeviceID] = g
			order = append(order, reading.DeviceID)
		}

		g.item.TotalConsumption += reading.Consumption
		day := truncateToDay(reading.Timestamp)
		g.daily[day] += reading.Consumption
	}

	items := make([]Item, 0, len(order))
	for _, deviceID := range order {
		g := groups[deviceID]

		days := make([]time.Time, 0, len(g.daily))
		for day := range g.daily {
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		g.item.DailyConsumption = make([]DailyConsumption, 0, len(days))
		for _, day := range days {
			g.item.DailyConsumption = append(g.item.DailyConsumption, DailyConsumption{
				Date:        day,
				Consumption: g.daily[day],
			})
		}
		items = append(items, g.item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TotalConsumption > items[j].TotalConsumption
	})

	return items
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
