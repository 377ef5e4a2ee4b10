package report_test

import (
	"testing"
	"time"

	"github.com/afi0204/electric-porta1/internal/report"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, 5, d, hour, 0, 0, 0, time.UTC)
}

func testReadings() []report.Reading {
	return []report.Reading{
		{DeviceID: "MTR-1", DeviceName: "Bakery Meter", Timestamp: day(2, 9), Consumption: 40},
		{DeviceID: "MTR-1", DeviceName: "Bakery Meter", Timestamp: day(1, 8), Consumption: 10},
		{DeviceID: "MTR-2", DeviceName: "Office Meter", Timestamp: day(1, 10), Consumption: 500},
		{DeviceID: "MTR-1", DeviceName: "Bakery Meter", Timestamp: day(1, 23), Consumption: 20},
		{DeviceID: "MTR-2", DeviceName: "Office Meter", Timestamp: day(3, 4), Consumption: 100},
	}
}

func TestAggregate_GroupsByDevice(t *testing.T) {
	items := report.Aggregate(testReadings())

	if len(items) != 2 {
		t.Fatalf("Expected 2 report items, got %d", len(items))
	}
}

func TestAggregate_OrderedByTotalDescending(t *testing.T) {
	items := report.Aggregate(testReadings())

	if items[0].DeviceID != "MTR-2" || items[0].TotalConsumption != 600 {
		t.Errorf("Expected MTR-2 with total 600 first, got %s with %d", items[0].DeviceID, items[0].TotalConsumption)
	}
	if items[1].DeviceID != "MTR-1" || items[1].TotalConsumption != 70 {
		t.Errorf("Expected MTR-1 with total 70 second, got %s with %d", items[1].DeviceID, items[1].TotalConsumption)
	}
}

func TestAggregate_DailySeriesAscendingAndSummed(t *testing.T) {
	items := report.Aggregate(testReadings())

	var bakery report.Item
	for _, item := range items {
		if item.DeviceID == "MTR-1" {
			bakery = item
		}
	}

	if len(bakery.DailyConsumption) != 2 {
		t.Fatalf("Expected 2 daily buckets for MTR-1, got %d", len(bakery.DailyConsumption))
	}
	if !bakery.DailyConsumption[0].Date.Equal(day(1, 0)) || bakery.DailyConsumption[0].Consumption != 30 {
		t.Errorf("Expected day 1 bucket of 30, got %v = %d",
			bakery.DailyConsumption[0].Date, bakery.DailyConsumption[0].Consumption)
	}
	if !bakery.DailyConsumption[1].Date.Equal(day(2, 0)) || bakery.DailyConsumption[1].Consumption != 40 {
		t.Errorf("Expected day 2 bucket of 40, got %v = %d",
			bakery.DailyConsumption[1].Date, bakery.DailyConsumption[1].Consumption)
	}
	for i := 1; i < len(bakery.DailyConsumption); i++ {
		if !bakery.DailyConsumption[i-1].Date.Before(bakery.DailyConsumption[i].Date) {
			t.Error("Expected daily buckets strictly ascending by date")
		}
	}
}

func TestAggregate_TotalEqualsSumOfDailyBuckets(t *testing.T) {
	for _, item := range report.Aggregate(testReadings()) {
		var sum int64
		for _, daily := range item.DailyConsumption {
			sum += daily.Consumption
		}
		if sum != item.TotalConsumption {
			t.Errorf("Device %s: total %d != sum of daily buckets %d", item.DeviceID, item.TotalConsumption, sum)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	if items := report.Aggregate(nil); len(items) != 0 {
		t.Errorf("Expected no items for empty input, got %d", len(items))
	}
}
