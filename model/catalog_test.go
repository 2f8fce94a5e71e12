package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordValidation(t *testing.T) {
	tests := []struct {
		description string
		record      Record
		expected    string
	}{
		{description: "bus", record: &Bus{Travel: "Orange", Registration: "MH12", TotalSeat: 40}},
		{description: "bus without seats", record: &Bus{Travel: "Orange", Registration: "MH12"}, expected: "totalSeat must be at least 1"},
		{description: "bus with blank travel", record: &Bus{Travel: " ", Registration: "MH12", TotalSeat: 40}, expected: "travel is required"},
		{description: "route", record: &BusRoute{Route: "Pune-Mumbai", RouteNo: "R1", Distance: 150}},
		{description: "route with negative distance", record: &BusRoute{Route: "Pune-Mumbai", RouteNo: "R1", Distance: -1}, expected: "distance must be at least 0"},
		{description: "trip", record: &BusTrip{RouteId: "r", BusId: "b", Date: "2024-05-01", Fare: 500}},
		{description: "trip without bus", record: &BusTrip{RouteId: "r", Date: "2024-05-01"}, expected: "busId is required"},
		{description: "trip with bad date", record: &BusTrip{RouteId: "r", BusId: "b", Date: "May 1"}, expected: "date must be a date formatted as 2006-01-02"},
		{description: "trip with negative fare", record: &BusTrip{RouteId: "r", BusId: "b", Date: "2024-05-01", Fare: -5}, expected: "fare must be at least 0"},
		{description: "city", record: &City{Name: "Pune"}},
		{description: "city without name", record: &City{}, expected: "name is required"},
	}

	for _, test := range tests {
		err := test.record.Validate()
		if test.expected == "" {
			assert.NoErrorf(t, err, test.description)
			continue
		}
		assert.EqualErrorf(t, err, test.expected, test.description)
	}
}
