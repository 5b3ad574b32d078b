package entity

import "time"

// AirportInfo is reference data for an IATA airport code
type AirportInfo struct {
	ID          uint
	AirportCode string
	AirportName string
	CityCode    string
	CityName    string
	GmtTz       string
	TzName      string
}

// Location loads the airport's IANA zone, nil when unknown
func (a *AirportInfo) Location() *time.Location {
	if a == nil || a.TzName == "" {
		return nil
	}
	loc, err := time.LoadLocation(a.TzName)
	if err != nil {
		return nil
	}
	return loc
}
