package entity

// Airline is reference data for an IATA carrier code
type Airline struct {
	ID   uint
	Code string
	Name string
}
