package domain

import "fmt"

// GameRecord is one row of the video game sales dataset.
// Sales figures are in millions of units.
type GameRecord struct {
	Rank        int     `json:"rank" msgpack:"rank"`
	Name        string  `json:"name" msgpack:"name"`
	Platform    string  `json:"platform" msgpack:"platform"`
	Year        int     `json:"year,omitempty" msgpack:"year"`
	Genre       string  `json:"genre" msgpack:"genre"`
	Publisher   string  `json:"publisher,omitempty" msgpack:"publisher"`
	NASales     float64 `json:"na_sales" msgpack:"na_sales"`
	EUSales     float64 `json:"eu_sales" msgpack:"eu_sales"`
	JPSales     float64 `json:"jp_sales" msgpack:"jp_sales"`
	OtherSales  float64 `json:"other_sales" msgpack:"other_sales"`
	GlobalSales float64 `json:"global_sales" msgpack:"global_sales"`
}

// String returns the title, which is how a record reads inside an utterance.
func (r GameRecord) String() string {
	return r.Name
}

// Describe returns a short human readable summary of the record.
func (r GameRecord) Describe() string {
	if r.Year > 0 {
		return fmt.Sprintf("%s (%s, %d)", r.Name, r.Platform, r.Year)
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Platform)
}
