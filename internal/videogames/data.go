package videogames

import (
	"bytes"
	_ "embed"
	"fmt"
	"maps"

	"github.com/aretw0/arcade/pkg/catalog"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ontology"
)

//go:embed data/ontology.json
var ontologyJSON []byte

//go:embed data/vgsales.csv
var sampleCSV []byte

// consoles maps device terms to dataset platform codes.
var consoles = map[string][]string{
	"atari":       {"2600"},
	"playstation": {"PS", "PS2", "PS3", "PS4", "PSP", "PSV"},
	"nintendo":    {"NES", "SNES", "N64", "GC", "Wii", "WiiU", "GB", "GBA", "DS", "3DS"},
	"gameboy":     {"GB", "GBA"},
	"ds":          {"DS", "3DS"},
	"xbox":        {"XB", "X360", "XOne"},
	"pc":          {"PC"},
	"sega":        {"GEN", "SAT", "DC", "SCD", "GG"},
	"genesis":     {"GEN"},
}

var displayNames = map[string]string{
	"atari":       "Atari",
	"playstation": "PlayStation",
	"nintendo":    "Nintendo",
	"gameboy":     "Game Boy",
	"ds":          "Nintendo DS",
	"xbox":        "Xbox",
	"pc":          "PC",
	"sega":        "Sega",
	"genesis":     "Sega Genesis",
}

// OntologyDefinition returns the embedded ontology source.
func OntologyDefinition() []byte {
	return bytes.Clone(ontologyJSON)
}

// Ontology parses the embedded device ontology.
func Ontology() (*ontology.Ontology, error) {
	o, err := ontology.Parse(ontologyJSON)
	if err != nil {
		return nil, fmt.Errorf("embedded ontology: %w", err)
	}
	return o, nil
}

// Consoles returns a copy of the device to platform code table.
func Consoles() map[string][]string {
	out := make(map[string][]string, len(consoles))
	for term, codes := range consoles {
		out[term] = append([]string(nil), codes...)
	}
	return out
}

// DisplayNames returns a copy of how device terms are spelled in utterances.
func DisplayNames() map[string]string {
	return maps.Clone(displayNames)
}

// SampleRecords parses the embedded vgsales sample.
func SampleRecords() ([]domain.GameRecord, error) {
	records, err := catalog.ReadCSV(bytes.NewReader(sampleCSV))
	if err != nil {
		return nil, fmt.Errorf("embedded dataset: %w", err)
	}
	return records, nil
}

// SampleCatalog indexes the embedded vgsales sample.
func SampleCatalog() (*catalog.Memory, error) {
	records, err := SampleRecords()
	if err != nil {
		return nil, err
	}
	return catalog.NewMemory(records), nil
}
