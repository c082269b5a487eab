package geoweather

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// AdminDivision represents a first-level administrative division (state, province, etc.)
type AdminDivision struct {
	Country string // ISO alpha-2 country code (e.g., "US")
	Code    string // Admin1 code (e.g., "TX", "08")
	Name    string // Uppercase ASCII name (e.g., "TEXAS", "ONTARIO")
}

// adminDivisions indexes admin1CodesASCII.txt by country/code and by name.
type adminDivisions struct {
	byCountry map[string]map[string]AdminDivision // country -> code -> division
	byName    map[string][]AdminDivision          // uppercase name -> divisions
}

// loadAdminDivisions loads admin1 codes from a Geonames admin1CodesASCII.txt file.
// Format: CC.CODE<tab>Name<tab>AsciiName<tab>GeonameId
func loadAdminDivisions(path string) (*adminDivisions, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening admin divisions: %w", err)
	}
	defer fi.Close()

	ad := &adminDivisions{
		byCountry: make(map[string]map[string]AdminDivision),
		byName:    make(map[string][]AdminDivision),
	}

	scanner := bufio.NewScanner(fi)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}

		parts := strings.SplitN(fields[0], ".", 2)
		if len(parts) != 2 {
			continue
		}

		div := AdminDivision{
			Country: toUpper(parts[0]),
			Code:    toUpper(parts[1]),
			Name:    toUpper(strings.TrimSpace(fields[2])),
		}

		if ad.byCountry[div.Country] == nil {
			ad.byCountry[div.Country] = make(map[string]AdminDivision)
		}
		ad.byCountry[div.Country][div.Code] = div
		if div.Name != "" {
			ad.byName[div.Name] = append(ad.byName[div.Name], div)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading admin divisions: %w", err)
	}
	return ad, nil
}

// countryByName returns the country of a division name when exactly one
// country has a division with that name. Ambiguous names return "".
func (ad *adminDivisions) countryByName(name string) string {
	if ad == nil {
		return ""
	}
	divs := ad.byName[toUpper(name)]
	if len(divs) == 0 {
		return ""
	}
	country := divs[0].Country
	for _, d := range divs[1:] {
		if d.Country != country {
			return ""
		}
	}
	return country
}

// count returns the number of loaded divisions.
func (ad *adminDivisions) count() int {
	if ad == nil {
		return 0
	}
	n := 0
	for _, divs := range ad.byCountry {
		n += len(divs)
	}
	return n
}
