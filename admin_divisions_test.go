package geoweather

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const admin1Fixture = `US.TX	Texas	Texas	4736286
US.CA	California	California	5332921
CA.08	Ontario	Ontario	6093943
AU.02	New South Wales	New South Wales	2155400
MX.05	Coahuila	Coahuila	4013674
DE.07	Nordrhein-Westfalen	North Rhine-Westphalia	2861876
BR.11	Mato Grosso do Sul	Mato Grosso do Sul	3457415
US.GA	Georgia	Georgia	4197000
malformed line
XX	missing code	x	1
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAdminDivisions(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "admin1CodesASCII.txt", admin1Fixture)

	ad, err := loadAdminDivisions(path)
	if err != nil {
		t.Fatalf("loadAdminDivisions error: %v", err)
	}
	if got := ad.count(); got != 8 {
		t.Errorf("count() = %d, want 8", got)
	}

	// Check Texas exists
	if d, ok := ad.byCountry["US"]["TX"]; !ok || d.Name != "TEXAS" {
		t.Errorf("US.TX = %+v, %v", d, ok)
	}

	// Check Ontario exists (code 08)
	if _, ok := ad.byCountry["CA"]["08"]; !ok {
		t.Error("Ontario (08) not found in Canada divisions")
	}

	// The ASCII name column is indexed, not the localized one.
	if _, ok := ad.byName["NORTH RHINE-WESTPHALIA"]; !ok {
		t.Error("North Rhine-Westphalia not indexed by ASCII name")
	}
}

func TestLoadAdminDivisions_InvalidPath(t *testing.T) {
	if _, err := loadAdminDivisions("/nonexistent/admin1CodesASCII.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestAdminDivisionCountryByName(t *testing.T) {
	fixture := admin1Fixture + "GE.51	Georgia	Georgia	0\n"
	path := writeFixture(t, t.TempDir(), "admin1CodesASCII.txt", fixture)
	ad, err := loadAdminDivisions(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		wantCountry string
	}{
		{"TEXAS", "US"},
		{"texas", "US"},
		{"ONTARIO", "CA"},
		{"New South Wales", "AU"},
		{"GEORGIA", ""}, // US state and a division named after the country
		{"ATLANTIS", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ad.countryByName(tc.name); got != tc.wantCountry {
				t.Errorf("countryByName(%q) = %q, want %q", tc.name, got, tc.wantCountry)
			}
		})
	}
}

func TestAdminDivisions_NilSafe(t *testing.T) {
	var ad *adminDivisions
	if ad.count() != 0 {
		t.Error("nil count() should be 0")
	}
	if ad.countryByName("TEXAS") != "" {
		t.Error("nil countryByName() should be empty")
	}
}

func TestAdminDivisions_UppercaseCodes(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "a.txt", "GB.eng	England	England	6269131\n")
	ad, err := loadAdminDivisions(path)
	if err != nil {
		t.Fatal(err)
	}
	for code := range ad.byCountry["GB"] {
		if code != strings.ToUpper(code) {
			t.Errorf("code %q not uppercased", code)
		}
	}
}
