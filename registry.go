package geoweather

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

// DataSourceID identifies a data source type.
type DataSourceID string

const (
	DataSourceGeonamesCountry DataSourceID = "geonamesCountryInfo"
	DataSourceGeonamesAdmin1  DataSourceID = "geonamesAdmin1Codes"
)

// DataSource defines a downloadable data source for the registry.
type DataSource struct {
	URL  string       // Download URL
	File string       // File name inside the data directory
	ID   DataSourceID // Identifier for processing logic
}

// dataSetFiles defines the Geonames tables the registry can be rebuilt from.
var dataSetFiles = []DataSource{
	{URL: "https://download.geonames.org/export/dump/countryInfo.txt", File: "countryInfo.txt", ID: DataSourceGeonamesCountry},
	{URL: "https://download.geonames.org/export/dump/admin1CodesASCII.txt", File: "admin1CodesASCII.txt", ID: DataSourceGeonamesAdmin1},
}

// registryDumpFile is the gob dump written by RegenerateRegistry.
const registryDumpFile = "countries.dmp"

// CanonicalLocation is an authoritative (name, country code) pair.
// Name is uppercase; Code is an ISO 3166-1 alpha-2 code.
type CanonicalLocation struct {
	Name string
	Code string
}

// CountryInfo contains metadata about a country from Geonames.
type CountryInfo struct {
	Country    string
	Capital    string
	Area       int32
	Population int32
	GeonameId  int32
	ISONumeric int16
	ISO        string
	ISO3       string
	Continent  string
	Tld        string
	Languages  string
	Neighbours string
}

// Registry is the read-only canonical location set, loaded once at startup.
type Registry struct {
	Countries []CountryInfo // Country metadata in load order

	locations []CanonicalLocation
	byName    map[string]string // uppercase name -> code
	codes     map[string]bool
	admin     *adminDivisions
	source    string
}

// NewRegistry loads the canonical registry.
//
// Sources are tried in order: the gob dump in RegistryDir (written by
// RegenerateRegistry), the raw Geonames countryInfo.txt in DataDir, and
// finally the ISO 3166 table compiled into github.com/biter777/countries.
// Admin-1 division names are loaded from DataDir when present.
func NewRegistry(opts ...Option) (*Registry, error) {
	cfg := newConfig(opts)
	log := cfg.Logger

	var (
		infos  []CountryInfo
		source string
	)

	dump := filepath.Join(cfg.RegistryDir, registryDumpFile)
	if co, err := loadRegistryDump(dump); err == nil && len(co) > 0 {
		infos, source = co, dump
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("registry dump unreadable, falling back", zap.String("path", dump), zap.Error(err))
	}

	if infos == nil {
		path := filepath.Join(cfg.DataDir, "countryInfo.txt")
		if co, err := loadGeonamesCountryInfo(path); err == nil && len(co) > 0 {
			infos, source = co, path
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("geonames country table unreadable, falling back", zap.String("path", path), zap.Error(err))
		}
	}

	if infos == nil {
		infos, source = builtinCountries(), "builtin"
	}

	r := newRegistry(infos)
	r.source = source

	admin, err := loadAdminDivisions(filepath.Join(cfg.DataDir, "admin1CodesASCII.txt"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("admin divisions not loaded", zap.Error(err))
	}
	r.admin = admin

	if r.Len() == 0 {
		return nil, fmt.Errorf("registry from %s has no countries", source)
	}
	log.Debug("registry loaded", zap.String("source", source), zap.Int("locations", r.Len()))
	return r, nil
}

// NewRegistryFromLocations builds a registry over a fixed location set.
// Names are uppercased; order is preserved and decides matcher tie-breaks.
func NewRegistryFromLocations(locs []CanonicalLocation) *Registry {
	infos := make([]CountryInfo, 0, len(locs))
	for _, l := range locs {
		infos = append(infos, CountryInfo{Country: l.Name, ISO: l.Code})
	}
	r := newRegistry(infos)
	r.source = "static"
	return r
}

func newRegistry(infos []CountryInfo) *Registry {
	r := &Registry{
		Countries: infos,
		locations: make([]CanonicalLocation, 0, len(infos)),
		byName:    make(map[string]string, len(infos)),
		codes:     make(map[string]bool, len(infos)),
	}
	for _, ci := range infos {
		name := toUpper(strings.TrimSpace(ci.Country))
		code := toUpper(strings.TrimSpace(ci.ISO))
		if name == "" || len(code) != 2 {
			continue
		}
		if _, dup := r.byName[name]; dup {
			continue
		}
		r.byName[name] = code
		r.codes[code] = true
		r.locations = append(r.locations, CanonicalLocation{Name: name, Code: code})
	}
	return r
}

// builtinCountries returns the ISO 3166 table shipped with biter777/countries.
func builtinCountries() []CountryInfo {
	all := countries.All()
	infos := make([]CountryInfo, 0, len(all))
	for _, c := range all {
		if c == countries.Unknown {
			continue
		}
		infos = append(infos, CountryInfo{
			Country:    c.Info().Name,
			ISO:        c.Alpha2(),
			ISO3:       c.Alpha3(),
			ISONumeric: int16(c),
		})
	}
	return infos
}

// Locations returns a copy of the canonical set in enumeration order.
func (r *Registry) Locations() []CanonicalLocation {
	out := make([]CanonicalLocation, len(r.locations))
	copy(out, r.locations)
	return out
}

// Len returns the number of canonical locations.
func (r *Registry) Len() int {
	return len(r.locations)
}

// Source reports where the registry was loaded from.
func (r *Registry) Source() string {
	return r.source
}

// CountryCode returns the alpha-2 code for a canonical name, a known alpha-2
// code, or an unambiguous admin-1 division name ("TEXAS" -> "US").
func (r *Registry) CountryCode(name string) (string, bool) {
	n := toUpper(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	if code, ok := r.byName[n]; ok {
		return code, true
	}
	if len(n) == 2 && r.codes[n] {
		return n, true
	}
	if code := r.admin.countryByName(n); code != "" {
		return code, true
	}
	return "", false
}

// RegenerateRegistry downloads any missing Geonames files into DataDir,
// parses them and writes the registry dump into RegistryDir.
//
// After running, the dump may be compressed with bzip2; NewRegistry reads
// countries.dmp.bz2 before countries.dmp.
func RegenerateRegistry(ctx context.Context, opts ...Option) error {
	cfg := newConfig(opts)

	if err := downloadDataSets(ctx, cfg); err != nil {
		return fmt.Errorf("failed to download data sets: %w", err)
	}

	infos, err := loadGeonamesCountryInfo(filepath.Join(cfg.DataDir, "countryInfo.txt"))
	if err != nil {
		return fmt.Errorf("failed to load country info: %w", err)
	}
	if len(infos) < minCountryCount {
		return fmt.Errorf("country count too low: got %d, want >= %d", len(infos), minCountryCount)
	}

	if err := storeRegistryDump(cfg.RegistryDir, infos); err != nil {
		return fmt.Errorf("failed to store registry: %w", err)
	}
	cfg.Logger.Info("registry regenerated", zap.Int("countries", len(infos)), zap.String("dir", cfg.RegistryDir))
	return nil
}

// minCountryCount is the smallest plausible Geonames country table.
const minCountryCount = 200

// knownCountries are looked up after a rebuild; each must resolve exactly.
var knownCountries = []CanonicalLocation{
	{Name: "FRANCE", Code: "FR"},
	{Name: "GERMANY", Code: "DE"},
	{Name: "JAPAN", Code: "JP"},
	{Name: "AUSTRALIA", Code: "AU"},
	{Name: "BRAZIL", Code: "BR"},
}

// ValidateRegistry checks that r is large enough and that well-known
// countries both map to their codes and win an exact fuzzy match.
func ValidateRegistry(r *Registry) error {
	if r.Len() < minCountryCount {
		return fmt.Errorf("country count too low: got %d, want >= %d", r.Len(), minCountryCount)
	}

	locs := r.Locations()
	for _, want := range knownCountries {
		code, ok := r.CountryCode(want.Name)
		if !ok || code != want.Code {
			return fmt.Errorf("country code for %q = %q, want %q", want.Name, code, want.Code)
		}
		got := Match(want.Name, locs, 1)
		if len(got) != 1 || got[0].Name != want.Name {
			return fmt.Errorf("match(%q) = %v, want exact match", want.Name, got)
		}
	}
	return nil
}

// downloadDataSets downloads the raw data files if they don't exist locally.
func downloadDataSets(ctx context.Context, cfg *Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	for _, f := range dataSetFiles {
		localPath := filepath.Join(cfg.DataDir, f.File)
		if _, err := os.Stat(localPath); err == nil {
			continue
		}
		err := retry.Do(
			func() error {
				return downloadFile(ctx, f.URL, localPath)
			},
			retry.Context(ctx),
			retry.Attempts(3),
			retry.Delay(time.Second),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				cfg.Logger.Warn("download failed, retrying",
					zap.String("source", string(f.ID)), zap.Uint("attempt", n+1), zap.Error(err))
			}),
		)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", f.ID, err)
		}
	}
	return nil
}

// httpClient is a shared HTTP client with reasonable timeouts.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

func downloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("building request for %s: %w", url, err))
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError {
			return retry.Unrecoverable(err)
		}
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("creating file %s: %w", path, err))
	}

	// Remove partial files on any failure below.
	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(path)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	success = true
	return nil
}

// loadGeonamesCountryInfo parses Geonames countryInfo.txt (tab separated,
// '#' comment lines).
func loadGeonamesCountryInfo(path string) ([]CountryInfo, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer fi.Close()

	var infos []CountryInfo
	scanner := bufio.NewScanner(fi)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		t := scanner.Text()
		if len(t) == 0 || t[0] == '#' {
			continue
		}

		fields := strings.SplitN(t, "\t", 19)
		if len(fields) != 19 || fields[0] == "" || fields[0] == "0" {
			continue
		}

		isoNumeric, _ := strconv.Atoi(fields[2])
		area, _ := strconv.ParseFloat(fields[6], 64)
		pop, _ := strconv.Atoi(fields[7])
		gid, _ := strconv.Atoi(fields[16])

		infos = append(infos, CountryInfo{
			ISO:        fields[0],
			ISO3:       fields[1],
			ISONumeric: int16(isoNumeric),
			Country:    fields[4],
			Capital:    fields[5],
			Area:       int32(area),
			Population: int32(pop),
			Continent:  fields[8],
			Tld:        fields[9],
			Languages:  fields[15],
			GeonameId:  int32(gid),
			Neighbours: fields[17],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return infos, nil
}

// storeRegistryDump writes the country table as a gob dump.
func storeRegistryDump(dir string, infos []CountryInfo) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	b := new(bytes.Buffer)
	if err := gob.NewEncoder(b).Encode(infos); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, registryDumpFile), b.Bytes(), 0644)
}

func openOptionallyBzippedFile(file string) (io.Reader, func() error, error) {
	fh, err := os.Open(file + ".bz2")
	if err != nil {
		fh, err = os.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", file, err)
		}
		return fh, fh.Close, nil
	}
	return bzip2.NewReader(fh), fh.Close, nil
}

func loadRegistryDump(path string) ([]CountryInfo, error) {
	fh, cleanup, err := openOptionallyBzippedFile(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var co []CountryInfo
	if err := gob.NewDecoder(fh).Decode(&co); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return co, nil
}

// toUpper converts a string to uppercase using the standard library, which
// handles the non-ASCII country names found in Geonames.
func toUpper(s string) string {
	return strings.ToUpper(s)
}

// DivisionCount returns the number of admin-1 divisions loaded from DataDir.
func (r *Registry) DivisionCount() int {
	return r.admin.count()
}
