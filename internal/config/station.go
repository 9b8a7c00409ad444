package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// LoadStation reads station metadata from a TOML file such as
//
//	name        = "Easter Island (Rapa Nui), Chile"
//	file_prefix = "RapaNui"
//	latitude    = -27.17
//	longitude   = -109.42
//
// Keys the file omits keep their [domain.DefaultStation] value. An empty path
// returns the default station. Unknown keys are an error.
func LoadStation(path string) (domain.Station, error) {
	st := domain.DefaultStation()
	if path == "" {
		return st, nil
	}
	md, err := toml.DecodeFile(path, &st)
	if err != nil {
		return domain.Station{}, fmt.Errorf("STATION_FILE %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return domain.Station{}, fmt.Errorf("STATION_FILE %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if st.FilePrefix == "" {
		return domain.Station{}, fmt.Errorf("STATION_FILE %s: file_prefix is empty", path)
	}
	return st, nil
}
