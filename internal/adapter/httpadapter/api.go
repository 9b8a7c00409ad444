package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

var launchLayouts = []string{time.RFC3339, "200601021504", "2006-01-02"}

func parseLaunch(s string) (time.Time, error) {
	for _, layout := range launchLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339, YYYYMMDDHHMM or YYYY-MM-DD", s)
}

type flightSummary struct {
	LaunchTime      time.Time    `json:"launch_time"`
	LaunchAltitudeM domain.Value `json:"launch_altitude_m"`
	OzonePoints     int          `json:"ozone_points"`
	Href            string       `json:"href"`
}

type flightList struct {
	Count   int             `json:"count"`
	Flights []flightSummary `json:"flights"`
}

// handleFlights lists launches, optionally bounded by ?from= and ?to=
// (inclusive).
func (s *Server) handleFlights(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	for name, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		t, err := parseLaunch(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, name+": "+err.Error())
			return
		}
		*dst = t
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		writeError(w, http.StatusBadRequest, "to is before from")
		return
	}

	profiles := s.corpus.Corpus().Between(from, to)
	out := flightList{Count: len(profiles), Flights: make([]flightSummary, 0, len(profiles))}
	for _, p := range profiles {
		stamp := p.LaunchTime.UTC().Format(time.RFC3339)
		out.Flights = append(out.Flights, flightSummary{
			LaunchTime:      p.LaunchTime,
			LaunchAltitudeM: p.LaunchAltitudeM,
			OzonePoints:     p.Series(domain.OzonePartialPressure).CountPresent(),
			Href:            "/api/v1/flights/" + stamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleFlight returns one gridded profile. Encoded bodies are cached per
// corpus generation, so a new run never serves stale profiles.
func (s *Server) handleFlight(w http.ResponseWriter, r *http.Request) {
	launch, err := parseLaunch(r.PathValue("launch"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	corpus := s.corpus.Corpus()
	key := fmt.Sprintf("%d|%d", corpus.Generation(), launch.UnixNano())
	if body, ok := s.bodies.get(key); ok {
		s.metrics.APICache.WithLabelValues("hit").Inc()
		writeBody(w, body)
		return
	}
	s.metrics.APICache.WithLabelValues("miss").Inc()

	p, ok := corpus.Lookup(launch)
	if !ok {
		writeError(w, http.StatusNotFound, "no flight launched at "+launch.Format(time.RFC3339))
		return
	}
	body, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("encode profile failed", "launch", launch, "error", err)
		writeError(w, http.StatusInternalServerError, "encode profile")
		return
	}
	body = append(body, '\n')
	s.bodies.put(key, body)
	writeBody(w, body)
}

func writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type seriesResponse struct {
	Quantity   string             `json:"quantity"`
	Unit       string             `json:"unit"`
	AltitudeKm float64            `json:"altitude_km"`
	Points     []domain.TimePoint `json:"points"`
}

var errAltitudeRequired = errors.New("altitude is required")

// handleSeries returns one quantity at one grid altitude for every launch.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q, err := domain.ParseQuantity(r.PathValue("quantity"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	alt, err := parseAltitude(r.URL.Query().Get("altitude"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, seriesResponse{
		Quantity:   q.Name(),
		Unit:       q.Unit(),
		AltitudeKm: alt,
		Points:     s.corpus.Corpus().SeriesAt(q, alt),
	})
}

func parseAltitude(s string) (float64, error) {
	if s == "" {
		return 0, errAltitudeRequired
	}
	z, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, fmt.Errorf("invalid altitude %q", s)
	}
	return z, nil
}
