package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

func testGrid(t *testing.T) domain.Grid {
	t.Helper()
	g, err := domain.NewGrid(0, 0.2, 0.1)
	require.NoError(t, err)
	return g
}

func testProfile(t *testing.T, launch time.Time) domain.GriddedFlightProfile {
	t.Helper()
	p := domain.EmptyProfile(launch, testGrid(t))
	p.Quantities[domain.Pressure] = domain.SeriesOf(1013.25, 1001.5, 990)
	p.Quantities[domain.Temperature] = domain.Series{domain.Present(293.15), domain.Missing(), domain.Present(292.5)}
	p.Quantities[domain.MixingRatio] = domain.SeriesOf(12.34567, 12.1, 11.9)
	return p
}

func TestWriteCorpus_Layout(t *testing.T) {
	c := domain.NewCorpus()
	require.NoError(t, c.Add(testProfile(t, time.Date(2005, 3, 9, 14, 30, 0, 0, time.UTC))))

	var buf bytes.Buffer
	require.NoError(t, WriteCorpus(&buf, c))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2+3)
	assert.True(t, strings.HasPrefix(lines[0], "Datetime,Alt,Pressure,Temp,RH,O3_mPa,O3_ppbv,O3_column,U,V,"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], ",km,hPa,K,"), lines[1])

	first := strings.Split(lines[2], ",")
	assert.Equal(t, "2005-03-09 14:30:00", first[0])
	assert.Equal(t, "0.0", first[1])
	assert.Equal(t, "1013.250", first[2])
	assert.Equal(t, "293.150", first[3])
	assert.Equal(t, "9000.000", first[4], "missing values use the sentinel")
	assert.Equal(t, "12.34567", first[len(first)-1], "mixing ratio keeps five decimals")

	second := strings.Split(lines[3], ",")
	assert.Equal(t, "0.1", second[1])
	assert.Equal(t, "9000.000", second[3])
}

func TestCorpus_RoundTrip(t *testing.T) {
	c := domain.NewCorpus()
	a := testProfile(t, time.Date(2005, 3, 9, 14, 30, 0, 0, time.UTC))
	b := domain.EmptyProfile(time.Date(2005, 3, 16, 14, 30, 0, 0, time.UTC), testGrid(t))
	require.NoError(t, c.Add(b))
	require.NoError(t, c.Add(a))

	var buf bytes.Buffer
	require.NoError(t, WriteCorpus(&buf, c))

	got, err := ReadCorpus(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())

	// The values were written with their column precision, so the inputs
	// survive exactly; launch altitude is not part of the corpus table.
	want := c.Profiles()
	if diff := cmp.Diff(want, got.Profiles(), valueEqual); diff != "" {
		t.Errorf("corpus round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, c.RowCount(), got.RowCount())
}

func TestReadCorpus_SentinelIsMissing(t *testing.T) {
	in := "Datetime,Alt,Pressure,O3_mPa\n,km,hPa,mPa\n" +
		"2005-03-09 14:30:00,0.0,1013.000,9000.000\n" +
		"2005-03-09 14:30:00,0.1,9000.000,2.500\n"

	c, err := ReadCorpus(strings.NewReader(in))
	require.NoError(t, err)
	p, ok := c.Lookup(time.Date(2005, 3, 9, 14, 30, 0, 0, time.UTC))
	require.True(t, ok)

	assert.Equal(t, []float64{0, 0.1}, p.AltitudeKm)
	assert.True(t, p.Series(domain.OzonePartialPressure)[0].IsMissing())
	assert.True(t, p.Series(domain.Pressure)[1].IsMissing())
	assert.InDelta(t, 2.5, p.Series(domain.OzonePartialPressure)[1].Float(), 0)
	assert.True(t, p.Series(domain.Theta).AllMissing(), "absent column reads as missing")
}

func TestReadCorpus_DuplicateLaunch(t *testing.T) {
	in := "Datetime,Alt\n,km\n" +
		"2005-03-09 14:30:00,0.0\n" +
		"2005-03-16 14:30:00,0.0\n" +
		"2005-03-09 14:30:00,0.0\n"

	_, err := ReadCorpus(strings.NewReader(in))
	assert.ErrorIs(t, err, domain.ErrDuplicateLaunch)
}

func TestReadCorpus_RequiresAltitude(t *testing.T) {
	_, err := ReadCorpus(strings.NewReader("Datetime,Pressure\n,hPa\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFormatAltitude(t *testing.T) {
	assert.Equal(t, "0.0", formatAltitude(0))
	assert.Equal(t, "35.0", formatAltitude(35))
	assert.Equal(t, "0.3", formatAltitude(0.1+0.2))
	assert.Equal(t, "1.25", formatAltitude(1.25))
}

func TestCorpusFileName(t *testing.T) {
	assert.Equal(t, "RapaNui_all_clear.csv", CorpusFileName("RapaNui"))
}
