package hdmiswitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverByName(t *testing.T) {
	assert.Equal(t, []string{"bugst", "goburrow"}, DriverNames())

	d, err := DriverByName(DefaultDriver)
	require.NoError(t, err)
	assert.IsType(t, BugstDriver{}, d)

	d, err = DriverByName("goburrow")
	require.NoError(t, err)
	assert.Positive(t, d.(GoburrowDriver).PollInterval)

	_, err = DriverByName("tarm")
	assert.ErrorContains(t, err, "unknown driver")
}

func TestDriversReportMissingDevice(t *testing.T) {
	for _, name := range DriverNames() {
		d, err := DriverByName(name)
		require.NoError(t, err)

		_, err = Open(d, "/dev/does-not-exist-hdmiswitch")

		var oerr *OpenError
		assert.ErrorAs(t, err, &oerr, name)
	}
}
