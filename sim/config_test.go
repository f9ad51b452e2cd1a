package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulationConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultSimulationConfig().Validate())
	assert.NoError(t, SimulationConfig{Horizon: 1}.Validate(), "empty trace level means none")
	assert.Error(t, SimulationConfig{Horizon: 0}.Validate())
	assert.Error(t, SimulationConfig{Horizon: 1, UnplugInterval: -1}.Validate())
	assert.Error(t, SimulationConfig{Horizon: 1, TraceLevel: "all"}.Validate())
}
