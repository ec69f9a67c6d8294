package cf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name     string        `cf:"name"`
	Size     int           `cf:"size"`
	Big      int64         `cf:"big"`
	Small    uint32        `cf:"small"`
	Scale    float64       `cf:"scale"`
	Enabled  bool          `cf:"enabled"`
	Timeout  time.Duration `cf:"timeout"`
	Interval time.Duration `cf:"interval"`
	Untagged int
}

func TestLoad(t *testing.T) {
	cfg := &testConfig{Size: 1}
	data := map[string]interface{}{
		"name":     "writers",
		"size":     int64(2048),
		"big":      4096,
		"small":    7,
		"scale":    2,
		"enabled":  true,
		"timeout":  "1m30s",
		"interval": 250,
		"Untagged": 3,
		"unknown":  "ignored",
	}
	require.NoError(t, Load(data, cfg))
	assert.Equal(t, "writers", cfg.Name)
	assert.Equal(t, 2048, cfg.Size)
	assert.Equal(t, int64(4096), cfg.Big)
	assert.Equal(t, uint32(7), cfg.Small)
	assert.Equal(t, 2.0, cfg.Scale)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, 3, cfg.Untagged)
}

func TestLoadMismatch(t *testing.T) {
	cfg := &testConfig{}
	assert.Error(t, Load(map[string]interface{}{"size": "big"}, cfg))
	assert.Error(t, Load(map[string]interface{}{"small": -1}, cfg))
	assert.Error(t, Load(map[string]interface{}{"size": 1.5}, cfg))
	assert.Error(t, Load(map[string]interface{}{"timeout": "soon"}, cfg))
	assert.Error(t, Load(map[string]interface{}{}, 7))
}

func TestParseYaml(t *testing.T) {
	data, err := Parse(".yaml", []byte("name: writers\nsize: 512\ntimeout: 5s\nnested:\n  a: 1\n"))
	require.NoError(t, err)
	cfg := &testConfig{}
	require.NoError(t, Load(data, cfg))
	assert.Equal(t, "writers", cfg.Name)
	assert.Equal(t, 512, cfg.Size)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	_, isMap := data["nested"].(map[string]interface{})
	assert.True(t, isMap)
}

func TestParseToml(t *testing.T) {
	data, err := Parse(".toml", []byte("name = \"writers\"\nsize = 512\nscale = 0.5\nenabled = true\n"))
	require.NoError(t, err)
	cfg := &testConfig{}
	require.NoError(t, Load(data, cfg))
	assert.Equal(t, "writers", cfg.Name)
	assert.Equal(t, 512, cfg.Size)
	assert.Equal(t, 0.5, cfg.Scale)
	assert.True(t, cfg.Enabled)
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse(".ini", nil)
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	out := Dump("config", &testConfig{Name: "x"})
	assert.Contains(t, out, "config {\n")
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "interval")
}
