package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tlbeval/internal/config"
)

func intPtr(v int) *int { return &v }

func testConfig() *config.ExperimentConfig {
	return &config.ExperimentConfig{
		Hosts:       map[string]string{"receiver": "r", "sender": "s"},
		Iterations:  intPtr(2),
		CommonFlags: []string{"-DARCH_BROADWELL"},
		Builds: []config.BuildConfig{
			{Flags: []string{"-DNUM_EVICTIONS=8", "-DCHK_CRC8"}, Checksum: "crc8", Evictions: 8, SendWindows: "80,100"},
			{Flags: []string{"-DCHK_BERGER", "-DREED_SOLOMON=32"}, Checksum: "berger", Evictions: 9, ReedSolomon: 32, SendWindows: "120"},
		},
		Files: []config.FilePair{{Send: "genesis.txt", Receive: "out.txt"}},
	}
}

func TestNewSpace(t *testing.T) {
	s, err := NewSpace(testConfig())
	require.NoError(t, err)

	// idle × (2 windows + 1 window) × 1 file × 2 iterations
	require.Equal(t, 6, s.Len())

	points := s.Points()
	assert.Equal(t, "idle,0,8,crc8,genesis.txt,80,0,0", points[0].Key())
	assert.Equal(t, "idle,0,8,crc8,genesis.txt,80,0,1", points[1].Key())
	assert.Equal(t, "idle,0,8,crc8,genesis.txt,100,0,0", points[2].Key())
	assert.Equal(t, "idle,1,9,berger,genesis.txt,120,32,1", points[5].Key())
	assert.Equal(t, []string{"-DARCH_BROADWELL", "-DCHK_BERGER", "-DREED_SOLOMON=32"}, points[5].Flags())
	assert.Equal(t, 1, points[5].Build)
}

func TestNewSpace_PointsAreIndependent(t *testing.T) {
	s, err := NewSpace(testConfig())
	require.NoError(t, err)

	points := s.Points()
	points[0].SendWindow = 9999
	assert.Equal(t, 80, s.Points()[0].SendWindow)
	assert.NotEqual(t, points[0].Key(), points[1].Key())
}

func TestNewSpace_BadWindows(t *testing.T) {
	cfg := testConfig()
	cfg.Builds[1].SendWindows = "1:2"
	_, err := NewSpace(cfg)
	assert.ErrorContains(t, err, "builds[1]")
}

func TestPoint_ConfigKeyUsesBaseName(t *testing.T) {
	p := Point{Scenario: "vm3", Build: 2, Evictions: 7, Checksum: "custom", SendFile: "files/pic.bmp", SendWindow: 480, ReedSolomon: 64, Iteration: 3}
	assert.Equal(t, "vm3,2,7,custom,pic.bmp,480,64", p.ConfigKey())
	assert.Equal(t, "vm3,2,7,custom,pic.bmp,480,64,3", p.Key())
}

func TestNewSpace_BuildsDifferingOnlyInFlags(t *testing.T) {
	cfg := &config.ExperimentConfig{
		Hosts: map[string]string{"receiver": "r", "sender": "s"},
		Builds: []config.BuildConfig{
			{Flags: []string{"-DAS"}, SendWindows: "12"},
			{Flags: []string{"-DF"}, SendWindows: "12"},
		},
		Files: []config.FilePair{{Send: "text.txt", Receive: "out.txt"}},
	}
	require.NoError(t, cfg.Validate())

	s, err := NewSpace(cfg)
	require.NoError(t, err)
	points := s.Points()
	require.Len(t, points, 2)
	assert.NotEqual(t, points[0].Key(), points[1].Key())
	assert.Equal(t, "idle,0,0,,text.txt,12,0,0", points[0].Key())
	assert.Equal(t, "idle,1,0,,text.txt,12,0,0", points[1].Key())

	summaries := Summarize([]Row{{Point: points[0]}, {Point: points[1]}})
	require.Len(t, summaries, 2)
	assert.Equal(t, "-DAS", summaries[0].Point.BuildFlags)
	assert.Equal(t, "-DF", summaries[1].Point.BuildFlags)
}
