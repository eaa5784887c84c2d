package sweep

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/tlbeval/internal/config"
)

// Point is one run of the channel: a scenario, a build, a send window, a
// file pair and an iteration number. Points are values; each run owns its
// own copy.
type Point struct {
	Scenario    string `json:"scenario"`
	Build       int    `json:"build"`
	BuildFlags  string `json:"build_flags"`
	Checksum    string `json:"checksum"`
	Evictions   int    `json:"evictions"`
	ReedSolomon int    `json:"reed_solomon"`
	SendWindow  int    `json:"send_window"`
	SendFile    string `json:"send_file"`
	ReceiveFile string `json:"receive_file"`
	Iteration   int    `json:"iteration"`
}

// Key is "scen,build,evict,check,file,sndwindow,rs,iter". It names the
// run's artifact directory.
func (p Point) Key() string {
	return p.ConfigKey() + "," + strconv.Itoa(p.Iteration)
}

// ConfigKey is Key without the iteration; iterations of one configuration
// share it. The build index keeps builds that differ only in flags apart.
func (p Point) ConfigKey() string {
	return strings.Join([]string{
		p.Scenario,
		strconv.Itoa(p.Build),
		strconv.Itoa(p.Evictions),
		p.Checksum,
		filepath.Base(p.SendFile),
		strconv.Itoa(p.SendWindow),
		strconv.Itoa(p.ReedSolomon),
	}, ",")
}

// Flags returns the make CFLAGS words for the point's build.
func (p Point) Flags() []string {
	return strings.Fields(p.BuildFlags)
}

// Space is the ordered parameter space of an experiment.
type Space struct {
	points []Point
}

// NewSpace expands cfg in the order scenario, build, file pair, send
// window, iteration.
func NewSpace(cfg *config.ExperimentConfig) (*Space, error) {
	iterations := cfg.GetIterations()
	s := &Space{}
	for _, scen := range cfg.GetScenarios() {
		for bi, b := range cfg.Builds {
			windows, err := ParseWindows(b.SendWindows)
			if err != nil {
				return nil, fmt.Errorf("builds[%d]: %w", bi, err)
			}
			flags := strings.Join(append(append([]string{}, cfg.CommonFlags...), b.Flags...), " ")
			for _, f := range cfg.Files {
				for _, w := range windows {
					for iter := 0; iter < iterations; iter++ {
						s.points = append(s.points, Point{
							Scenario:    scen.Name,
							Build:       bi,
							BuildFlags:  flags,
							Checksum:    b.Checksum,
							Evictions:   b.Evictions,
							ReedSolomon: b.ReedSolomon,
							SendWindow:  w,
							SendFile:    f.Send,
							ReceiveFile: f.Receive,
							Iteration:   iter,
						})
					}
				}
			}
		}
	}
	return s, nil
}

// Len returns the number of points.
func (s *Space) Len() int { return len(s.points) }

// Points returns a copy of the points in run order.
func (s *Space) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}
