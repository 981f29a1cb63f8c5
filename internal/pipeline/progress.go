package pipeline

import (
	"sync"
	"time"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Snapshot is a point-in-time view of run progress, served by the HTTP API.
// EtaSeconds is -1 until the first tile completes; JSON cannot carry NaN.
type Snapshot struct {
	Running        bool    `json:"running"`
	TilesDone      int     `json:"tiles_done"`
	TilesTotal     int     `json:"tiles_total"`
	Ratio          float64 `json:"ratio"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	EtaSeconds     float64 `json:"eta_seconds"`
}

// progress tracks tile completion against the package clock, so tests can
// freeze time and assert exact ETAs.
type progress struct {
	mu      sync.Mutex
	begun   bool
	total   int
	done    int
	started time.Time
}

func (p *progress) begin(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.begun = true
	p.total = total
	p.done = 0
	p.started = domain.Now()
}

// tileDone records one completed tile and returns the updated counts.
func (p *progress) tileDone() (done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	return p.done, p.total
}

func (p *progress) snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{TilesDone: p.done, TilesTotal: p.total, EtaSeconds: -1}
	if !p.begun {
		return s
	}
	elapsed := domain.Now().Sub(p.started)
	s.ElapsedSeconds = elapsed.Seconds()
	s.Running = p.done < p.total
	if p.total > 0 {
		s.Ratio = float64(p.done) / float64(p.total)
	}
	switch {
	case p.done == p.total:
		s.EtaSeconds = 0
	case p.done > 0:
		s.EtaSeconds = elapsed.Seconds() / float64(p.done) * float64(p.total-p.done)
	}
	return s
}
