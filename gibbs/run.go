package gibbs

import (
	"fmt"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/MHunt-tools/rCLAMPS/align"
	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/glm"
)

// Config is the immutable run configuration threaded through every
// constructor. Zero values are not usable; start from DefaultConfig.
type Config struct {
	// Width is the motif width: base positions modeled per domain unit.
	Width int
	// Seed is the master random seed; chain k derives its own source
	// from it, so a run is reproducible end to end.
	Seed uint64
	// MaxIter bounds the iterations of a single chain.
	MaxIter int
	// Chains is the number of independent chains to run.
	Chains int
	// MaxProcs caps how many chains run at once. Zero means one fewer
	// than the machine's CPUs.
	MaxProcs int
	// Sample is the pseudo-count depth used when converting PWM
	// columns to counts for the likelihood.
	Sample int
	// Tol and Window define convergence: the score must stay within
	// Tol of each of the previous Window scores.
	Tol    float64
	Window int
	// RandomOrder randomizes the group resampling order each pass.
	// With it off, passes visit groups in dataset order and the full
	// run is reproducible given Seed alone.
	RandomOrder bool
}

// DefaultConfig mirrors the manuscript settings apart from the seed,
// which callers should set explicitly.
func DefaultConfig() Config {
	return Config{
		Width:   6,
		MaxIter: 15,
		Chains:  100,
		Sample:  100,
		Tol:     1.0,
		Window:  5,
	}
}

// Validate reports the first fatal configuration error, before any
// chain starts.
func (c Config) Validate() error {
	switch {
	case c.Width < 1:
		return fmt.Errorf("motif width must be positive, got %d", c.Width)
	case c.MaxIter < 1:
		return fmt.Errorf("max iterations must be positive, got %d",
			c.MaxIter)
	case c.Chains < 1:
		return fmt.Errorf("chain count must be positive, got %d", c.Chains)
	case c.Sample < 1:
		return fmt.Errorf("sample depth must be positive, got %d", c.Sample)
	case c.Tol <= 0:
		return fmt.Errorf("convergence tolerance must be positive, got %f",
			c.Tol)
	case c.Window < 1:
		return fmt.Errorf("convergence window must be positive, got %d",
			c.Window)
	}
	return nil
}

func (c Config) workers() int {
	procs := c.MaxProcs
	if procs < 1 {
		procs = runtime.NumCPU() - 1
	}
	if procs < 1 {
		procs = 1
	}
	if procs > c.Chains {
		procs = c.Chains
	}
	return procs
}

// A Run is the outcome of a full multi-chain run: every chain's
// terminal result plus the selected best.
type Run struct {
	Best   Result
	Chains []Result
}

// Execute runs cfg.Chains independent chains over the dataset and
// returns the best-scoring terminal result. Failed chains are logged
// and excluded from selection; every chain failing is fatal, since it
// means the model topology cannot support the dataset. Ties on score
// prefer fewer iterations, then the lowest chain index.
func Execute(
	ds *dataset.Dataset,
	cm dataset.ContactMap,
	seeds map[string]align.State,
	cfg Config,
) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cm.Width() != cfg.Width {
		return nil, fmt.Errorf(
			"contact map width %d does not match motif width %d",
			cm.Width(), cfg.Width)
	}
	d, err := glm.NewDesign(ds, cm)
	if err != nil {
		return nil, err
	}

	results := runPool(d, ds, seeds, cfg)

	run := &Run{Chains: results}
	found := false
	for _, res := range results {
		if res.Status == Failed {
			log.WithFields(log.Fields{
				"chain": res.Chain,
				"error": res.Err,
			}).Warn("chain failed")
			continue
		}
		log.WithFields(log.Fields{
			"chain":  res.Chain,
			"status": res.Status,
			"score":  res.Score,
			"iters":  res.Iters,
		}).Info("chain finished")
		if !found || better(res, run.Best) {
			run.Best = res
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf(
			"all %d chains failed: motif width or edge cuts are too "+
				"aggressive for %d records", cfg.Chains, ds.Len())
	}
	return run, nil
}

// better orders terminal chain results for best-chain selection.
func better(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Iters != b.Iters {
		return a.Iters < b.Iters
	}
	return a.Chain < b.Chain
}

// runPool fans the chain indices out over a bounded set of workers.
// Chains share only the design, dataset, and config, all read-only.
func runPool(
	d *glm.Design,
	ds *dataset.Dataset,
	seeds map[string]align.State,
	cfg Config,
) []Result {
	chains := make(chan int, cfg.Chains)
	results := make(chan Result, cfg.Chains)

	wg := &sync.WaitGroup{}
	for i := 0; i < cfg.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chain := range chains {
				results <- runChain(chain, d, ds, seeds, cfg)
			}
		}()
	}
	for chain := 0; chain < cfg.Chains; chain++ {
		chains <- chain
	}
	close(chains)
	wg.Wait()
	close(results)

	collected := make([]Result, cfg.Chains)
	for res := range results {
		collected[res.Chain] = res
	}
	return collected
}
