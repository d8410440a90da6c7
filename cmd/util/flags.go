package util

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/MHunt-tools/rCLAMPS/dataset"
	"github.com/MHunt-tools/rCLAMPS/gibbs"
)

var (
	FlagCpu = runtime.NumCPU() - 1

	FlagWidth   = 6
	FlagSeed    = uint64(382738375)
	FlagChains  = 100
	FlagIter    = 15
	FlagSample  = 100
	FlagRandord = false

	flagDomain = "homeodomain"
	FlagDomain dataset.DomainType

	flagGroup = "core"
	FlagGroup dataset.GroupMode

	FlagUnitLen = 57
	FlagOffset  = dataset.HomeoboxOffset

	FlagPseudo  = 0.01
	FlagRescale = false

	FlagSeedFile = ""
	FlagTestFile = ""
	FlagOutDir   = "."
)

func init() {
	log.SetFlags(0)
}

type commonFlag struct {
	set, init func()
	use       bool
}

var commonFlags = map[string]*commonFlag{
	"cpu": {
		set: func() {
			flag.IntVar(&FlagCpu, "cpu", FlagCpu,
				"The max number of chains running simultaneously.")
		},
		init: func() {
			if FlagCpu > 0 {
				runtime.GOMAXPROCS(FlagCpu)
			}
		},
	},
	"width": {
		set: func() {
			flag.IntVar(&FlagWidth, "width", FlagWidth,
				"The motif width: base positions modeled per domain unit.")
		},
	},
	"seed": {
		set: func() {
			flag.Uint64Var(&FlagSeed, "seed", FlagSeed,
				"The master random seed. Chains derive their own seeds\n"+
					"from it, so runs are exactly reproducible.")
		},
	},
	"chains": {
		set: func() {
			flag.IntVar(&FlagChains, "chains", FlagChains,
				"The number of independent Markov chains.")
		},
	},
	"iter": {
		set: func() {
			flag.IntVar(&FlagIter, "iter", FlagIter,
				"The maximum iterations per chain.")
		},
	},
	"sample": {
		set: func() {
			flag.IntVar(&FlagSample, "sample", FlagSample,
				"The pseudo-count depth used to score PWM columns.")
		},
	},
	"random-order": {
		set: func() {
			flag.BoolVar(&FlagRandord, "random-order", FlagRandord,
				"When set, each pass resamples groups in random order.")
		},
	},
	"domain": {
		set: func() {
			flag.StringVar(&flagDomain, "domain", flagDomain,
				"The domain family: homeodomain or zf-C2H2.")
		},
		init: func() {
			d, err := dataset.ParseDomainType(flagDomain)
			Assert(err, "Invalid -domain")
			FlagDomain = d
		},
	},
	"group": {
		set: func() {
			flag.StringVar(&flagGroup, "group", flagGroup,
				"Observation grouping: core (identical core tuples\n"+
					"share a group) or none.")
		},
		init: func() {
			g, err := dataset.ParseGroupMode(flagGroup)
			Assert(err, "Invalid -group")
			FlagGroup = g
		},
	},
	"unit-len": {
		set: func() {
			flag.IntVar(&FlagUnitLen, "unit-len", FlagUnitLen,
				"Match states per domain unit in the protein fasta.")
		},
	},
	"offset": {
		set: func() {
			flag.IntVar(&FlagOffset, "offset", FlagOffset,
				"Offset from match-state numbering to sequence indices.")
		},
	},
	"pseudo": {
		set: func() {
			flag.Float64Var(&FlagPseudo, "pseudo", FlagPseudo,
				"Pseudocount added to every PWM entry before fitting.")
		},
	},
	"rescale": {
		set: func() {
			flag.BoolVar(&FlagRescale, "rescale", FlagRescale,
				"When set, input PWMs are sharpened before fitting.")
		},
	},
	"seeds": {
		set: func() {
			flag.StringVar(&FlagSeedFile, "seeds", FlagSeedFile,
				"A structural seed-alignment table. Listed records are\n"+
					"pinned to their seed alignment (oracle initialization).")
		},
	},
	"test-file": {
		set: func() {
			flag.StringVar(&FlagTestFile, "test-file", FlagTestFile,
				"A list of records to withhold from training entirely.")
		},
	},
	"out-dir": {
		set: func() {
			flag.StringVar(&FlagOutDir, "out-dir", FlagOutDir,
				"The directory output tables are written to.")
		},
	},
}

func FlagUse(names ...string) {
	for _, name := range names {
		commonFlags[name].use = true
	}
}

// Usage just calls `flag.Usage`. It's included here to avoid
// an extra import to `flag` just to call Usage.
func Usage() {
	flag.Usage()
}

// Arg just calls `flag.Arg`. It's included here to avoid
// an extra import to `flag` just to call Arg.
func Arg(i int) string {
	return flag.Arg(i)
}

func FlagParse(positional string, desc string) {
	for _, fl := range commonFlags {
		if fl.use {
			fl.set()
		}
	}

	flag.Usage = func() {
		log.Printf("Usage: %s [flags] %s\n\n",
			path.Base(os.Args[0]), positional)
		if len(desc) > 0 {
			log.Printf("%s\n", desc)
		}
		flag.VisitAll(func(fl *flag.Flag) {
			var def string
			if len(fl.DefValue) > 0 {
				def = fmt.Sprintf(" (default: %s)", fl.DefValue)
			}

			usage := strings.Replace(fl.Usage, "\n", "\n    ", -1)
			log.Printf("-%s%s\n", fl.Name, def)
			log.Printf("    %s\n", usage)
		})
		os.Exit(1)
	}
	flag.Parse()

	for _, fl := range commonFlags {
		if fl.use && fl.init != nil {
			fl.init()
		}
	}
}

// GibbsConfig assembles the immutable run configuration from the
// parsed flags.
func GibbsConfig() gibbs.Config {
	cfg := gibbs.DefaultConfig()
	cfg.Width = FlagWidth
	cfg.Seed = FlagSeed
	cfg.MaxIter = FlagIter
	cfg.Chains = FlagChains
	cfg.MaxProcs = FlagCpu
	cfg.Sample = FlagSample
	cfg.RandomOrder = FlagRandord
	Assert(cfg.Validate())
	return cfg
}
