// gatesubsets resolves the cutoffs in a gate config and prints every boolean
// subset of its markers, in the column order used by events2counts, together
// with the threshold expression that defines it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/carbocation/flowcompass/gating"
	"github.com/carbocation/flowcompass/subset"

	_ "github.com/carbocation/flowcompass/compileinfoprint"
)

func main() {
	var configPath string
	var showCandidates bool

	flag.StringVar(&configPath, "config", "", "Gate config (.json, or .yaml/.yml)")
	flag.BoolVar(&showCandidates, "candidates", false, "(Optional) Also log the candidate cutoffs found for each marker.")
	flag.Parse()

	if configPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := gating.ParseConfigFromPath(configPath)
	if err != nil {
		log.Fatalln(err)
	}

	if showCandidates {
		candidates := gating.CandidateCutoffs(cfg)
		for _, name := range cfg.MarkerNames() {
			log.Printf("%s: candidate cutoffs %v\n", name, candidates[name])
		}
	}

	channels, err := gating.Resolve(cfg)
	if err != nil {
		log.Fatalln(err)
	}
	for _, c := range channels {
		log.Printf("%s: cutoff %g\n", c.Name, c.Cutoff.Float64)
	}

	if err := printSubsets(channels); err != nil {
		log.Fatalln(err)
	}
}

func printSubsets(channels []subset.MarkerChannel) error {
	labels, err := subset.Enumerate(channels)
	if err != nil {
		return err
	}

	fmt.Println(strings.Join([]string{"position", "subset", "degree", "definition"}, "\t"))
	for i, l := range labels {
		fmt.Printf("%d\t%s\t%d\t%s\n", i, l, l.Degree(), l.Expression(channels))
	}

	return nil
}
