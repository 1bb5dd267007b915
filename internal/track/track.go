// Package track defines the three biological search campaigns and runs them.
// Each track carries its own term lists and owns its failure statistics, so
// backoff decisions in one track never slow down another.
package track

import (
	"fmt"
	"strings"

	"github.com/nmorel/bvharvest/internal/query"
)

type Track struct {
	Name            string
	GeneTerms       []string
	FunctionalTerms []string
}

// Terms expands the track's term lists into typed search terms, gene terms
// first.
func (t Track) Terms() []query.Term {
	terms := make([]query.Term, 0, len(t.GeneTerms)+len(t.FunctionalTerms))
	for _, g := range t.GeneTerms {
		terms = append(terms, query.Term{Text: g, Kind: query.KindGene})
	}
	for _, f := range t.FunctionalTerms {
		terms = append(terms, query.Term{Text: f, Kind: query.KindFunctional})
	}
	return terms
}

// Amyloids is the bacterial amyloid campaign: curli systems and their
// equivalents across genera.
func Amyloids() Track {
	return Track{
		Name: "amyloids",
		GeneTerms: []string{
			// Curli system (E. coli)
			"csgA", "csgB", "csgC", "csgD", "csgE",
			// Salmonella curli equivalents
			"agfA", "agfB",
			// Bacillus biofilm matrix
			"tasA", "tapA",
			// Pseudomonas functional amyloids
			"fapA", "fapC",
			// Streptomyces chaplins
			"chpD",
		},
		FunctionalTerms: []string{
			"curli",
			"functional amyloid",
			"biofilm matrix",
			"phenol-soluble modulin",
		},
	}
}

// Copper is the copper-homeostasis campaign.
func Copper() Track {
	return Track{
		Name: "copper",
		GeneTerms: []string{
			// Major copper efflux systems
			"copA", "copB", "copC", "copD", "copE", "copF",
			"cusA", "cusB", "cusC", "cusF", "cusR", "cusS",
			"cueO", "cueR", "cueP",
			"ctrA", "ctrB", "ctrC", "ctrD",
			// Chaperones and binding
			"copZ", "copY", "copG", "copH",
			"cutC", "cutE", "cutF",
			"scoA", "scoB",
			"ccs",
			// Sensing and regulation
			"merR", "copS", "copT",
			"tcuA", "tcuB", "tcuC", "tcuR",
		},
		FunctionalTerms: []string{
			"copper transporter",
			"copper efflux",
			"copper resistance",
			"copper export",
			"copper oxidase",
			"copper chaperone",
			"copper binding",
			"copper homeostasis",
			"copper tolerance",
			"cuprous oxidase",
			"copper ATPase",
			"copper sensing",
			"copper regulator",
			"copper responsive",
			"heavy metal efflux",
			"metal tolerance",
			"P-type ATPase copper",
			"RND copper efflux",
		},
	}
}

// SOD is the superoxide dismutase and antioxidant defense campaign.
func SOD() Track {
	return Track{
		Name: "sod",
		GeneTerms: []string{
			// Superoxide dismutases
			"sodA", "sodB", "sodC", "sodM", "sodF",
			"sod1", "sod2", "sod3",
			// Catalases
			"katA", "katB", "katC", "katE", "katG", "katN",
			// Peroxidases and related
			"ahpC", "ahpF",
			"tpx", "bcp",
			"ohr", "osmC",
			"dps",
			// Glutathione and thioredoxin systems
			"gor", "grx", "gshA", "gshB",
			"trxA", "trxB", "trxC",
		},
		FunctionalTerms: []string{
			"superoxide dismutase",
			"catalase",
			"peroxidase",
			"antioxidant",
			"oxidative stress",
			"superoxide radical",
			"hydrogen peroxide",
			"reactive oxygen",
			"alkyl hydroperoxide reductase",
			"thiol peroxidase",
			"manganese superoxide dismutase",
			"iron superoxide dismutase",
			"copper zinc superoxide dismutase",
			"catalase peroxidase",
			"glutathione peroxidase",
			"thioredoxin",
			"glutaredoxin",
			"DNA protection protein",
			"oxidative damage",
		},
	}
}

// All returns the three tracks in their canonical run order.
func All() []Track {
	return []Track{Amyloids(), Copper(), SOD()}
}

// ByName resolves a track by its name.
func ByName(name string) (Track, error) {
	for _, t := range All() {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return Track{}, fmt.Errorf("unknown track: %q", name)
}
