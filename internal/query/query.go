// Package query defines the unit of work for a collection run: one
// (genome, search term) pair, and the batches those units are grouped into
// before being submitted to BV-BRC.
package query

import (
	"github.com/google/uuid"
)

type TermKind string

const (
	KindGene       TermKind = "gene"
	KindFunctional TermKind = "functional"
)

// Term is a search term together with how it should be queried:
// gene terms match the gene name field, functional terms are keyword searches
// against product descriptions.
type Term struct {
	Text string
	Kind TermKind
}

// Unit is a single (genome, term) query. Units are value types and never
// modified after creation.
type Unit struct {
	GenomeID string
	Term     string
	Kind     TermKind
}

// Batch is a bounded, ordered group of units submitted as one request cycle.
type Batch struct {
	ID    string
	Seq   int
	Units []Unit
}

// DefaultBatchSize is used when a caller passes a non-positive batch size.
const DefaultBatchSize = 25

// CrossProduct expands terms × genomes into the full unit set, term-major:
// all genomes for the first term, then all genomes for the second, and so on.
func CrossProduct(terms []Term, genomeIDs []string) []Unit {
	units := make([]Unit, 0, len(terms)*len(genomeIDs))
	for _, term := range terms {
		for _, genomeID := range genomeIDs {
			units = append(units, Unit{
				GenomeID: genomeID,
				Term:     term.Text,
				Kind:     term.Kind,
			})
		}
	}
	return units
}

// Partition splits units into consecutive batches of batchSize. The number of
// batches is ceil(len(units)/batchSize); the final batch may be short.
func Partition(units []Unit, batchSize int) []Batch {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	batches := make([]Batch, 0, (len(units)+batchSize-1)/batchSize)
	for start := 0; start < len(units); start += batchSize {
		end := min(start+batchSize, len(units))
		batches = append(batches, Batch{
			ID:    uuid.New().String(),
			Seq:   len(batches),
			Units: units[start:end],
		})
	}
	return batches
}
