// Package matrix derives the genome×role presence matrix and per-genome
// subsystem states from the collected feature records. Everything here is a
// pure function of the record set: the matrix is rebuilt from scratch on every
// call and identical input always produces identical output.
package matrix

import (
	"sort"

	"github.com/nmorel/bvharvest/internal/feature"
)

// Matrix is a presence/absence table: Cells[genome][role] is true when any
// feature record exists for that pair, in any track.
type Matrix struct {
	Genomes []string
	Roles   []string
	Cells   map[string]map[string]bool
}

// Build constructs the matrix from records. Genomes and roles are sorted so
// output does not depend on collection order.
func Build(records []feature.Record) Matrix {
	cells := make(map[string]map[string]bool)
	roleSet := make(map[string]bool)

	for _, r := range records {
		if r.GenomeID == "" || r.Role == "" {
			continue
		}
		if cells[r.GenomeID] == nil {
			cells[r.GenomeID] = make(map[string]bool)
		}
		cells[r.GenomeID][r.Role] = true
		roleSet[r.Role] = true
	}

	genomes := make([]string, 0, len(cells))
	for g := range cells {
		genomes = append(genomes, g)
	}
	sort.Strings(genomes)

	roles := make([]string, 0, len(roleSet))
	for r := range roleSet {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	return Matrix{Genomes: genomes, Roles: roles, Cells: cells}
}

// RolesFor returns the sorted roles present in one genome.
func (m Matrix) RolesFor(genomeID string) []string {
	row := m.Cells[genomeID]
	roles := make([]string, 0, len(row))
	for r := range row {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// Has reports presence of one (genome, role) cell.
func (m Matrix) Has(genomeID, role string) bool {
	return m.Cells[genomeID][role]
}

// States classifies every genome in the matrix.
func States(m Matrix) map[string]State {
	states := make(map[string]State, len(m.Genomes))
	for _, g := range m.Genomes {
		states[g] = Classify(m.RolesFor(g))
	}
	return states
}

// Row is one line of the ordered feature table consumed by the exporters.
type Row struct {
	Track      string
	GenomeID   string
	GenomeName string
	Role       string
	SearchKind string
	Gene       string
	Product    string
	PatricID   string
	Start      int
	End        int
	Strand     string
}

// FeatureTable flattens records into rows ordered by (track, genome, role,
// start, patric id). The ordering is total so repeated builds are identical.
func FeatureTable(records []feature.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			Track:      r.Track,
			GenomeID:   r.GenomeID,
			GenomeName: r.GenomeName,
			Role:       r.Role,
			SearchKind: r.SearchKind,
			Gene:       r.Gene,
			Product:    r.Product,
			PatricID:   r.PatricID,
			Start:      r.Start,
			End:        r.End,
			Strand:     r.Strand,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		if a.GenomeID != b.GenomeID {
			return a.GenomeID < b.GenomeID
		}
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.PatricID < b.PatricID
	})
	return rows
}
