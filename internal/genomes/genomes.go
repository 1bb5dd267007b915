// Package genomes loads the curated representative-genome list that bounds
// every search. The list is a TSV with a header row: genome_id, genome_name,
// rep100, rep200.
package genomes

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type Genome struct {
	ID     string
	Name   string
	Rep100 string
	Rep200 string
}

// Load reads genomes from path. limit > 0 caps the number returned; rows with
// fewer than two populated columns are skipped.
func Load(path string, limit int) ([]Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open representative genomes: %w", err)
	}
	defer f.Close()

	var genomes []Genome
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false // header
			continue
		}
		if limit > 0 && len(genomes) >= limit {
			break
		}

		parts := strings.Split(strings.TrimRight(scanner.Text(), "\r\n"), "\t")
		if len(parts) < 2 {
			continue
		}
		id := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if id == "" || name == "" {
			continue
		}

		g := Genome{ID: id, Name: name}
		if len(parts) > 2 {
			g.Rep100 = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			g.Rep200 = strings.TrimSpace(parts[3])
		}
		genomes = append(genomes, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read representative genomes: %w", err)
	}

	return genomes, nil
}

// IDs extracts the genome identifiers in list order.
func IDs(genomes []Genome) []string {
	ids := make([]string, 0, len(genomes))
	for _, g := range genomes {
		ids = append(ids, g.ID)
	}
	return ids
}
