// Package feature defines the record produced for every genomic feature
// matched by a search, as returned by the BV-BRC genome_feature collection.
package feature

import "encoding/json"

type Record struct {
	GenomeID     string `json:"genome_id"`
	GenomeName   string `json:"genome_name,omitempty"`
	Role         string `json:"role"`
	SearchKind   string `json:"search_kind"`
	Track        string `json:"track"`
	PatricID     string `json:"patric_id,omitempty"`
	Accession    string `json:"accession,omitempty"`
	Gene         string `json:"gene,omitempty"`
	Product      string `json:"product,omitempty"`
	FeatureType  string `json:"feature_type,omitempty"`
	Start        int    `json:"start,omitempty"`
	End          int    `json:"end,omitempty"`
	Strand       string `json:"strand,omitempty"`
	OrganismName string `json:"organism_name,omitempty"`
	TaxonID      int    `json:"taxon_id,omitempty"`
}

func (r *Record) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	return string(data), err
}

func FromJSON(data string) (*Record, error) {
	var r Record
	err := json.Unmarshal([]byte(data), &r)
	return &r, err
}
