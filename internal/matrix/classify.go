package matrix

import "strings"

// State is the integrated amyloid-copper-SOD subsystem call for one genome.
type State string

const (
	StateActive   State = "active"
	StateLikely   State = "likely"
	StateUnknown  State = "unknown"
	StateInactive State = "inactive"
)

// System groups roles into the three biological subsystems the pipeline
// searches for.
type System string

const (
	SystemAmyloid System = "amyloid"
	SystemCopper  System = "copper"
	SystemSOD     System = "sod"
)

// canonicalRoles maps the curated role identifiers to their subsystem.
var canonicalRoles = map[string]System{
	// Amyloid systems
	"csga": SystemAmyloid, "csgb": SystemAmyloid, "agfa": SystemAmyloid,
	"agfb": SystemAmyloid, "tasa": SystemAmyloid, "fapc": SystemAmyloid,
	"psm": SystemAmyloid, "chpd": SystemAmyloid,
	// Copper homeostasis
	"ctra": SystemCopper, "copa": SystemCopper, "cusa": SystemCopper,
	"cueo": SystemCopper, "copz": SystemCopper, "cuer": SystemCopper,
	"cusr": SystemCopper, "copy": SystemCopper,
	// SOD and antioxidant defense
	"soda": SystemSOD, "sodb": SystemSOD, "sodc": SystemSOD, "cat": SystemSOD,
}

// gene-name prefixes for roles outside the canonical twenty.
var systemPrefixes = []struct {
	prefix string
	system System
}{
	{"csg", SystemAmyloid}, {"agf", SystemAmyloid}, {"tas", SystemAmyloid},
	{"tap", SystemAmyloid}, {"fap", SystemAmyloid}, {"chp", SystemAmyloid},
	{"cop", SystemCopper}, {"cus", SystemCopper}, {"cue", SystemCopper},
	{"ctr", SystemCopper}, {"cut", SystemCopper}, {"sco", SystemCopper},
	{"tcu", SystemCopper},
	{"sod", SystemSOD}, {"kat", SystemSOD}, {"ahp", SystemSOD},
	{"trx", SystemSOD}, {"grx", SystemSOD}, {"gsh", SystemSOD},
}

// product keywords for functional search terms. SOD keywords are checked
// first: terms like "copper zinc superoxide dismutase" name a SOD enzyme,
// not a copper transporter.
var systemKeywords = []struct {
	keyword string
	system  System
}{
	{"superoxide", SystemSOD}, {"catalase", SystemSOD}, {"peroxid", SystemSOD},
	{"antioxidant", SystemSOD}, {"oxidative", SystemSOD}, {"thioredoxin", SystemSOD},
	{"glutaredoxin", SystemSOD}, {"glutathione", SystemSOD}, {"reactive oxygen", SystemSOD},
	{"amyloid", SystemAmyloid}, {"curli", SystemAmyloid}, {"biofilm", SystemAmyloid},
	{"modulin", SystemAmyloid}, {"chaplin", SystemAmyloid},
	{"copper", SystemCopper}, {"cuprous", SystemCopper}, {"heavy metal", SystemCopper},
	{"metal tolerance", SystemCopper},
}

// SystemOf maps a role name or search term to its subsystem. Resolution order:
// canonical role table, gene-name prefix (single-token roles only), product
// keyword. Multi-word terms skip the prefix pass: "copper zinc superoxide
// dismutase" names a SOD enzyme, and must not resolve through the "cop"
// prefix. Roles that resolve nowhere return ok == false and contribute no
// subsystem to classification.
func SystemOf(role string) (System, bool) {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "", false
	}
	if s, ok := canonicalRoles[r]; ok {
		return s, true
	}
	if !strings.ContainsRune(r, ' ') {
		for _, p := range systemPrefixes {
			if strings.HasPrefix(r, p.prefix) {
				return p.system, true
			}
		}
	}
	for _, k := range systemKeywords {
		if strings.Contains(r, k.keyword) {
			return k.system, true
		}
	}
	return "", false
}

// Classify evaluates the four-level state for a genome from the set of roles
// detected in it. The decision table is total and first-match-wins, priority
// active > likely > unknown > inactive:
//
//	all three subsystems represented -> active
//	exactly two subsystems           -> likely
//	exactly one, or any role at all  -> unknown
//	no roles                         -> inactive
func Classify(roles []string) State {
	systems := make(map[System]bool)
	anyRole := false
	for _, role := range roles {
		if strings.TrimSpace(role) == "" {
			continue
		}
		anyRole = true
		if s, ok := SystemOf(role); ok {
			systems[s] = true
		}
	}

	switch {
	case systems[SystemAmyloid] && systems[SystemCopper] && systems[SystemSOD]:
		return StateActive
	case len(systems) == 2:
		return StateLikely
	case anyRole:
		return StateUnknown
	default:
		return StateInactive
	}
}

// SystemCounts reports how many of a genome's roles fall in each subsystem.
func SystemCounts(roles []string) map[System]int {
	counts := make(map[System]int)
	for _, role := range roles {
		if s, ok := SystemOf(role); ok {
			counts[s]++
		}
	}
	return counts
}
