// internal/plan/types.go
package plan

// Strategy names the generator that produced a plan.
type Strategy string

const (
	StrategyNumbering   Strategy = "numbering"
	StrategyFullReplace Strategy = "full_replace"
	StrategyPartReplace Strategy = "part_replace"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyNumbering, StrategyFullReplace, StrategyPartReplace:
		return true
	}
	return false
}

// Pair is one proposed rename inside a single directory.
type Pair struct {
	Original string `json:"original"`
	Proposed string `json:"proposed"`
}

// Plan is an ordered list of renames. Order follows the listing and carries
// no meaning beyond presentation: renames are independent.
type Plan struct {
	Strategy Strategy `json:"strategy"`
	Pairs    []Pair   `json:"pairs"`
}

func (p Plan) Len() int { return len(p.Pairs) }

func (p Plan) Empty() bool { return len(p.Pairs) == 0 }

// Inverse swaps every pair, keeping order.
func (p Plan) Inverse() []Pair {
	inv := make([]Pair, len(p.Pairs))
	for i, pair := range p.Pairs {
		inv[i] = Pair{Original: pair.Proposed, Proposed: pair.Original}
	}
	return inv
}

// Collision describes one proposed name claimed by several originals.
type Collision struct {
	Proposed  string   `json:"proposed"`
	Originals []string `json:"originals"`
}
