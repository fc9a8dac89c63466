package block

// Comparator enumerates the condition kinds shared by KeyCheck and IfElse
// (spec.md §4.C): both evaluate over an interpolated source string.
type Comparator string

const (
	CompContains    Comparator = "Contains"
	CompNotContains Comparator = "NotContains"
	CompEqualTo     Comparator = "EqualTo"
	CompNotEqualTo  Comparator = "NotEqualTo"
	CompMatchRegex  Comparator = "MatchesRegex"
	CompGreaterThan Comparator = "GreaterThan"
	CompLessThan    Comparator = "LessThan"
	CompExists      Comparator = "Exists"
	CompNotExists   Comparator = "NotExists"
)

// Condition is one OR-combined term of a Keychain.
type Condition struct {
	Source     string // template, interpolated before comparison
	Comparator Comparator
	Value      string // comparison operand, also interpolated
}

// Keychain fires its Status if any of its Conditions holds.
type Keychain struct {
	Status     string // BotStatus name: Success/Fail/Ban/Retry/Custom
	Conditions []Condition
}

// KeyCheckSettings: an ordered list of keychains, first-match-wins.
type KeyCheckSettings struct {
	Keychains  []Keychain
	StopOnFail bool
}

func (KeyCheckSettings) blockSettings() {}
