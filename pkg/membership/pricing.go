package membership

import (
	"fmt"
	"strings"
)

type Level string

const (
	LevelBronze Level = "Bronze"
	LevelSilver Level = "Silver"
	LevelGold   Level = "Gold"
)

type Term string

const (
	TermMonth Term = "Month"
	TermYear  Term = "Year"
)

// priceTable holds the fixed tier pricing in dollars.
var priceTable = map[string]float64{
	"Bronze-Month": 5,
	"Bronze-Year":  50,
	"Silver-Month": 10,
	"Silver-Year":  100,
	"Gold-Month":   25,
	"Gold-Year":    250,
}

// ParseLevel maps the wire-level tier name case-insensitively.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "bronze":
		return LevelBronze, true
	case "silver":
		return LevelSilver, true
	case "gold":
		return LevelGold, true
	}
	return "", false
}

// ParseTerm maps the wire-level term name case-insensitively.
func ParseTerm(s string) (Term, bool) {
	switch strings.ToLower(s) {
	case "monthly":
		return TermMonth, true
	case "annual":
		return TermYear, true
	}
	return "", false
}

// Price looks up the fixed price for a tier and term. Validation constrains
// the domain before this is reached, so a miss is a programming error.
func Price(level Level, term Term) (float64, error) {
	price, ok := priceTable[fmt.Sprintf("%s-%s", level, term)]
	if !ok {
		return 0, fmt.Errorf("no price for membership %s-%s", level, term)
	}
	return price, nil
}
