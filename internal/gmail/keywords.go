package gmail

import "strings"

// financeKeywords gates which inbox messages are worth surfacing.
// Matching is case-insensitive against subject and body.
var financeKeywords = []string{
	"market",
	"stock",
	"stocks",
	"equity",
	"equities",
	"earnings",
	"dividend",
	"portfolio",
	"invest",
	"investing",
	"investment",
	"trading",
	"trade",
	"crypto",
	"bitcoin",
	"ethereum",
	"etf",
	"bond",
	"bonds",
	"fed",
	"inflation",
	"interest rate",
	"ipo",
	"nasdaq",
	"s&p",
	"dow",
	"bull",
	"bear",
	"recession",
	"gdp",
}

// Relevant reports whether a message looks like market or finance
// content rather than general inbox noise.
func Relevant(msg Message) bool {
	haystack := strings.ToLower(msg.Subject + " " + msg.Snippet + " " + msg.Body)
	for _, kw := range financeKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
