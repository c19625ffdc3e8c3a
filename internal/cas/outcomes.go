package cas

import (
	"sort"
	"strconv"
	"strings"
)

// outcomeLabels are the exact label texts the journal form shows next to each
// learning outcome toggle.
var outcomeLabels = map[string]string{
	"1": "Identify own strengths and develop areas for growth",
	"2": "Demonstrate that challenges have been undertaken",
	"3": "Demonstrate how to initiate and plan a CAS experience",
	"4": "Show commitment to and perseverance in CAS experiences",
	"5": "Demonstrate the skills and recognize the benefits of working collaboratively",
	"6": "Demonstrate engagement with issues of global significance",
	"7": "Recognize and consider the ethics of choices and actions",
}

// shortOutcomeLabels are the menu texts used by interactive prompts.
var shortOutcomeLabels = map[string]string{
	"1": "Identify strengths and develop areas for growth",
	"2": "Demonstrate challenges and new skills",
	"3": "Initiate and plan a CAS experience",
	"4": "Show commitment and perseverance",
	"5": "Work collaboratively",
	"6": "Engage with global significance",
	"7": "Consider ethics of choices and actions",
}

// OutcomeLabel resolves a learning outcome code. Codes may carry an "LO"
// prefix or surrounding space; unknown codes report false.
func OutcomeLabel(code string) (string, bool) {
	label, ok := outcomeLabels[normalizeCode(code)]
	return label, ok
}

// KnownOutcomeCodes returns the known codes in order.
func KnownOutcomeCodes() []string {
	codes := make([]string, 0, len(outcomeLabels))
	for code := range outcomeLabels {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, _ := strconv.Atoi(codes[i])
		b, _ := strconv.Atoi(codes[j])
		return a < b
	})
	return codes
}

// OutcomeMenu renders the numbered short labels for prompts.
func OutcomeMenu() string {
	var b strings.Builder
	for _, code := range KnownOutcomeCodes() {
		b.WriteString(code)
		b.WriteString(" - ")
		b.WriteString(shortOutcomeLabels[code])
		b.WriteString("\n")
	}
	return b.String()
}

// ParseOutcomes splits "1, 5,LO4" into normalized codes, dropping blanks and
// duplicates while keeping first-seen order. Unknown codes are kept: the form
// driver skips them with a warning.
func ParseOutcomes(input string) []string {
	return NormalizeOutcomes(strings.Split(input, ","))
}

// NormalizeOutcomes applies the ParseOutcomes rules to an already split list.
func NormalizeOutcomes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = normalizeCode(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func normalizeCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.TrimPrefix(strings.ToUpper(code), "LO")
	return strings.TrimSpace(code)
}
