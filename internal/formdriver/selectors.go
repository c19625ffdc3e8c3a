package formdriver

// Selectors lists the candidates for each logical field, in priority order.
type Selectors struct {
	Username    []Locator
	Password    []Locator
	LoginSubmit []Locator
	SectionLink []Locator
	EntryOpen   []Locator
	Editor      []Locator
	EntrySubmit []Locator
}

// outcomeScopes are searched for partial label matches after the exact match
// fails. Labels come first since they toggle their checkbox when clicked.
var outcomeScopes = []string{"label", "span, div, p, li"}

// DefaultSelectors returns the candidates known to work against ManageBac.
func DefaultSelectors() Selectors {
	return Selectors{
		Username: []Locator{
			CSS(`input[type="email"]`),
			CSS(`input[name="username"]`),
			CSS(`input[id="username"]`),
			CSS(`input[name="email"]`),
			CSS(`input[id="email"]`),
		},
		Password: []Locator{
			CSS(`input[type="password"]`),
			CSS(`input[name="password"]`),
			CSS(`input[id="password"]`),
		},
		LoginSubmit: []Locator{
			CSS(`button[type="submit"]`),
			CSS(`input[type="submit"]`),
			Text("button", "Sign in", false),
			Text("button", "Log in", false),
			Text("button", "Login", false),
		},
		SectionLink: []Locator{
			Text("a", "CAS", true),
			Text("a", "cas", false),
			CSS(`a[href*="cas"]`),
			CSS(`a[href*="CAS"]`),
		},
		EntryOpen: []Locator{
			ByRole(RoleLink, "Journal"),
			Text("a", "Journal", false),
			ByRole(RoleButton, "Journal"),
		},
		Editor: []Locator{
			CSS(`div[contenteditable="true"]`),
			CSS(`[contenteditable="true"]`),
			CSS(`.ql-editor`),
			CSS(`.ProseMirror`),
			CSS(`textarea`),
		},
		EntrySubmit: []Locator{
			ByRole(RoleButton, "Add Entry"),
			Text("button", "Add Entry", false),
			CSS(`input[type="submit"][value="Add Entry"]`),
		},
	}
}

// OutcomeLocators returns the candidates for one learning outcome label:
// exact text anywhere clickable, then substring within each outcome scope.
func OutcomeLocators(label string) []Locator {
	locs := []Locator{Text("label, span, div, p, li, a, button", label, true)}
	for _, scope := range outcomeScopes {
		locs = append(locs, Text(scope, label, false))
	}
	return locs
}
