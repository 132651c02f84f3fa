package theology

import "strings"

// Category labels.
const (
	CategoryTheologyProper = "Teología Propia"
	CategoryBibliology     = "Bibliología"
	CategoryAnthropology   = "Antropología"
	CategoryChristology    = "Cristología"
	CategoryPneumatology   = "Pneumatología"
	CategorySoteriology    = "Soteriología"
	CategoryEcclesiology   = "Eclesiología"
	CategoryEschatology    = "Escatología"
	CategoryGeneral        = "Teología General"
)

type rule struct {
	category string
	keywords []string
}

// Order matters: the first matching rule wins.
var rules = []rule{
	{CategoryTheologyProper, []string{"dios", "trinidad", "atributos"}},
	{CategoryBibliology, []string{"biblia", "escritura", "inspiración"}},
	{CategoryAnthropology, []string{"hombre", "pecado", "caída"}},
	{CategoryChristology, []string{"cristo", "jesús", "encarnación"}},
	{CategoryPneumatology, []string{"espíritu", "santo", "pneumatología"}},
	{CategorySoteriology, []string{"salvación", "tulip", "gracia"}},
	{CategoryEcclesiology, []string{"iglesia", "sacramentos", "bautismo"}},
	{CategoryEschatology, []string{"futuro", "milenio", "juicio"}},
}

// Categorize assigns a doctrinal category to a user question by keyword.
func Categorize(message string) string {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return CategoryGeneral
}
