package categorize

import "github.com/rumor-ml/finflow/internal/domain"

// bankCategoryTable maps the category labels French banks ship in their
// exports to canonical category IDs. Keys are stored accent-folded; lookups
// go through Normalize so "Alimentation" and "ALIMENTATION " hit the same
// entry. Labels not in the table simply do not map; the AI stage picks
// those transactions up.
var bankCategoryTable = map[string]domain.CategoryID{
	"salaires":                 domain.CategorySalary,
	"revenus":                  domain.CategorySalary,
	"virements recus":          domain.CategorySalary,
	"alimentation":             domain.CategoryGroceries,
	"supermarches / epiceries": domain.CategoryGroceries,
	"courses":                  domain.CategoryGroceries,
	"restaurants":              domain.CategoryRestaurant,
	"restaurants, bars":        domain.CategoryRestaurant,
	"cafes et restaurants":     domain.CategoryRestaurant,
	"transports":               domain.CategoryTransport,
	"peages":                   domain.CategoryTransport,
	"carburant":                domain.CategoryTransport,
	"trains, avions, ferrys":   domain.CategoryTransport,
	"logement":                 domain.CategoryHousing,
	"loyers":                   domain.CategoryHousing,
	"electricite, gaz, chauffage": domain.CategoryUtilities,
	"internet, tv, telephonie":    domain.CategoryUtilities,
	"telephonie":                  domain.CategoryUtilities,
	"sante":                       domain.CategoryHealth,
	"pharmacie":                   domain.CategoryHealth,
	"medecins":                    domain.CategoryHealth,
	"loisirs":                     domain.CategoryLeisure,
	"sorties, divertissements":    domain.CategoryLeisure,
	"sport":                       domain.CategoryLeisure,
	"shopping":                    domain.CategoryShopping,
	"vetements":                   domain.CategoryShopping,
	"high-tech, multimedia":       domain.CategoryShopping,
	"abonnements":                 domain.CategorySubscriptions,
	"abonnements et souscriptions": domain.CategorySubscriptions,
	"impots et taxes":              domain.CategoryTaxes,
	"impots":                       domain.CategoryTaxes,
	"epargne":                      domain.CategorySavings,
	"placements":                   domain.CategoryInvestment,
	"bourse":                       domain.CategoryInvestment,
	"virements internes":           domain.CategoryTransfer,
	"virements emis":               domain.CategoryTransfer,
}

// MapBankCategory resolves a bank-supplied category label to a canonical
// category ID. The boolean reports whether the label is known.
func MapBankCategory(rawCategory string) (domain.CategoryID, bool) {
	if rawCategory == "" {
		return "", false
	}
	id, ok := bankCategoryTable[Normalize(rawCategory)]
	return id, ok
}
