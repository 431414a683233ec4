package domain

// CategoryOther is the fallback for unknown categories
const CategoryOther = "Outros"

// CategoryDreams is the category used for dream contributions
const CategoryDreams = "Sonhos"

var expenseCategories = []string{
	"Alimentação",
	"Transporte",
	"Moradia",
	"Saúde",
	"Educação",
	"Lazer",
	"Compras",
	"Contas",
	CategoryDreams,
	CategoryOther,
}

var incomeCategories = []string{
	"Salário",
	"Freelance",
	"Investimentos",
	CategoryOther,
}

// Categories returns the fixed category list for a transaction type
func Categories(t TransactionType) []string {
	var src []string
	switch t {
	case TransactionTypeIncome:
		src = incomeCategories
	case TransactionTypeExpense:
		src = expenseCategories
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// IsKnownCategory reports whether category belongs to the list for t
func IsKnownCategory(t TransactionType, category string) bool {
	for _, c := range Categories(t) {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeCategory maps unknown or empty categories to CategoryOther
func NormalizeCategory(t TransactionType, category string) string {
	if IsKnownCategory(t, category) {
		return category
	}
	return CategoryOther
}
