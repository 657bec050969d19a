package domain

// Category is the advisory category tag attached to a transaction.
// Use ValidateCategory to ensure validity before use.
type Category string

const (
	CategorySalary      Category = "salary"
	CategoryInterest    Category = "interest"
	CategoryRefund      Category = "refund"
	CategoryTransferIn  Category = "transfer_in"
	CategoryOtherIncome Category = "other_income"

	CategoryCard         Category = "card"
	CategoryUtilities    Category = "utilities"
	CategoryTelecom      Category = "telecom"
	CategoryInsurance    Category = "insurance"
	CategoryTax          Category = "tax"
	CategoryFee          Category = "fee"
	CategoryRent         Category = "rent"
	CategoryLoan         Category = "loan"
	CategoryShopping     Category = "shopping"
	CategoryFood         Category = "food"
	CategoryTransferOut  Category = "transfer_out"
	CategoryCash         Category = "cash"
	CategoryOtherExpense Category = "other_expense"
)

var validCategories = map[Category]struct{}{
	CategorySalary: {}, CategoryInterest: {}, CategoryRefund: {},
	CategoryTransferIn: {}, CategoryOtherIncome: {},
	CategoryCard: {}, CategoryUtilities: {}, CategoryTelecom: {},
	CategoryInsurance: {}, CategoryTax: {}, CategoryFee: {},
	CategoryRent: {}, CategoryLoan: {}, CategoryShopping: {},
	CategoryFood: {}, CategoryTransferOut: {}, CategoryCash: {},
	CategoryOtherExpense: {},
}

// ValidateCategory checks if category is valid
func ValidateCategory(c Category) bool {
	_, ok := validCategories[c]
	return ok
}
