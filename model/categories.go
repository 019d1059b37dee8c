package model

const (
	Income  = "income"
	Expense = "expense"
)

type Category struct {
	ID   int    `json:"id" validate:"numeric,gte=0"`
	Type string `json:"type" validate:"required,oneof=income expense"`
	Name string `json:"name" validate:"required,min=3,max=32"`
}

type Account struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// DefaultCategories is the catalogue seeded into the categories table.
var DefaultCategories = []Category{
	{ID: 1, Type: Expense, Name: "food"},
	{ID: 2, Type: Expense, Name: "transport"},
	{ID: 3, Type: Expense, Name: "entertainment"},
	{ID: 4, Type: Expense, Name: "bills"},
	{ID: 5, Type: Expense, Name: "other"},
	{ID: 6, Type: Income, Name: "salary"},
	{ID: 7, Type: Income, Name: "sales"},
	{ID: 8, Type: Income, Name: "gift"},
	{ID: 9, Type: Income, Name: "other"},
}

var Accounts = []Account{
	{Type: Expense, Name: "cash"},
	{Type: Expense, Name: "debit"},
	{Type: Expense, Name: "credit"},
	{Type: Expense, Name: "transfer"},
	{Type: Income, Name: "cash"},
	{Type: Income, Name: "main_account"},
	{Type: Income, Name: "transfer"},
}

func AccountNames(txType string) []string {
	names := []string{}
	for _, a := range Accounts {
		if a.Type == txType {
			names = append(names, a.Name)
		}
	}
	return names
}

func CategoryNames(categories []Category, txType string) []string {
	names := []string{}
	for _, c := range categories {
		if c.Type == txType {
			names = append(names, c.Name)
		}
	}
	return names
}
