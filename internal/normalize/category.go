package normalize

import "strings"

// Category is a coarse food grouping. Sub is empty for groups without
// subdivisions.
type Category struct {
	Main string `json:"category"`
	Sub  string `json:"subcategory,omitempty"`
}

// String renders "main/sub", or just main.
func (c Category) String() string {
	if c.Sub == "" {
		return c.Main
	}
	return c.Main + "/" + c.Sub
}

type categoryRule struct {
	category Category
	keywords []string
}

// Checked in order; the first rule with any keyword contained in the
// description wins.
var categoryRules = []categoryRule{
	{Category{"protein_meat", "poultry"}, []string{"chicken", "turkey", "duck", "goose"}},
	{Category{"protein_meat", "red_meat"}, []string{"beef", "pork", "lamb", "veal"}},
	{Category{"protein_fish", "fatty_fish"}, []string{"salmon", "tuna", "trout", "mackerel", "sardine"}},
	{Category{"protein_fish", "white_fish"}, []string{"cod", "tilapia", "halibut", "flounder"}},
	{Category{"protein_fish", "shellfish"}, []string{"shrimp", "crab", "lobster"}},
	{Category{"protein_eggs_dairy", "eggs"}, []string{"egg"}},
	{Category{"protein_eggs_dairy", "dairy"}, []string{"milk", "yogurt", "cheese", "cottage"}},
	{Category{"vegetables", "leafy_greens"}, []string{"spinach", "kale", "lettuce", "arugula"}},
	{Category{"vegetables", "cruciferous"}, []string{"broccoli", "cauliflower", "carrot", "pepper"}},
	{Category{Main: "fruits"}, []string{"apple", "banana", "orange", "berry", "berries"}},
	{Category{Main: "grains"}, []string{"rice", "pasta", "bread", "oats"}},
	{Category{Main: "legumes"}, []string{"beans", "lentil", "chickpea", "pea"}},
	{Category{Main: "nuts_seeds"}, []string{"almond", "walnut", "cashew", "seed"}},
	{Category{Main: "oils_fats"}, []string{"oil", "butter", "avocado"}},
}

// Other is the category of anything no keyword recognizes.
var Other = Category{Main: "other"}

// Categorize classifies a raw or normalized description by keyword.
func Categorize(description string) Category {
	lower := strings.ToLower(description)
	for _, r := range categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return Other
}
