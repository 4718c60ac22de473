package normalize

import (
	"regexp"
	"strings"
)

// Rule pairs a food-family pattern with the template that rebuilds a clean
// name from its capture groups. A match is rejected when Exclude also matches
// the description.
type Rule struct {
	Name     string
	Priority int
	Pattern  *regexp.Regexp
	Exclude  *regexp.Regexp
	Template string

	tmpl template
}

// NewRule compiles a rule. Patterns are matched case-insensitively.
func NewRule(name string, priority int, pattern, exclude, tmpl string) Rule {
	r := Rule{
		Name:     name,
		Priority: priority,
		Pattern:  regexp.MustCompile("(?i)" + pattern),
		Template: tmpl,
		tmpl:     mustParseTemplate(tmpl),
	}
	if exclude != "" {
		r.Exclude = regexp.MustCompile("(?i)" + exclude)
	}
	if r.tmpl.maxGroup() > r.Pattern.NumSubexp() {
		panic("normalize: rule " + name + " references a group its pattern does not capture")
	}
	return r
}

// apply returns the rendered name and whether the rule matched.
func (r Rule) apply(raw string) (string, bool) {
	groups := r.Pattern.FindStringSubmatch(raw)
	if groups == nil {
		return "", false
	}
	if r.Exclude != nil && r.Exclude.MatchString(raw) {
		return "", false
	}
	return r.tmpl.render(groups), true
}

// preparations builds the trailing "(prep)" fragment. Several preparation
// words in a row ("cooked, roasted") resolve to the last, most specific one,
// which lands in the single capture group. A leading "(" is tolerated so that
// already-normalized names match their own rule again.
func preparations(words ...string) string {
	alt := strings.Join(words, "|")
	return `(?:,?\s*\(?(?:(?:` + alt + `),?\s*)*(` + alt + `))?`
}

// leading builds an optional qualifier that may precede the base name, as in
// "Greek Yogurt", so normalized output round-trips.
func leading(words ...string) string {
	return `(?:(` + strings.Join(words, "|") + `)\s+)?`
}

func oneOf(words ...string) string {
	return `(` + strings.Join(words, "|") + `)`
}

var (
	meatPreps   = []string{"cooked", "raw", "roasted", "grilled", "baked", "broiled", "fried", "braised", "stewed", "smoked"}
	grainPreps  = []string{"cooked", "raw", "boiled", "steamed"}
	veggiePreps = []string{"cooked", "raw", "steamed", "boiled"}
	eggPreps    = []string{"cooked", "raw", "boiled", "fried", "scrambled", "poached"}

	poultryCuts = []string{"breast", "thigh", "drumstick", "leg", "wing", "tender"}
	beefCuts    = []string{"tenderloin", "ribeye", "sirloin", "strip", "t-bone", "porterhouse", "flank", "skirt", "brisket", "chuck", "round"}
	porkCuts    = []string{"chop", "tenderloin", "loin", "shoulder", "ribs?", "belly", "ham"}
	fishNames   = []string{"salmon", "tuna", "tilapia", "cod", "mahi", "trout", "halibut", "snapper"}
	riceTypes   = []string{"wild", "brown", "white", "basmati", "jasmine", "arborio", "sushi"}
	potatoTypes = []string{"sweet", "white", "red", "russet"}
	yogurtStyle = []string{"greek", "plain"}
	milkFat     = []string{"whole", "skim", "1%", "2%", "nonfat"}
	milkKind    = []string{"cow's?", "almond", "soy", "oat"}
	cheeseTypes = []string{"cheddar", "mozzarella", "parmesan", "feta", "swiss", "provolone", "gouda"}
	breadTypes  = []string{"whole wheat", "white", "wheat", "rye", "sourdough"}
	oatStyles   = []string{"rolled", "steel-cut", "instant"}
	beanTypes   = []string{"black", "kidney", "pinto", "navy"}
)

// DefaultRules is the built-in rule table. Order within one priority is the
// evaluation order. New families are added by appending rows.
var DefaultRules = []Rule{
	NewRule("chicken-cut", 10,
		`chicken(?:,?\s*broilers or fryers)?(?:,?\s*(?:dark|white)\s+meat)?(?:,?\s+meat)?(?:,?\s+meat only)?(?:,?\s*)?`+
			oneOf(poultryCuts...)+`s?,?\s*(?:meat only)?(?:,?\s*and skin)?`+preparations(meatPreps...),
		"", "Chicken {cap:1}{paren:2}"),
	NewRule("chicken", 9,
		`^chicken,?\s*(?:broilers or fryers)?(?:,?\s+meat)?(?:,?\s+whole)?`,
		`breast|thigh|drumstick|leg|wing|tender|noodle|soup|broth|stock|ground`,
		"Chicken"),
	NewRule("ground-meat", 9,
		`(beef|turkey|chicken|pork),?\s*ground,?\s*(\d+)%?\s*lean(?:\s*meat)?\s*/?\s*(\d+)%?\s*fat`,
		"", "Ground {cap:1} {raw:2}/{raw:3}"),
	NewRule("beef-cut", 9,
		`beef,?\s*(?:choice|select|prime)?,?\s*(?:top|bottom)?\s*`+oneOf(beefCuts...)+`(?:\s+steak|\s+roast)?`+
			preparations("raw", "cooked", "grilled", "roasted", "broiled", "braised"),
		"", "Beef {cap:1}{paren:2}"),
	NewRule("pork-cut", 9,
		`pork,?\s*(?:fresh,?\s*)?`+oneOf(porkCuts...)+`s?`+preparations("raw", "cooked", "grilled", "roasted", "smoked", "braised"),
		"", "Pork {cap:1}{paren:2}"),
	NewRule("fish", 8,
		oneOf(fishNames...)+`,?\s*(fillet|steak)?`+preparations("cooked", "raw", "baked", "grilled", "broiled", "smoked"),
		"", "{cap:1}{paren:3}"),
	NewRule("rice-snack", 8,
		`(?:snacks?,?)?\s*rice\s+(crackers?|cakes?)`,
		"", "Rice {cap:1}"),
	NewRule("rice-leading", 7,
		`^`+oneOf(riceTypes...)+`\s+rice,?\s*(?:long-grain|short-grain|medium-grain)?`+preparations(grainPreps...),
		"", "{cap:1} Rice{paren:2}"),
	NewRule("rice-trailing", 7,
		`^rice,?\s+`+oneOf(riceTypes...)+`(?:\s+rice)?,?\s*(?:long-grain|short-grain|medium-grain)?`+preparations(grainPreps...),
		"", "{cap:1} Rice{paren:2}"),
	NewRule("pasta", 7,
		leading("whole-wheat", "enriched")+`pasta,?\s*(whole-wheat|enriched)?`+preparations("cooked", "dry", "uncooked"),
		"", "{capsp:1,2}Pasta{paren:3}"),
	NewRule("vegetable", 6,
		`\b(broccoli|spinach|kale|carrots|zucchini|asparagus|green beans|cauliflower)`+preparations(veggiePreps...),
		"", "{cap:1}{paren:2}"),
	NewRule("potato", 6,
		leading(potatoTypes...)+`\bpotato(?:es)?,?\s*`+oneOf(potatoTypes...)+`?`+preparations("baked", "boiled", "roasted", "mashed"),
		"", "{capsp:1,2}Potato{paren:3}"),
	NewRule("egg", 5,
		`\beggs?\b,?\s*(?:whole\b,?\s*)?`+preparations(eggPreps...),
		`\b(white|whites|yolk|substitute|noodles?|nog)\b`,
		"Egg{paren:1}"),
	NewRule("yogurt", 4,
		leading(yogurtStyle...)+`yogurt,?\s*`+oneOf(yogurtStyle...)+`?,?\s*\(?(nonfat|low-fat|whole milk)?`,
		"", "{capsp:1,2}Yogurt{paren:3}"),
	NewRule("milk", 4,
		`\b`+leading(milkFat...)+leading(milkKind...)+`milk\b,?\s*`+oneOf(milkFat...)+`?,?\s*`+oneOf(milkKind...)+`?`,
		`\b(cheese|yogurt)\b`, "{capsp:1,3}{capsp:2,4}Milk"),
	NewRule("cheese", 3,
		leading(cheeseTypes...)+`cheese,?\s*`+oneOf(cheeseTypes...)+`?,?\s*\(?(shredded|block|sliced)?`,
		"", "{capsp:1,2}Cheese{paren:3}"),
	NewRule("bread", 3,
		leading(breadTypes...)+`bread,?\s*`+oneOf(breadTypes...)+`?,?\s*\(?(sliced|loaf)?`,
		"", "{capsp:1,2}Bread{paren:3}"),
	NewRule("oats", 3,
		`\b`+leading(oatStyles...)+`oats?\b,?\s*`+oneOf(oatStyles...)+`?`+preparations("cooked", "dry"),
		"", "{capsp:1,2}Oats{paren:3}"),
	NewRule("beans", 3,
		leading(beanTypes...)+`\bbeans?\b,?\s*(black|kidney|pinto|navy|chickpeas|lentils)?`+preparations("cooked", "canned", "dry"),
		"", "{capsp:1,2}Beans{paren:3}"),
	NewRule("nuts", 3,
		`\bnuts?\b,?\s*(almonds?|walnuts?|pecans?|cashews?|peanuts?)?`+preparations("roasted", "raw", "salted"),
		"", "{cap:1|Mixed Nuts}{paren:2}"),
	NewRule("fruit", 2,
		`\b(apple|banana|orange|strawberr(?:y|ies)|blueberr(?:y|ies)|grape|mango|pineapple)s?`+preparations("fresh", "frozen", "dried"),
		"", "{cap:1}{paren:2}"),
}

// fallbackRule keeps the text before the first separator. It is always the
// last rule a Normalizer evaluates.
var fallbackRule = NewRule("first-segment", 0, `^[\s,;]*([^,;]+)`, "", "{raw:1}")
