package classify

// Rule binds a category name to the keywords that select it.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules is evaluated top to bottom; the first rule with any keyword
// contained in the normalised text wins. Categories overlap by content, so
// the order is part of the behaviour.
var DefaultRules = []Rule{
	{Category: "Politics", Keywords: []string{"election", "government", "minister", "policy", "parliament"}},
	{Category: "Business", Keywords: []string{"market", "economy", "trade", "inflation", "stock"}},
	{Category: "Technology", Keywords: []string{"ai", "tech", "software", "hardware", "startup"}},
	{Category: "Sports", Keywords: []string{"match", "goal", "team", "tournament", "league"}},
	{Category: "World News", Keywords: []string{"un", "international", "global", "conflict", "diplomacy"}},
	{Category: "Entertainment", Keywords: []string{"movie", "music", "celebrity", "tv", "film"}},
}

// DefaultTopics maps provider topic/section codes to category names.
var DefaultTopics = map[string]string{
	"world":         "World News",
	"business":      "Business",
	"technology":    "Technology",
	"sports":        "Sports",
	"sport":         "Sports",
	"entertainment": "Entertainment",
	"culture":       "Entertainment",
	"film":          "Entertainment",
	"music":         "Entertainment",
	"tv-and-radio":  "Entertainment",
	"nation":        "Politics",
	"politics":      "Politics",
	"general":       "General",
}
