package dataset

// salesSignals are column names that indicate an order/revenue style dataset.
// Two or more matches label the dataset "sales"; the threshold is a heuristic
// and question answering never depends on the label.
var salesSignals = map[string]struct{}{
	"order_id":   {},
	"order_date": {},
	"date":       {},
	"category":   {},
	"style":      {},
	"sku":        {},
	"qty":        {},
	"pcs":        {},
	"amount":     {},
	"revenue":    {},
	"gross_amt":  {},
	"state":      {},
	"ship_state": {},
}

// canonicalAliases maps normalized header variants onto one canonical column
// name. Applied only to sales-labelled datasets.
var canonicalAliases = map[string]string{
	"order_id": "order_id",
	"orderid":  "order_id",

	"date":       "order_date",
	"order_date": "order_date",

	"category": "category",
	"style":    "category",
	"product":  "category",

	"qty":      "qty",
	"quantity": "qty",
	"pcs":      "qty",

	"amount":    "revenue",
	"revenue":   "revenue",
	"gross_amt": "revenue",

	"state":        "state",
	"ship_state":   "state",
	"city":         "city",
	"ship_city":    "city",
	"country":      "country",
	"ship_country": "country",

	"status": "status",
}

func Classify(names []string) Type {
	matches := 0
	for _, name := range names {
		if _, ok := salesSignals[name]; ok {
			matches++
		}
	}
	if matches >= 2 {
		return TypeSales
	}
	return TypeGeneric
}

// ApplyAliases rewrites known header variants to their canonical names,
// preserving order. Names without an alias pass through unchanged.
func ApplyAliases(names []string) []string {
	aliased := make([]string, 0, len(names))
	for _, name := range names {
		if canonical, ok := canonicalAliases[name]; ok {
			aliased = append(aliased, canonical)
			continue
		}
		aliased = append(aliased, name)
	}
	return aliased
}
