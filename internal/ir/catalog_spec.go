package ir

import "slices"

// CatalogSpec is the declarative content of a catalog, in registration order.
// It is what the compiler produces and what the store persists.
type CatalogSpec struct {
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	Factories []Factory `json:"factories"`
	Recipes   []Recipe  `json:"recipes"`
}

// ToIR returns the catalog as an IR object for canonical hashing.
func (s CatalogSpec) ToIR() IRObject {
	items := make(IRArray, len(s.Items))
	for i, it := range s.Items {
		items[i] = IRObject{
			"id":         IRString(it.ID),
			"categories": stringArray(it.Categories),
		}
	}
	factories := make(IRArray, len(s.Factories))
	for i, f := range s.Factories {
		factories[i] = IRObject{
			"id":     IRString(f.ID),
			"groups": stringArray(f.Groups),
			"level":  IRInt(f.Level),
		}
	}
	recipes := make(IRArray, len(s.Recipes))
	for i, r := range s.Recipes {
		recipes[i] = IRObject{
			"id":      IRString(r.ID),
			"ordered": IRBool(r.Ordered),
			"cost":    IRInt(r.Cost),
			"inputs":  stringArray(MatcherKeys(r.Inputs)),
			"outputs": stringArray(MatcherKeys(r.Outputs)),
			"selector": IRObject{
				"factories": stringArray(r.Selector.FactoryIDs),
				"groups":    stringArray(r.Selector.FactoryGroups),
				"min_level": IRInt(r.Selector.MinLevel),
			},
		}
	}
	return IRObject{
		"name":      IRString(s.Name),
		"items":     items,
		"factories": factories,
		"recipes":   recipes,
	}
}

// Clone returns a deep copy of the slices in s.
func (s CatalogSpec) Clone() CatalogSpec {
	out := CatalogSpec{Name: s.Name}
	for _, it := range s.Items {
		out.Items = append(out.Items, Item{ID: it.ID, Categories: slices.Clone(it.Categories)})
	}
	for _, f := range s.Factories {
		out.Factories = append(out.Factories, Factory{ID: f.ID, Groups: slices.Clone(f.Groups), Level: f.Level})
	}
	for _, r := range s.Recipes {
		r.Inputs = slices.Clone(r.Inputs)
		r.Outputs = slices.Clone(r.Outputs)
		r.Selector.FactoryIDs = slices.Clone(r.Selector.FactoryIDs)
		r.Selector.FactoryGroups = slices.Clone(r.Selector.FactoryGroups)
		out.Recipes = append(out.Recipes, r)
	}
	return out
}

func stringArray(ss []string) IRArray {
	arr := make(IRArray, len(ss))
	for i, s := range ss {
		arr[i] = IRString(s)
	}
	return arr
}
