// Package catalog holds the items, factories and recipes a planner searches.
//
// A Catalog is assembled once through a Builder (or from a compiled
// ir.CatalogSpec) and is immutable afterwards. Every index the planner needs
// (recipes by output key, items by category) is computed in Build, so a
// Catalog may be shared by any number of concurrent queries without locking.
//
// Registration order is significant: RecipesProducing and ItemIDs return
// entries in the order they were registered, and the planner's tie-breaking
// depends on it.
package catalog
