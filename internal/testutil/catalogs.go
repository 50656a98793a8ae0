package testutil

import (
	"github.com/roach88/forgeplan/internal/catalog"
	"github.com/roach88/forgeplan/internal/ir"
)

// Recipe builds a recipe producing out from inputs.
func Recipe(id string, cost int64, out ir.Matcher, inputs ...ir.Matcher) ir.Recipe {
	return ir.Recipe{ID: id, Cost: cost, Inputs: inputs, Outputs: []ir.Matcher{out}}
}

// ID is shorthand for ir.MustIdentity.
func ID(id string) ir.Matcher {
	return ir.MustIdentity(id)
}

// IDs returns identity matchers for ids.
func IDs(ids ...string) []ir.Matcher {
	out := make([]ir.Matcher, len(ids))
	for i, id := range ids {
		out[i] = ir.MustIdentity(id)
	}
	return out
}

// SmeltingCatalog is the steel example:
//
//	smelt_steel_coal     (5): iron_ingot + coal     -> steel_ingot
//	smelt_steel_charcoal (6): iron_ingot + charcoal -> steel_ingot
//
// charcoal has no recipe. coal and charcoal carry FUEL.
func SmeltingCatalog() *catalog.Catalog {
	return catalog.NewBuilder("smelting").
		Item("iron_ingot", "METAL").
		Item("coal", "FUEL", "MINERAL").
		Item("charcoal", "FUEL").
		Item("steel_ingot", "METAL", "ALLOY").
		Recipe(Recipe("smelt_steel_coal", 5, ID("steel_ingot"), ID("iron_ingot"), ID("coal"))).
		Recipe(Recipe("smelt_steel_charcoal", 6, ID("steel_ingot"), ID("iron_ingot"), ID("charcoal"))).
		MustBuild()
}

// CycleCatalog holds two mutually recursive recipes: a needs b, b needs a.
func CycleCatalog() *catalog.Catalog {
	return catalog.NewBuilder("cycle").
		Item("a").
		Item("b").
		Recipe(Recipe("make_a", 1, ID("a"), ID("b"))).
		Recipe(Recipe("make_b", 1, ID("b"), ID("a"))).
		MustBuild()
}

// ForgeCatalog is a three level chain with alternatives at every level:
//
//	sword  <- forge_sword(4):  steel_ingot + handle
//	steel_ingot <- smelt_steel_coal(5) | smelt_steel_coke(3)
//	coke   <- bake_coke(1):    coal
//	handle <- carve_handle(2): wood | buy_handle(7)
func ForgeCatalog() *catalog.Catalog {
	return catalog.NewBuilder("forge").
		Item("iron_ingot", "METAL").
		Item("coal", "FUEL").
		Item("coke", "FUEL").
		Item("wood", "ORGANIC").
		Item("handle", "PART").
		Item("steel_ingot", "METAL", "ALLOY").
		Item("sword", "WEAPON").
		Factory("blast_furnace", 2, "furnace").
		Factory("workbench", 1, "bench").
		Recipe(Recipe("forge_sword", 4, ID("sword"), ID("steel_ingot"), ID("handle"))).
		Recipe(Recipe("smelt_steel_coal", 5, ID("steel_ingot"), ID("iron_ingot"), ID("coal"))).
		Recipe(ir.Recipe{
			ID:       "smelt_steel_coke",
			Cost:     3,
			Inputs:   IDs("iron_ingot", "coke"),
			Outputs:  IDs("steel_ingot"),
			Selector: ir.RecipeSelector{FactoryGroups: []string{"furnace"}, MinLevel: 2},
		}).
		Recipe(Recipe("bake_coke", 1, ID("coke"), ID("coal"))).
		Recipe(Recipe("carve_handle", 2, ID("handle"), ID("wood"))).
		Recipe(Recipe("buy_handle", 7, ID("handle"))).
		MustBuild()
}
