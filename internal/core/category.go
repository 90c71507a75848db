package core

import "strings"

// Category is the machine name of one of the fixed expense categories.
// The zero value is not a valid category.
type Category string

const (
	Educacao          Category = "educacao"
	LazerFesta        Category = "lazerfesta"
	RestauranteLanche Category = "restaurantelanche"
	Uber              Category = "uber"
	Mercado           Category = "mercado"
	Moto              Category = "moto"
	Compras           Category = "compras"
	Outros            Category = "outros"
	Estetica          Category = "estetica"
	Limpeza           Category = "limpeza"
	SaudeEFarmacia    Category = "saudeefarmacia"
)

type categoryInfo struct {
	category    Category
	displayName string
}

// categoryTable is the single source of truth for categories. Order is the
// order used when listing them back to the user.
var categoryTable = []categoryInfo{
	{Educacao, "Educacao"},
	{LazerFesta, "Lazer / Festa"},
	{RestauranteLanche, "Restaurante / Lanche"},
	{Uber, "Uber"},
	{Mercado, "Mercado"},
	{Moto, "Moto"},
	{Compras, "Compras"},
	{Outros, "Outros"},
	{Estetica, "Estetica"},
	{Limpeza, "Limpeza"},
	{SaudeEFarmacia, "Saude e Farmacia"},
}

var categoriesByName = func() map[string]categoryInfo {
	m := make(map[string]categoryInfo, len(categoryTable))
	for _, c := range categoryTable {
		m[string(c.category)] = c
	}
	return m
}()

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	for i, c := range categoryTable {
		out[i] = c.category
	}
	return out
}

// ParseCategory matches free user text against the machine names after
// normalizing it with NormalizeText.
func ParseCategory(text string) (Category, bool) {
	c, ok := categoriesByName[NormalizeText(text)]
	if !ok {
		return "", false
	}
	return c.category, true
}

// CategoryFromName looks up a stored machine name without normalizing it.
func CategoryFromName(name string) (Category, error) {
	c, ok := categoriesByName[name]
	if !ok {
		return "", ErrUnknownCategory
	}
	return c.category, nil
}

func (c Category) IsValid() bool {
	_, ok := categoriesByName[string(c)]
	return ok
}

// DisplayName returns the human label used in replies.
func (c Category) DisplayName() string {
	if info, ok := categoriesByName[string(c)]; ok {
		return info.displayName
	}
	return string(c)
}

// String implements fmt.Stringer
func (c Category) String() string {
	return string(c)
}

// DisplayNames lists every display name, one per line.
func DisplayNames() string {
	categories := Categories()
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.DisplayName()
	}
	return strings.Join(names, "\n")
}
