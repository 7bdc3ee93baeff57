package market

import (
	"fmt"
	"sort"
	"strings"
)

// Split 把 BASE/QUOTE 形式的交易对拆成基础币与计价币。
func Split(symbol string) (string, string, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("非法交易对 %q", symbol)
	}
	return parts[0], parts[1], nil
}

// Join 拼出 BASE/QUOTE 形式的交易对。
func Join(base, quote string) string {
	return base + "/" + quote
}

// Reverse 交换交易对的基础币与计价币。
func Reverse(symbol string) string {
	base, quote, err := Split(symbol)
	if err != nil {
		return symbol
	}
	return Join(quote, base)
}

// RelationMap 描述某币种经一次交易可达的币种集合。
// SellTo 为卖出该币种可直接换到的币种（该币种是基础币）；
// BuyWith 为用该币种可直接买到的币种（该币种是计价币）。
type RelationMap struct {
	SellTo  map[string]bool
	BuyWith map[string]bool
}

// Graph 为一次快照构建的市场可达关系图，构建后不再修改。
type Graph struct {
	listed  map[string]bool
	sellTo  map[string]map[string]bool
	buyWith map[string]map[string]bool
}

// BuildGraph 扫描挂牌交易对列表一次，建立币种间的买卖可达关系。
// 非法形式的交易对会被跳过。
func BuildGraph(symbols []string) *Graph {
	g := &Graph{
		listed:  make(map[string]bool, len(symbols)),
		sellTo:  make(map[string]map[string]bool),
		buyWith: make(map[string]map[string]bool),
	}

	for _, symbol := range symbols {
		base, quote, err := Split(symbol)
		if err != nil {
			continue
		}
		g.listed[Join(base, quote)] = true

		if g.sellTo[base] == nil {
			g.sellTo[base] = make(map[string]bool)
		}
		g.sellTo[base][quote] = true

		if g.buyWith[quote] == nil {
			g.buyWith[quote] = make(map[string]bool)
		}
		g.buyWith[quote][base] = true
	}

	return g
}

// Listed 判断交易对是否挂牌。
func (g *Graph) Listed(symbol string) bool {
	return g.listed[symbol]
}

// Relations 返回某币种的可达关系。未知币种返回空集合。
func (g *Graph) Relations(asset string) RelationMap {
	rel := RelationMap{
		SellTo:  make(map[string]bool),
		BuyWith: make(map[string]bool),
	}
	for quote := range g.sellTo[asset] {
		rel.SellTo[quote] = true
	}
	for base := range g.buyWith[asset] {
		rel.BuyWith[base] = true
	}
	return rel
}

// Intersect 返回两个币种集合的交集，结果有序以保证遍历确定性。
func Intersect(a, b map[string]bool) []string {
	var middles []string
	for asset := range a {
		if b[asset] {
			middles = append(middles, asset)
		}
	}
	sort.Strings(middles)
	return middles
}
