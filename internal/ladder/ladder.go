// Package ladder 计算阶梯抛售使用的试探价格序列。
package ladder

import "fmt"

// Build 返回从 floor 到 ceiling（含两端）等间距的 steps 个严格递增价格。
func Build(floor, ceiling float64, steps int) ([]float64, error) {
	if steps < 2 {
		return nil, fmt.Errorf("阶梯数必须不小于2，当前为 %d", steps)
	}
	if ceiling <= floor {
		return nil, fmt.Errorf("阶梯上限 %v 未高于下限 %v", ceiling, floor)
	}

	step := (ceiling - floor) / float64(steps-1)
	prices := make([]float64, steps)
	for i := range prices {
		prices[i] = floor + step*float64(i)
	}
	// 浮点累计误差不应影响最高一级。
	prices[steps-1] = ceiling

	return prices, nil
}
