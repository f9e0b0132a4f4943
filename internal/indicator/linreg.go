package indicator

import "math"

// LinReg fits an ordinary least squares line through vals with x = 0..n-1
// and returns the slope, intercept and coefficient of determination.
// A flat series has r² 0 by convention (the mean model explains nothing
// beyond itself). NaN slope and intercept when n < 2.
func LinReg(vals []float64) (slope, intercept, r2 float64) {
	if len(vals) < 2 {
		return math.NaN(), math.NaN(), 0
	}

	n := float64(len(vals))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range vals {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for i, y := range vals {
		fit := intercept + slope*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return slope, intercept, 0
	}
	return slope, intercept, 1 - ssRes/ssTot
}
