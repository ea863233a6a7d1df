package memory

import "math"

const (
	k1 = 1.2
	b  = 0.75
)

func idf(totalDocs, docFreq int) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func tfNorm(termFreq, docLength int, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	tf := float64(termFreq)
	lengthRatio := float64(docLength) / avgDocLength
	return (tf * (k1 + 1)) / (tf + k1*(1-b+b*lengthRatio))
}
