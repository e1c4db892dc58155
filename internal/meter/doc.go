// Package meter implements a composite rate tracker: a total mark count with a
// lifetime average rate, plus one, five and fifteen minute moving averages.
//
// Mark is safe from any goroutine. Tick must be driven every ewma.Interval by
// a single periodic driver.
package meter
