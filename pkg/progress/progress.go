// Package progress maps per-stage completion percentages onto a single
// overall 0-100 scale. Each pipeline stage owns a band of the overall
// scale; a provider-reported percentage is rebased into that band.
package progress

// Func receives progress updates as integer percentages in 0..100.
type Func func(percent int)

// Rebase maps providerPercent (0..100) into the band starting at
// bandStart with the given width. Out-of-range inputs are clamped so the
// result always stays inside the band.
func Rebase(bandStart, bandWidth, providerPercent int) int {
	if providerPercent < 0 {
		providerPercent = 0
	}
	if providerPercent > 100 {
		providerPercent = 100
	}
	return bandStart + providerPercent*bandWidth/100
}

// Tracker clamps a stream of overall percentages so that successive
// reported values never decrease within one run.
type Tracker struct {
	last   int
	report Func
}

func NewTracker(report Func) *Tracker {
	return &Tracker{report: report}
}

// Report forwards percent to the underlying callback, holding the line
// at the highest value seen so far. Values above 100 are capped.
func (t *Tracker) Report(percent int) {
	if percent > 100 {
		percent = 100
	}
	if percent < t.last {
		percent = t.last
	}
	t.last = percent
	if t.report != nil {
		t.report(percent)
	}
}

// Band returns a Func that rebases stage-local percentages into the
// given band and reports them through the tracker.
func (t *Tracker) Band(bandStart, bandWidth int) Func {
	return func(percent int) {
		t.Report(Rebase(bandStart, bandWidth, percent))
	}
}

// Current returns the last reported overall percentage.
func (t *Tracker) Current() int {
	return t.last
}
