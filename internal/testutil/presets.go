package testutil

import "time"

// WithStandardQuarter seeds three consecutive recorded months ending in
// May 2026, with weekend duties concentrated on 青木 so dispersion and
// carryover tests have a signal to detect.
func (b *Builder) WithStandardQuarter() *Builder {
	return b.
		WithRun(2026, time.March,
			CreatedAt(time.Date(2026, time.February, 25, 0, 0, 0, 0, time.UTC)),
			Assign(7, "青木"),  // Saturday
			Assign(8, "青木"),  // Sunday
			Assign(14, "馬場"), // Saturday
			Assign(20, "千葉"), // national holiday (spring equinox)
		).
		WithRun(2026, time.April,
			CreatedAt(time.Date(2026, time.March, 25, 0, 0, 0, 0, time.UTC)),
			Assign(4, "青木"),  // Saturday
			Assign(5, "馬場"),  // Sunday
			Assign(29, "青木"), // national holiday (Showa day)
		).
		WithRun(2026, time.May,
			CreatedAt(time.Date(2026, time.April, 25, 0, 0, 0, 0, time.UTC)),
			Assign(30, "馬場"), // Saturday
			Assign(31, "青木"), // final day, Sunday
		)
}
