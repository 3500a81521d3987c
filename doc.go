// Package gridfolio provides types and functions for working with energy
// portfolio timeseries: delivery-period grids, physical quantities, and the
// frequency and calendar arithmetic that connects them.
//
// The core functionalities include:
//   - Frequencies: a fixed set of delivery frequencies (quarter-hour, hour,
//     day, month, anchored quarter and anchored year) with parsing,
//     comparison and period arithmetic that is correct across DST
//     transitions and custom start-of-day offsets.
//   - Grids and Series: ordered, gap-free timestamp indexes and the value
//     series defined on them, with strict and flexible intersection for
//     reconciling series from different sources.
//   - Resampling: duration-aware up- and downsampling of summable (energy,
//     revenue) and averageable (power, price) values.
//   - Dimensions and Units: power, energy, price and revenue quantities with
//     unit conversion, currency formatting, and completion of a partial set
//     of dimensions (energy from power and duration, revenue from energy
//     and price, and so on).
//   - Year mapping: projecting a historical profile onto another calendar
//     year while preserving weekday, holiday and DST-day structure.
//
// This package serves as the foundational logic for the `gfo` command-line
// tool.
package gridfolio
