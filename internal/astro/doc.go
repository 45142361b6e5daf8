// Package astro provides the coordinate conversions and derived optical math
// used when building archive entries: sexagesimal formatting, sidereal time,
// hour angle, focal ratio, and pixel scale. All conversions are total
// functions that degrade to zero values on invalid input.
package astro
