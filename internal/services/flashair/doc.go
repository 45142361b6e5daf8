// Package flashair lists and downloads camera images from a wireless SD
// card over its HTTP command interface.
package flashair
