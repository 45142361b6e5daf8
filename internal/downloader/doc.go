// Package downloader pairs remote image arrivals with capture records and
// brings the files onto local disk.
package downloader
