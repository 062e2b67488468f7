// Package report turns fetched meetings and their analyses into an xlsx
// workbook and publishes it through an artifact Store addressed by download
// handle.
package report
