// Package organizer places staged documents into the course library.
//
// In organized mode each staged PDF is paired, by position, with a document
// lesson of the course tree and renamed to sit next to that lesson's video.
// In flat mode the PDFs are numbered in staged order under
// Files/Documents. Both modes refuse to overwrite existing files.
package organizer
