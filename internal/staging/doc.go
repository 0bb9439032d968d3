// Package staging owns the per-course staging cache.
//
// A Wizard moves or extracts a downloaded batch into <course>/.cache, strips
// files the library does not keep, splits bundled zip archives into code
// archives and documents, and removes the cache once every item has been
// placed. An exclusive lock file next to the cache keeps two runs from
// working on the same course.
package staging
