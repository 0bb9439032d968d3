// Package textutil provides the string helpers shared by the course tree and
// the staging layer.
//
// The primary use cases are:
//   - Natural ordering of staged file names, where digit runs compare by value
//   - Unicode NFC normalisation of catalog display names
//   - Sanitising names into single path elements and filesystem tokens
//
// Natural ordering is the contract the reconciler depends on: staged files
// are paired with lessons by position, so "2.mp4" must precede "10.mp4".
package textutil
