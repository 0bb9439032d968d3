// Package preflight provides readiness checks for the binaries, directories
// and remote endpoints curator depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before touching the staging cache and
//     aborts when a required check fails.
//   - The status command renders every check, including optional ones such
//     as the catalog and SFTP endpoints.
package preflight
