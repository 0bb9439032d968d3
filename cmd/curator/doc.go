// Package main hosts the curator CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the collaborators a
// run needs (catalog client, ffprobe, ffmpeg, run ledger, SFTP publisher) and
// hands them to internal/workflow. Rendering of tables, progress and status
// lines lives here; everything else belongs in the internal packages.
package main
