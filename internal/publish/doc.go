// Package publish uploads a finished course directory to a remote host over
// SFTP.
//
// Files are written to a ".part" name and renamed into place, so a reader
// on the remote side never sees a half-written lesson. The staging cache and
// its lock file are never uploaded.
package publish
