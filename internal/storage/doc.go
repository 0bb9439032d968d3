// Package storage performs the filesystem effects of a run: moving staged
// sources, unpacking and repacking zip archives, listing files in natural
// order and pruning empty directories.
//
// The Storage interface is what the staging, pipeline and organizer layers
// consume; Local is the implementation backed by the host filesystem. A move
// onto an existing path is refused with services.ErrStorageConflict rather
// than overwriting library content.
package storage
