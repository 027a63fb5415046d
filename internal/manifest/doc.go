// Package manifest reads the Steam library manifest (libraryfolders.vdf).
//
// The manifest is a KeyValues text document listing every library folder
// and the apps installed in it. Load parses it into a Library; AppIDs
// flattens the installed app ids across all folders.
package manifest
