// Package dupes finds files with identical content under a directory tree.
//
// A scan runs in two stages. Files are first bucketed by size, which is
// cheap and rules out most pairs. Only buckets holding two or more files
// are then checked for content, either by digest or by direct byte
// comparison. The result is a set of disjoint groups, each holding at
// least two identical files.
//
// Traversal uses fastwalk and never follows symlinks. Files that cannot be
// read are skipped and reported rather than failing the scan.
package dupes
