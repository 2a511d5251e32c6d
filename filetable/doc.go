// Package filetable implements a file-descriptor allocator tagged by kind,
// the collaborator the UDP peer uses to mint and release descriptors.
package filetable
