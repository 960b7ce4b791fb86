// Package classes manages the label classes available for annotation.
//
// A Registry holds the classes of a session in display order together with
// the class currently selected for labeling. New classes receive the next
// free id and a colour from Palette. The registry implements the lookup
// interface the partition uses to resolve saved class names.
//
// Classes can be exchanged as YAML files and persisted across sessions in
// a SQLite Store.
package classes
