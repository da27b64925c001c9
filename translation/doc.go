// Package translation executes assembled queries and overlays per-locale
// field translations stored in the ext_translations table onto the results.
//
// A translation row is keyed by (locale, object_class, field, foreign_key).
// The object class of a model is its SQL table name unless the model
// implements Classifier.
package translation
