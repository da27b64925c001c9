// Package query assembles declarative filter, sort, window and extras
// bundles into calls on an ORM query builder without executing anything.
//
// Two bindings ship with it: bunq drives a Bun select and backs the
// repository, pager, translation and CLI; gormq drives a GORM statement for
// code that already holds a *gorm.DB. Both resolve "alias.property"
// references to quoted columns. Any other dotted reference reaches the
// database as a raw expression, so references taken from user input should
// be checked with IsFieldRef.
package query
