// Package repository provides a generic Bun repository: CRUD and upsert,
// transactional variants, criteria-driven finders, paging, translated
// queries and table maintenance.
package repository
