// Package domain defines the core business entities of the hiring
// pipeline and the status machines they move through. Entities are plain
// structs with validation methods; persistence lives elsewhere.
package domain
