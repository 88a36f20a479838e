// Package repository collects the persistence ports the domain packages
// define, plus the errors shared by every store implementation.
package repository
