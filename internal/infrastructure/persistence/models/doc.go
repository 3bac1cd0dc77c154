// Package models contains the GORM persistence models of the receipts service.
// Domain types stay free of ORM tags; each model converts to and from its
// domain counterpart and repositories only talk to the database through models.
//
//   - base.go: id, timestamp and version columns shared by every aggregate table
//   - payment.go: clients, invoices, payments, payment details, receipt counter
package models
