package models

import (
	"github.com/google/uuid"
	"time"
)

// FinishStatus defines the scoring status of an entry in a race.
type FinishStatus string

const (
	FinishStatusRacing   FinishStatus = "RACING"
	FinishStatusFinished FinishStatus = "FINISHED"
	FinishStatusDNF      FinishStatus = "DNF"
	FinishStatusDNS      FinishStatus = "DNS"
	FinishStatusDSQ      FinishStatus = "DSQ"
	FinishStatusOCS      FinishStatus = "OCS"
	FinishStatusDNC      FinishStatus = "DNC"
	FinishStatusRET      FinishStatus = "RET"
	FinishStatusRAF      FinishStatus = "RAF"
	FinishStatusBFD      FinishStatus = "BFD"
	FinishStatusUFD      FinishStatus = "UFD"
)

// ValidFinishStatuses lists every status an official may assign.
var ValidFinishStatuses = []FinishStatus{
	FinishStatusRacing,
	FinishStatusFinished,
	FinishStatusDNF,
	FinishStatusDNS,
	FinishStatusDSQ,
	FinishStatusOCS,
	FinishStatusDNC,
	FinishStatusRET,
	FinishStatusRAF,
	FinishStatusBFD,
	FinishStatusUFD,
}

// FinishRecord represents one entry's result row for a race. A record is
// created with status RACING when the race starts; the position, once
// assigned, is never overwritten.
type FinishRecord struct {
	ID         uuid.UUID    `json:"id"`
	RaceID     uuid.UUID    `json:"race_id"`
	EntryID    uuid.UUID    `json:"entry_id"`
	Position   *int         `json:"position,omitempty"` // nil until the entry finishes
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	ElapsedSec *int         `json:"elapsed_sec,omitempty"` // finish instant minus start instant
	Status     FinishStatus `json:"status"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
