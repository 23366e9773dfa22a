package models

import "time"

// SnapshotVersion is written into every export and required on restore.
const SnapshotVersion = "1"

// Snapshot is a full copy of the ledger used for backup and restore.
type Snapshot struct {
	Version       string          `json:"version" yaml:"version"`
	ExportedAt    time.Time       `json:"exportedAt" yaml:"exportedAt"`
	Balance       Balance         `json:"balance" yaml:"balance"`
	Trades        []Trade         `json:"trades" yaml:"trades"`
	FundRecords   []FundRecord    `json:"fundRecords" yaml:"fundRecords"`
	EquityHistory []EquityPoint   `json:"equityHistory" yaml:"equityHistory"`
	Summary       SnapshotSummary `json:"summary" yaml:"summary"`
}

// SnapshotSummary holds counts for a quick sanity check of a backup file.
type SnapshotSummary struct {
	TotalTrades  int `json:"totalTrades" yaml:"totalTrades"`
	ClosedTrades int `json:"closedTrades" yaml:"closedTrades"`
	OpenTrades   int `json:"openTrades" yaml:"openTrades"`
	FundRecords  int `json:"fundRecords" yaml:"fundRecords"`
	EquityPoints int `json:"equityPoints" yaml:"equityPoints"`
}

// RestoreResult reports what a restore wrote.
type RestoreResult struct {
	Trades        int    `json:"trades"`
	FundRecords   int    `json:"fundRecords"`
	EquityPoints  int    `json:"equityPoints"`
	Balance       string `json:"balance"`
	SourceVersion string `json:"sourceVersion"`
}
