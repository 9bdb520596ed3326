package database

import sqldb "github.com/omsdash/omsctl/internal/database/sqlc"

// SnapshotRecordFromRow converts a database snapshot row to a SnapshotRecord.
func SnapshotRecordFromRow(row sqldb.Snapshot) SnapshotRecord {
	return SnapshotRecord{
		ID:        row.ID,
		Kind:      row.Kind,
		ScopeKey:  row.ScopeKey,
		Handle:    optionalString(row.Handle),
		Payload:   row.Payload,
		ItemCount: row.ItemCount,
		FetchedAt: fromMillis(row.FetchedAt),
	}
}

// MutationRecordFromRow converts a database mutation row to a MutationRecord.
func MutationRecordFromRow(row sqldb.Mutation) MutationRecord {
	return MutationRecord{
		ID:         row.ID,
		Kind:       row.Kind,
		RecordID:   row.RecordID,
		ScopeKey:   row.ScopeKey,
		Status:     row.Status,
		Error:      optionalString(row.Error),
		StartedAt:  fromMillis(row.StartedAt),
		FinishedAt: optionalMillis(row.FinishedAt),
	}
}

// MutationInsertParams creates insert parameters from a record.
func MutationInsertParams(m MutationRecord) sqldb.InsertMutationParams {
	return sqldb.InsertMutationParams{
		ID:         m.ID,
		Kind:       m.Kind,
		RecordID:   m.RecordID,
		ScopeKey:   m.ScopeKey,
		Status:     m.Status,
		Error:      nullString(m.Error),
		StartedAt:  toMillis(m.StartedAt),
		FinishedAt: nullMillis(m.FinishedAt),
	}
}
