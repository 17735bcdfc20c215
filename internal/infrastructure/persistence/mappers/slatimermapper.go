package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
)

// LiveKey is the value of the one-live-timer-per-record unique column.
func LiveKey(orgID, recordID string) string {
	return orgID + ":" + recordID
}

// SLATimerToModel fails only when the attached record snapshot cannot be
// encoded.
func SLATimerToModel(t *sla.Timer) (*models.SLATimerModel, error) {
	model := &models.SLATimerModel{
		ID:          t.ID(),
		OrgID:       t.OrgID(),
		RecordID:    t.RecordID(),
		Object:      t.Object(),
		OwnerID:     t.OwnerID(),
		PoolID:      t.PoolID(),
		StartedAt:   t.StartedAt(),
		DeadlineAt:  t.DeadlineAt(),
		Status:      string(t.Status()),
		EscalatedAt: t.EscalatedAt(),
		BreachedAt:  t.BreachedAt(),
		Episode:     t.Episode(),
		ClosedAt:    t.ClosedAt(),
		Version:     t.Version(),
		UpdatedAt:   t.UpdatedAt(),
	}
	if t.IsLive() {
		key := LiveKey(t.OrgID(), t.RecordID())
		model.LiveKey = &key
	}
	if snap := t.RecordSnapshot(); snap != nil {
		raw, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot of timer %s: %w", t.ID(), err)
		}
		model.Snapshot = datatypes.JSON(raw)
	}
	return model, nil
}

func SLATimerToDomain(model *models.SLATimerModel) (*sla.Timer, error) {
	t, err := sla.ReconstructTimer(
		model.ID,
		model.OrgID,
		model.RecordID,
		model.Object,
		model.OwnerID,
		model.PoolID,
		model.StartedAt.UTC(),
		model.DeadlineAt.UTC(),
		sla.Status(model.Status),
		utcPtr(model.EscalatedAt),
		utcPtr(model.BreachedAt),
		model.Episode,
		utcPtr(model.ClosedAt),
		model.Version,
		model.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("reconstruct sla timer %s: %w", model.ID, err)
	}
	if len(model.Snapshot) > 0 {
		var snap map[string]any
		if err := json.Unmarshal(model.Snapshot, &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot of timer %s: %w", model.ID, err)
		}
		t.AttachSnapshot(snap)
	}
	return t, nil
}

func SLATimersToDomain(rows []*models.SLATimerModel) ([]*sla.Timer, error) {
	out := make([]*sla.Timer, 0, len(rows))
	for _, row := range rows {
		t, err := SLATimerToDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
