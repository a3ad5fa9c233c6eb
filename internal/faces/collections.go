package faces

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/observability"
	"github.com/Jeff496/PicAI-sub001/internal/recognition"
	"github.com/Jeff496/PicAI-sub001/internal/storage"
)

// EnsureCollection returns the account's face collection, creating the
// remote resource and the local row on first use.
//
// The protocol tolerates concurrent first use without a lock: the external
// id is deterministic for the account, so a remote "already exists" means a
// concurrent request (or a prior crashed attempt) created it and the
// resource is safe to adopt. Likewise a local uniqueness conflict means
// another caller won the insert race; the winning row is re-read and
// returned. Remote create happens before the local insert so a crash in
// between leaves only an adoptable remote resource, never a local row
// pointing at nothing.
func (s *Service) EnsureCollection(ctx context.Context, accountID uuid.UUID) (*models.FaceCollection, error) {
	col, err := s.db.GetCollectionByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if col != nil {
		return col, nil
	}

	externalID := fmt.Sprintf("%s-%s", s.cfg.CollectionPrefix, accountID)

	if err := s.rec.CreateCollection(ctx, externalID); err != nil {
		if !errors.Is(err, recognition.ErrAlreadyExists) {
			return nil, fmt.Errorf("create remote collection: %w", err)
		}
		slog.Debug("remote collection already exists, adopting", "collection", externalID)
	}

	col = &models.FaceCollection{
		AccountID:  accountID,
		ExternalID: externalID,
	}
	if err := s.db.InsertCollection(ctx, col); err != nil {
		if !errors.Is(err, storage.ErrConflict) {
			return nil, err
		}
		// A concurrent caller inserted first. Both computed the same
		// external id, so the winning row is interchangeable with ours.
		winner, err := s.db.GetCollectionByAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, fmt.Errorf("collection for account %s vanished after conflict", accountID)
		}
		return winner, nil
	}

	observability.CollectionsCreated.Inc()
	slog.Info("created face collection", "account_id", accountID, "collection", externalID)
	return col, nil
}
