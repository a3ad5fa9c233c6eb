package faces

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jeff496/PicAI-sub001/internal/recognition"
)

// Match searches the collection for indexed faces similar to the probe
// image. A remote "collection not found" means no face has been indexed for
// this account yet and yields an empty result, not an error. Results arrive
// in the service's order, most similar first.
func (s *Service) Match(ctx context.Context, collectionID string, image []byte, threshold float64) ([]recognition.FaceMatch, error) {
	matches, err := s.rec.SearchByImage(ctx, collectionID, image, threshold, s.cfg.MaxSearchResults)
	if err != nil {
		if errors.Is(err, recognition.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search collection: %w", err)
	}
	return matches, nil
}
