package sqlite

import (
	"context"

	"github.com/warp/rent-engine/rent"
)

// Snapshot is the read view of one analysis run. Currencies and taxes are
// loaded once when it is taken and shared by every contract query, instead
// of being reloaded per rental object. Everything else reads through to the
// Store.
//
// Currencies or taxes written after the snapshot was taken are not seen by
// its contract queries.
type Snapshot struct {
	*Store
	refs *references
}

var _ rent.ContractStore = (*Snapshot)(nil)

// Snapshot loads the reference data for one run.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	refs, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Store: s, refs: refs}, nil
}

// FindActiveContracts hydrates charges from the snapshot's references.
func (sn *Snapshot) FindActiveContracts(ctx context.Context, objectID rent.ID, from, to rent.Date) ([]rent.Contract, error) {
	return sn.findActiveContracts(ctx, sn.refs, objectID, from, to)
}
