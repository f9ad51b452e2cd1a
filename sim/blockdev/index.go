package blockdev

import (
	"github.com/tidwall/btree"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

// sectorIndex finds queued requests of one direction by start or end sector.
// Entries must be removed before a request's sector range changes.
type sectorIndex struct {
	byStart *btree.BTreeG[*edf.Request]
	byEnd   *btree.BTreeG[*edf.Request]
}

func newSectorIndex() *sectorIndex {
	return &sectorIndex{
		byStart: btree.NewBTreeG(func(a, b *edf.Request) bool {
			if a.Sector != b.Sector {
				return a.Sector < b.Sector
			}
			return a.ID < b.ID
		}),
		byEnd: btree.NewBTreeG(func(a, b *edf.Request) bool {
			if a.End() != b.End() {
				return a.End() < b.End()
			}
			return a.ID < b.ID
		}),
	}
}

func (ix *sectorIndex) insert(r *edf.Request) {
	ix.byStart.Set(r)
	ix.byEnd.Set(r)
}

func (ix *sectorIndex) remove(r *edf.Request) {
	ix.byStart.Delete(r)
	ix.byEnd.Delete(r)
}

func (ix *sectorIndex) len() int {
	return ix.byStart.Len()
}

// endingAt returns a request whose range ends at sector, skipping exclude.
func (ix *sectorIndex) endingAt(sector int64, exclude *edf.Request) *edf.Request {
	var found *edf.Request
	ix.byEnd.Ascend(&edf.Request{Sector: sector}, func(r *edf.Request) bool {
		if r.End() != sector {
			return false
		}
		if r != exclude {
			found = r
			return false
		}
		return true
	})
	return found
}

// startingAt returns a request whose range starts at sector, skipping exclude.
func (ix *sectorIndex) startingAt(sector int64, exclude *edf.Request) *edf.Request {
	var found *edf.Request
	ix.byStart.Ascend(&edf.Request{Sector: sector}, func(r *edf.Request) bool {
		if r.Sector != sector {
			return false
		}
		if r != exclude {
			found = r
			return false
		}
		return true
	})
	return found
}
