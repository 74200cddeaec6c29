package seqid

// TrackStore owns every track of a run keyed by sequential id.
// It has no business logic: tracks are created by IdentityMapper and mutated by
// TrackLifecycleManager and TrackMerger only.
type TrackStore struct {
	tracks map[int]*Track
	// Ascending sequential ids, used for deterministic iteration
	order []int
}

// NewTrackStore creates empty store
func NewTrackStore() *TrackStore {
	return &TrackStore{
		tracks: make(map[int]*Track),
		order:  make([]int, 0),
	}
}

// create registers new track. Ids are minted in increasing order, so appending keeps order sorted
func (store *TrackStore) create(sequentialID int, rawID int64) *Track {
	track := newTrack(sequentialID, rawID)
	store.tracks[sequentialID] = track
	store.order = append(store.order, sequentialID)
	return track
}

// Get returns track by sequential id
func (store *TrackStore) Get(sequentialID int) (*Track, bool) {
	track, ok := store.tracks[sequentialID]
	return track, ok
}

// All returns every track in ascending sequential id order
func (store *TrackStore) All() []*Track {
	all := make([]*Track, 0, len(store.order))
	for _, id := range store.order {
		all = append(all, store.tracks[id])
	}
	return all
}

// ByStatus returns tracks having one of the given statuses in ascending sequential id order
func (store *TrackStore) ByStatus(statuses ...TrackStatus) []*Track {
	filtered := make([]*Track, 0)
	for _, id := range store.order {
		track := store.tracks[id]
		for _, status := range statuses {
			if track.status == status {
				filtered = append(filtered, track)
				break
			}
		}
	}
	return filtered
}

// Len returns number of tracks ever created
func (store *TrackStore) Len() int {
	return len(store.order)
}

// FinalOf follows merge links from the given track to the track which finally holds its history.
// Merges may chain (B into A, later A into C), so a merged track can point at another merged one.
func (store *TrackStore) FinalOf(sequentialID int) (int, bool) {
	track, ok := store.tracks[sequentialID]
	if !ok {
		return 0, false
	}
	for hops := 0; track.status == TrackMerged; hops++ {
		if hops > len(store.order) {
			return 0, false
		}
		next, ok := store.tracks[track.mergedInto]
		if !ok {
			return 0, false
		}
		track = next
	}
	return track.sequentialID, true
}
