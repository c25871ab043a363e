package cache

import (
	"github.com/recoilme/pudge"
)

// PudgeStore is the default embedded on-disk persistent tier: a single
// pudge database file (PERSISTENT_CACHE_PUDGE_PATH) shared by the
// transcript and comment engines, whose keys are kept apart by the
// "comments:" prefix on comment keys. There is no separate file per domain.
// This is the direct Go analogue of the original service's shelve-backed
// store.
type PudgeStore struct {
	db *pudge.Db
}

// NewPudgeStore opens (creating if absent) a pudge database at path.
func NewPudgeStore(path string) (*PudgeStore, error) {
	db, err := pudge.Open(path, nil)
	if err != nil {
		return nil, err
	}
	return &PudgeStore{db: db}, nil
}

func (s *PudgeStore) Get(key string) ([]byte, bool, error) {
	var raw []byte
	err := s.db.Get(key, &raw)
	if err != nil {
		if err == pudge.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (s *PudgeStore) Set(key string, value []byte) error {
	return s.db.Set(key, value)
}

func (s *PudgeStore) Delete(key string) error {
	err := s.db.Delete(key)
	if err == pudge.ErrKeyNotFound {
		return nil
	}
	return err
}

func (s *PudgeStore) Close() error {
	return s.db.Close()
}
