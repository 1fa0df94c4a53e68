package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	readsBucket    = []byte("reads")
	searchesBucket = []byte("searches")
	metaBucket     = []byte("metadata")

	schemaKey     = []byte("schema_version")
	schemaVersion = []byte("1")
)

// MaxRecentSearches bounds the searches bucket; older entries are pruned.
const MaxRecentSearches = 50

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{readsBucket, searchesBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return tx.Bucket(metaBucket).Put(schemaKey, schemaVersion)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func (s *Store) MarkRead(id int64, title, url string) error {
	if id <= 0 {
		return fmt.Errorf("invalid article id %d", id)
	}
	mark := ReadMark{ID: id, Title: title, URL: url, ReadAt: s.now()}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(mark)
		if err != nil {
			return err
		}
		return tx.Bucket(readsBucket).Put(idKey(id), data)
	})
}

func (s *Store) MarkUnread(id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(readsBucket).Delete(idKey(id))
	})
}

func (s *Store) IsRead(id int64) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(readsBucket).Get(idKey(id)) != nil
		return nil
	})
	return found, err
}

// ReadSet returns the IDs of every read article.
func (s *Store) ReadSet() (map[int64]bool, error) {
	set := make(map[int64]bool)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(readsBucket).ForEach(func(k, _ []byte) error {
			if len(k) == 8 {
				set[int64(binary.BigEndian.Uint64(k))] = true
			}
			return nil
		})
	})
	return set, err
}

func (s *Store) GetReadMark(id int64) (*ReadMark, error) {
	var mark ReadMark
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(readsBucket).Get(idKey(id))
		if data == nil {
			return fmt.Errorf("read mark not found")
		}
		return json.Unmarshal(data, &mark)
	})
	if err != nil {
		return nil, err
	}
	return &mark, nil
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// RecordSearch remembers query. Blank queries are ignored.
func (s *Store) RecordSearch(query string) error {
	key := normalizeQuery(query)
	if key == "" {
		return nil
	}
	display := strings.Join(strings.Fields(query), " ")

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(searchesBucket)

		rs := RecentSearch{Query: display}
		if data := b.Get([]byte(key)); data != nil {
			if err := json.Unmarshal(data, &rs); err != nil {
				return err
			}
			rs.Query = display
		}
		rs.Count++
		rs.LastUsed = s.now()

		data, err := json.Marshal(rs)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key), data); err != nil {
			return err
		}
		return prune(b, MaxRecentSearches)
	})
}

func loadSearches(b *bolt.Bucket) ([]RecentSearch, [][]byte, error) {
	var out []RecentSearch
	var keys [][]byte
	err := b.ForEach(func(k, v []byte) error {
		var rs RecentSearch
		if err := json.Unmarshal(v, &rs); err != nil {
			// skip records we cannot read
			return nil
		}
		out = append(out, rs)
		keys = append(keys, append([]byte(nil), k...))
		return nil
	})
	return out, keys, err
}

func prune(b *bolt.Bucket, limit int) error {
	searches, keys, err := loadSearches(b)
	if err != nil || len(searches) <= limit {
		return err
	}
	idx := make([]int, len(searches))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return searches[idx[i]].LastUsed.After(searches[idx[j]].LastUsed)
	})
	for _, i := range idx[limit:] {
		if err := b.Delete(keys[i]); err != nil {
			return err
		}
	}
	return nil
}

// RecentSearches returns up to limit queries, most recent first.
func (s *Store) RecentSearches(limit int) ([]RecentSearch, error) {
	var searches []RecentSearch
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		searches, _, err = loadSearches(tx.Bucket(searchesBucket))
		return err
	})
	sort.Slice(searches, func(i, j int) bool {
		return searches[i].LastUsed.After(searches[j].LastUsed)
	})
	if limit > 0 && len(searches) > limit {
		searches = searches[:limit]
	}
	return searches, err
}

func (s *Store) ClearSearches() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(searchesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(searchesBucket)
		return err
	})
}
