package catalog

import (
	"context"
	"encoding/binary"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var (
	sweetsBucket = []byte("sweets")
	json         = jsoniter.ConfigCompatibleWithStandardLibrary
)

// BoltStore keeps sweets in a single bbolt file. Keys are big endian IDs so
// a cursor walks records in ID order.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the database file at path
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sweetsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create sweets bucket")
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func boltKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func boltGet(b *bolt.Bucket, id int64) (*domain.Sweet, error) {
	data := b.Get(boltKey(id))
	if data == nil {
		return nil, domain.NotFoundf(id)
	}
	var sweet domain.Sweet
	if err := json.Unmarshal(data, &sweet); err != nil {
		return nil, errors.Wrapf(err, "decode sweet %d", id)
	}
	return &sweet, nil
}

func boltPut(b *bolt.Bucket, sweet *domain.Sweet) error {
	data, err := json.Marshal(sweet)
	if err != nil {
		return errors.Wrapf(err, "encode sweet %d", sweet.ID)
	}
	return b.Put(boltKey(sweet.ID), data)
}

func (s *BoltStore) Get(_ context.Context, id int64) (*domain.Sweet, error) {
	var sweet *domain.Sweet
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		sweet, err = boltGet(tx.Bucket(sweetsBucket), id)
		return err
	})
	return sweet, err
}

func (s *BoltStore) Insert(_ context.Context, sweet *domain.Sweet) (int64, error) {
	if err := prepareInsert(sweet); err != nil {
		return 0, err
	}
	now := time.Now()
	if sweet.CreatedAt.IsZero() {
		sweet.CreatedAt = now
	}
	sweet.UpdatedAt = now
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sweetsBucket)
		if b.Get(boltKey(sweet.ID)) != nil {
			return domain.NewValidationError("id", "sweet id already exists")
		}
		return boltPut(b, sweet)
	})
	if err != nil {
		return 0, err
	}
	return sweet.ID, nil
}

func (s *BoltStore) Update(_ context.Context, id int64, fields domain.SweetFields) (*domain.Sweet, error) {
	var result *domain.Sweet
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sweetsBucket)
		current, err := boltGet(b, id)
		if err != nil {
			return err
		}
		if fields.Empty() {
			result = current
			return nil
		}
		merged, err := merge(*current, fields)
		if err != nil {
			return err
		}
		merged.UpdatedAt = time.Now()
		result = &merged
		return boltPut(b, &merged)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BoltStore) Remove(_ context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sweetsBucket)
		if b.Get(boltKey(id)) == nil {
			return domain.NotFoundf(id)
		}
		return b.Delete(boltKey(id))
	})
}

func (s *BoltStore) All(_ context.Context) ([]domain.Sweet, error) {
	var rows []domain.Sweet
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sweetsBucket).ForEach(func(k, v []byte) error {
			var sweet domain.Sweet
			if err := json.Unmarshal(v, &sweet); err != nil {
				return errors.Wrapf(err, "decode sweet %x", k)
			}
			rows = append(rows, sweet)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *BoltStore) AdjustQuantity(_ context.Context, id int64, delta int) (*domain.Sweet, error) {
	var result *domain.Sweet
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sweetsBucket)
		current, err := boltGet(b, id)
		if err != nil {
			return err
		}
		if current.Quantity+delta < 0 {
			return insufficient(current, delta)
		}
		current.Quantity += delta
		current.UpdatedAt = time.Now()
		result = current
		return boltPut(b, current)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
