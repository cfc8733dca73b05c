//go:build bolt

package store

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/frankwiles/gg/internal/model"
)

const cacheFileName = "cache.bolt"

const (
	bucketOrgs  = "orgs"  // key: login -> Org JSON
	bucketRepos = "repos" // key: full name -> Repo JSON
	bucketUsage = "usage" // key: big-endian sequence -> UsageEvent JSON
	bucketMeta  = "meta"  // key: name -> value
)

const metaLastRefresh = "last_refresh"

type boltStore struct {
	db   *bbolt.DB
	path string
}

func initStore(path string) (Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &StorageError{Path: path, Err: err}
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketOrgs, bucketRepos, bucketUsage, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		_ = db.Close()

		return nil, &StorageError{Path: path, Err: err}
	}

	return &boltStore{db: db, path: path}, nil
}

func (b *boltStore) Refresh(snap model.Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	lock, err := acquireRefreshLock(b.path)
	if err != nil {
		return err
	}
	defer lock.release()

	now := time.Now().UTC()

	err = b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketOrgs)); err != nil {
			return err
		}

		if err := tx.DeleteBucket([]byte(bucketRepos)); err != nil {
			return err
		}

		orgs, err := tx.CreateBucket([]byte(bucketOrgs))
		if err != nil {
			return err
		}

		repos, err := tx.CreateBucket([]byte(bucketRepos))
		if err != nil {
			return err
		}

		for _, org := range snap.Orgs {
			data, err := json.Marshal(&org)
			if err != nil {
				return err
			}

			if err := orgs.Put([]byte(org.Login), data); err != nil {
				return err
			}
		}

		for _, repo := range snap.Repos {
			repo.SyncedAt = now

			data, err := json.Marshal(&repo)
			if err != nil {
				return err
			}

			if err := repos.Put([]byte(repo.FullName), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket([]byte(bucketMeta))

		return meta.Put([]byte(metaLastRefresh), []byte(snap.FetchedAt.UTC().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return &StorageError{Path: b.path, Err: err}
	}

	return nil
}

func (b *boltStore) RecordUsage(target string, kind model.TargetKind, action string) error {
	ev := model.UsageEvent{
		UID:        uuid.New().String(),
		Target:     target,
		TargetKind: kind,
		Action:     action,
		CreatedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(&ev)
	if err != nil {
		return &StorageError{Path: b.path, Err: err}
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		usage := tx.Bucket([]byte(bucketUsage))

		seq, err := usage.NextSequence()
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		return usage.Put(key, data)
	})
	if err != nil {
		return &StorageError{Path: b.path, Err: err}
	}

	return nil
}

func (b *boltStore) Candidates() ([]model.Candidate, error) {
	var out []model.Candidate

	err := b.db.View(func(tx *bbolt.Tx) error {
		repos := tx.Bucket([]byte(bucketRepos))

		if err := repos.ForEach(func(_, v []byte) error {
			var repo model.Repo
			if err := json.Unmarshal(v, &repo); err != nil {
				return err
			}

			out = append(out, model.CandidateForRepo(repo))

			return nil
		}); err != nil {
			return err
		}

		orgs := tx.Bucket([]byte(bucketOrgs))

		return orgs.ForEach(func(_, v []byte) error {
			var org model.Org
			if err := json.Unmarshal(v, &org); err != nil {
				return err
			}

			out = append(out, model.CandidateForOrg(org))

			return nil
		})
	})
	if err != nil {
		return nil, &StorageError{Path: b.path, Err: err}
	}

	return out, nil
}

func (b *boltStore) Usage() ([]model.UsageEvent, error) {
	var out []model.UsageEvent

	err := b.db.View(func(tx *bbolt.Tx) error {
		usage := tx.Bucket([]byte(bucketUsage))

		return usage.ForEach(func(_, v []byte) error {
			var ev model.UsageEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}

			out = append(out, ev)

			return nil
		})
	})
	if err != nil {
		return nil, &StorageError{Path: b.path, Err: err}
	}

	return out, nil
}

func (b *boltStore) Clear() error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketOrgs, bucketRepos, bucketUsage, bucketMeta} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}

			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return &StorageError{Path: b.path, Err: err}
	}

	return nil
}

func (b *boltStore) Status() (*model.CacheStatus, error) {
	status := &model.CacheStatus{Path: b.path}

	err := b.db.View(func(tx *bbolt.Tx) error {
		status.Orgs = int(tx.Bucket([]byte(bucketOrgs)).Stats().KeyN)
		status.Repos = int(tx.Bucket([]byte(bucketRepos)).Stats().KeyN)
		status.UsageEvents = int(tx.Bucket([]byte(bucketUsage)).Stats().KeyN)

		if raw := tx.Bucket([]byte(bucketMeta)).Get([]byte(metaLastRefresh)); raw != nil {
			if t, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
				status.LastRefresh = t
			}
		}

		return nil
	})
	if err != nil {
		return nil, &StorageError{Path: b.path, Err: err}
	}

	if info, err := os.Stat(b.path); err == nil {
		status.SizeBytes = info.Size()
	}

	return status, nil
}

func (b *boltStore) Export() (*model.Export, error) {
	export := &model.Export{ExportedAt: time.Now().UTC()}

	err := b.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucketOrgs)).ForEach(func(_, v []byte) error {
			var org model.Org
			if err := json.Unmarshal(v, &org); err != nil {
				return err
			}

			export.Orgs = append(export.Orgs, org)

			return nil
		}); err != nil {
			return err
		}

		if err := tx.Bucket([]byte(bucketRepos)).ForEach(func(_, v []byte) error {
			var repo model.Repo
			if err := json.Unmarshal(v, &repo); err != nil {
				return err
			}

			export.Repos = append(export.Repos, repo)

			return nil
		}); err != nil {
			return err
		}

		if err := tx.Bucket([]byte(bucketUsage)).ForEach(func(_, v []byte) error {
			var ev model.UsageEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}

			export.UsageEvents = append(export.UsageEvents, ev)

			return nil
		}); err != nil {
			return err
		}

		if raw := tx.Bucket([]byte(bucketMeta)).Get([]byte(metaLastRefresh)); raw != nil {
			if t, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
				export.LastRefresh = t
			}
		}

		return nil
	})
	if err != nil {
		return nil, &StorageError{Path: b.path, Err: err}
	}

	return export, nil
}

func (b *boltStore) Path() string {
	return b.path
}

func (b *boltStore) Close() error {
	return b.db.Close()
}
