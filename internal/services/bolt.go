package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/oklog/ulid/v2"
	bolt "go.etcd.io/bbolt"
)

// BoltDB implements the artifact archive using a BoltDB backend. Exported artifacts are stored as JSON
// under ULID keys, so the bucket's key order is the export order.
type BoltDB struct {
	db *bolt.DB
}

var artifactsBucket = []byte("artifacts")

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the database
// with the artifacts bucket and returns an error if the database cannot be opened or initialized. The
// database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(artifactsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return BoltDB{}, fmt.Errorf("failed to create artifacts bucket: %w", err)
	}

	return BoltDB{db: db}, nil
}

// Close releases the database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

// SaveArtifact stores a new artifact and returns its generated id. CreatedAt is set when it is zero.
func (b BoltDB) SaveArtifact(_ context.Context, artifact models.Artifact) (string, error) {
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}
	artifact.ID = ulid.MustNew(ulid.Timestamp(artifact.CreatedAt), ulid.DefaultEntropy()).String()

	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(artifactsBucket)

		v, err := json.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("failed to marshal artifact: %w", err)
		}

		return bk.Put([]byte(artifact.ID), v)
	})
	if err != nil {
		return "", err
	}

	return artifact.ID, nil
}

// Artifacts retrieves all archived artifacts, newest first.
func (b BoltDB) Artifacts(context.Context) ([]models.Artifact, error) {
	var artifacts []models.Artifact
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(artifactsBucket).ForEach(func(_, v []byte) error {
			var artifact models.Artifact
			if err := json.Unmarshal(v, &artifact); err != nil {
				return fmt.Errorf("failed to unmarshal artifact: %w", err)
			}
			artifacts = append(artifacts, artifact)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(artifacts)
	return artifacts, nil
}

// Artifact retrieves a single archived artifact.
func (b BoltDB) Artifact(_ context.Context, id string) (models.Artifact, error) {
	var artifact models.Artifact
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(artifactsBucket).Get([]byte(id))
		if v == nil {
			return models.ErrArtifactNotFound
		}
		if err := json.Unmarshal(v, &artifact); err != nil {
			return fmt.Errorf("failed to unmarshal artifact: %w", err)
		}
		return nil
	})
	return artifact, err
}
