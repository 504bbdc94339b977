package query

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"net/url"
	"time"

	"mediahub/internal/components/chrono"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("mediahub.query")

// ErrNotStored is returned by a Store that does not hold a page.
var ErrNotStored = errors.New("page not stored")

// Store persists listing pages across processes.
type Store interface {
	Get(ctx context.Context, target string) ([]byte, error)
	Set(ctx context.Context, target string, body []byte) error
}

type storedPage struct {
	Contents  []byte
	ExpiresAt int64
}

// BadgerStore is a Store backed by badger, keyed by the normalized page url.
// Entries expire after TTL.
type BadgerStore struct {
	db      *badger.DB
	baseUrl *url.URL
	ttl     time.Duration
	clock   chrono.API
}

func NewBadgerStore(db *badger.DB, baseUrl *url.URL, ttl time.Duration) BadgerStore {
	return BadgerStore{db: db, baseUrl: baseUrl, ttl: ttl, clock: chrono.StandardImpl{}}
}

func (s BadgerStore) key(target string) (string, error) {
	full, err := s.baseUrl.Parse(target)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		full,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return "page:" + normalized, nil
}

func (s BadgerStore) Get(ctx context.Context, target string) ([]byte, error) {
	_, span := tracer.Start(ctx, "BadgerStore.Get")
	defer span.End()

	key, err := s.key(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create store key")
		return nil, err
	}
	span.SetAttributes(attribute.String("store_key", key))

	var serialized []byte
	err = s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotStored
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}

	var cached storedPage
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize stored page")
		return nil, err
	}

	if s.clock.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired page")
		err = s.db.Update(func(tx *badger.Txn) error {
			return tx.Delete([]byte(key))
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return nil, ErrNotStored
	}

	span.SetAttributes(attribute.Int("content_length", len(cached.Contents)))
	return cached.Contents, nil
}

func (s BadgerStore) Set(ctx context.Context, target string, body []byte) error {
	_, span := tracer.Start(ctx, "BadgerStore.Set")
	defer span.End()

	key, err := s.key(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create store key")
		return err
	}

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(storedPage{
		Contents:  body,
		ExpiresAt: s.clock.Now().Add(s.ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	err = s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}
