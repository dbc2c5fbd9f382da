package services

import (
	"time"

	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
)

// serializedStore wraps an identity.Store so that all writes funnel through a
// single goroutine while reads stay fully concurrent. Concurrent resolver
// workers therefore never contend on storage-layer write locks.
type serializedStore struct {
	inner  identity.Store
	writes chan writeRequest
	done   chan struct{}
}

type writeRequest struct {
	op    func() error
	reply chan writeReply
}

type writeReply struct {
	id  uint64
	err error
}

func newSerializedStore(inner identity.Store) *serializedStore {
	s := &serializedStore{
		inner:  inner,
		writes: make(chan writeRequest),
		done:   make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *serializedStore) writeLoop() {
	defer close(s.done)
	for req := range s.writes {
		req.reply <- writeReply{err: req.op()}
	}
}

// Close stops the writer goroutine. Pending writes finish first.
func (s *serializedStore) Close() {
	close(s.writes)
	<-s.done
}

func (s *serializedStore) submit(op func() error) error {
	reply := make(chan writeReply, 1)
	s.writes <- writeRequest{op: op, reply: reply}
	return (<-reply).err
}

// Reads pass through untouched.

func (s *serializedStore) LookupMapping(source models.Source, sourceID string) (*models.ExternalIdentity, error) {
	return s.inner.LookupMapping(source, sourceID)
}

func (s *serializedStore) LookupByName(name string, source models.Source) (*models.Player, error) {
	return s.inner.LookupByName(name, source)
}

func (s *serializedStore) GetPlayer(canonicalID uint64) (*models.Player, error) {
	return s.inner.GetPlayer(canonicalID)
}

func (s *serializedStore) AttributesBefore(canonicalID uint64, attributeType string, cutoff time.Time) ([]models.PlayerAttribute, error) {
	return s.inner.AttributesBefore(canonicalID, attributeType, cutoff)
}

// Writes are serialized.

func (s *serializedStore) UpsertPlayer(fields identity.PlayerFields) (uint64, error) {
	var id uint64
	err := s.submit(func() error {
		var opErr error
		id, opErr = s.inner.UpsertPlayer(fields)
		return opErr
	})
	return id, err
}

func (s *serializedStore) RecordMapping(mapping models.ExternalIdentity) error {
	return s.submit(func() error {
		return s.inner.RecordMapping(mapping)
	})
}

func (s *serializedStore) AppendAttribute(attr models.PlayerAttribute) error {
	return s.submit(func() error {
		return s.inner.AppendAttribute(attr)
	})
}
