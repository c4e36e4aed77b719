package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Document is a decoded Firestore document with its metadata.
type Document[T any] struct {
	ID         string
	Data       T
	CreateTime time.Time
	UpdateTime time.Time
}

// Encoder serialises an entity before it is written.
type Encoder[T any] func(ctx context.Context, value T) (any, error)

// Decoder hydrates an entity from raw document fields. Decoding from the field map lets
// repositories tolerate legacy shapes such as numbers stored as strings.
type Decoder[T any] func(ctx context.Context, id string, data map[string]any) (T, error)

// QueryBuilder customises a collection query before execution.
type QueryBuilder func(query firestore.Query) firestore.Query

// BaseRepository provides typed access to one top-level collection.
type BaseRepository[T any] struct {
	provider   *Provider
	collection string
	encode     Encoder[T]
	decode     Decoder[T]
}

// NewBaseRepository binds a repository to collection. A nil encoder writes values unchanged.
func NewBaseRepository[T any](provider *Provider, collection string, encode Encoder[T], decode Decoder[T]) *BaseRepository[T] {
	if encode == nil {
		encode = func(_ context.Context, value T) (any, error) { return value, nil }
	}
	return &BaseRepository[T]{
		provider:   provider,
		collection: strings.TrimSpace(collection),
		encode:     encode,
		decode:     decode,
	}
}

// Add writes value under a store-assigned document ID and returns that ID.
func (r *BaseRepository[T]) Add(ctx context.Context, value T) (string, error) {
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return "", err
	}
	payload, err := r.encode(ctx, value)
	if err != nil {
		return "", fmt.Errorf("firestore: encode new %s document: %w", r.collection, err)
	}
	ref, _, err := coll.Add(ctx, payload)
	if err != nil {
		return "", WrapError(r.op("add"), err)
	}
	return ref.ID, nil
}

// Replace overwrites every field of an existing document. A missing document yields a not-found error.
func (r *BaseRepository[T]) Replace(ctx context.Context, id string, value T) error {
	doc, err := r.documentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := doc.Get(ctx); err != nil {
		return WrapError(r.op("replace"), err)
	}
	payload, err := r.encode(ctx, value)
	if err != nil {
		return fmt.Errorf("firestore: encode document %s: %w", id, err)
	}
	if _, err := doc.Set(ctx, payload); err != nil {
		return WrapError(r.op("replace"), err)
	}
	return nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (r *BaseRepository[T]) Delete(ctx context.Context, id string) error {
	doc, err := r.documentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return WrapError(r.op("delete"), err)
	}
	return nil
}

// Get fetches and decodes a document by ID.
func (r *BaseRepository[T]) Get(ctx context.Context, id string) (Document[T], error) {
	doc, err := r.documentRef(ctx, id)
	if err != nil {
		return Document[T]{}, err
	}
	snap, err := doc.Get(ctx)
	if err != nil {
		return Document[T]{}, WrapError(r.op("get"), err)
	}
	return r.decodeSnapshot(ctx, snap)
}

// Query runs a collection query and decodes every document in result order.
func (r *BaseRepository[T]) Query(ctx context.Context, build QueryBuilder) ([]Document[T], error) {
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	query := coll.Query
	if build != nil {
		query = build(query)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document[T]
	for {
		snap, err := iter.Next()
		if isIteratorDone(err) {
			break
		}
		if err != nil {
			return nil, WrapError(r.op("query"), err)
		}
		decoded, err := r.decodeSnapshot(ctx, snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, decoded)
	}
	return docs, nil
}

// Backfill scans the whole collection and rewrites field wherever fix reports a change. It
// returns the IDs of the documents it updated, including those written before a failure.
func (r *BaseRepository[T]) Backfill(ctx context.Context, field string, fix func(raw any) (any, bool)) ([]string, error) {
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	iter := coll.Documents(ctx)
	defer iter.Stop()

	var updated []string
	for {
		snap, err := iter.Next()
		if isIteratorDone(err) {
			break
		}
		if err != nil {
			return updated, WrapError(r.op("backfill"), err)
		}
		value, changed := fix(snap.Data()[field])
		if !changed {
			continue
		}
		if _, err := snap.Ref.Update(ctx, []firestore.Update{{Path: field, Value: value}}); err != nil {
			return updated, WrapError(r.op("backfill"), err)
		}
		updated = append(updated, snap.Ref.ID)
	}
	return updated, nil
}

func (r *BaseRepository[T]) decodeSnapshot(ctx context.Context, snap *firestore.DocumentSnapshot) (Document[T], error) {
	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}
	entity, err := r.decode(ctx, snap.Ref.ID, data)
	if err != nil {
		return Document[T]{}, fmt.Errorf("firestore: decode %s/%s: %w", r.collection, snap.Ref.ID, err)
	}
	return Document[T]{
		ID:         snap.Ref.ID,
		Data:       entity,
		CreateTime: snap.CreateTime,
		UpdateTime: snap.UpdateTime,
	}, nil
}

func (r *BaseRepository[T]) collectionRef(ctx context.Context) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("firestore: provider is nil")
	}
	if r.collection == "" {
		return nil, errors.New("firestore: collection name is required")
	}
	if r.decode == nil {
		return nil, fmt.Errorf("firestore: %s decoder is required", r.collection)
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(r.collection), nil
}

func (r *BaseRepository[T]) documentRef(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("firestore: document id is required")
	}
	if strings.Contains(id, "/") {
		return nil, fmt.Errorf("firestore: document id %q must not contain '/'", id)
	}
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (r *BaseRepository[T]) op(action string) string {
	return r.collection + "." + action
}

func isIteratorDone(err error) bool {
	return errors.Is(err, iterator.Done)
}
