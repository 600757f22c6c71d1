package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// ChunkRecord is one (id, vector, text, metadata) triple written to the
// vector index during ingestion.
type ChunkRecord struct {
	ID       string
	DocID    string
	Filename string
	Index    int
	Text     string
	Vector   []float32
}

// QueryMatch is one nearest-neighbor result returned by the vector index.
type QueryMatch struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Distance float64
}

// VectorIndex is the capability interface over the vector store. The index
// only ever holds a foreign document identifier; document bookkeeping lives
// in the metadata registry.
type VectorIndex interface {
	Upsert(ctx context.Context, records []ChunkRecord) error
	Query(ctx context.Context, vector []float32, k int) ([]QueryMatch, error)
	GetByDocument(ctx context.Context, docID string) ([]QueryMatch, error)
	DeleteByDocument(ctx context.Context, docID string) error
	Count(ctx context.Context) (int, error)
}

// ChromaIndex implements VectorIndex on top of a ChromaDB v2 collection.
type ChromaIndex struct {
	collection chromago.Collection
}

// NewChromaIndex wraps an existing collection.
func NewChromaIndex(collection chromago.Collection) *ChromaIndex {
	return &ChromaIndex{collection: collection}
}

// OpenChromaCollection gets or creates the collection for the given embedding
// model. The collection name carries the model slug, so switching embedding
// models lands on a fresh, distinctly named collection instead of mixing
// vectors of different dimensions in one index.
func OpenChromaCollection(ctx context.Context, client chromago.Client, baseName, embeddingModel string) (chromago.Collection, error) {
	name := fmt.Sprintf("%s_%s", baseName, slugifyModel(embeddingModel))
	log.Printf("INDEX: Getting or creating collection '%s'...", name)

	collection, err := client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewStringAttribute("embedding_model", embeddingModel),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %q: %w", name, err)
	}
	return collection, nil
}

func slugifyModel(model string) string {
	slug := strings.ToLower(model)
	slug = strings.NewReplacer("/", "-", ":", "-", ".", "-", " ", "-").Replace(slug)
	return slug
}

// Upsert writes all chunk records to the collection in a single call.
func (x *ChromaIndex) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]chromago.DocumentID, len(records))
	texts := make([]string, len(records))
	embs := make([]embeddings.Embedding, len(records))
	metas := make([]chromago.DocumentMetadata, len(records))
	for i, r := range records {
		ids[i] = chromago.DocumentID(r.ID)
		texts[i] = r.Text
		embs[i] = embeddings.NewEmbeddingFromFloat32(r.Vector)
		metas[i] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("doc_id", r.DocID),
			chromago.NewStringAttribute("filename", r.Filename),
			chromago.NewStringAttribute("chunk_id", r.ID),
			chromago.NewIntAttribute("chunk_index", int64(r.Index)),
		)
	}
	err := x.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add records to chromadb: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks to the given vector, with cosine
// distances.
func (x *ChromaIndex) Query(ctx context.Context, vector []float32, k int) ([]QueryMatch, error) {
	results, err := x.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	idGroups := results.GetIDGroups()
	docGroups := results.GetDocumentsGroups()
	metaGroups := results.GetMetadatasGroups()
	distGroups := results.GetDistancesGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}

	matches := make([]QueryMatch, 0, len(docGroups[0]))
	for i, doc := range docGroups[0] {
		match := QueryMatch{Text: doc.ContentString()}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			match.ID = string(idGroups[0][i])
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			match.Metadata = metadataToMap(metaGroups[0][i])
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			match.Distance = float64(distGroups[0][i])
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// GetByDocument returns every chunk stored for the given document.
func (x *ChromaIndex) GetByDocument(ctx context.Context, docID string) ([]QueryMatch, error) {
	results, err := x.collection.Get(ctx,
		chromago.WithWhereGet(chromago.EqString("doc_id", docID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from chromadb: %w", err)
	}

	ids := results.GetIDs()
	docs := results.GetDocuments()
	metas := results.GetMetadatas()

	matches := make([]QueryMatch, 0, len(ids))
	for i := range ids {
		match := QueryMatch{ID: string(ids[i])}
		if i < len(docs) {
			match.Text = docs[i].ContentString()
		}
		if i < len(metas) {
			match.Metadata = metadataToMap(metas[i])
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// DeleteByDocument removes all chunks belonging to the given document in one
// filtered delete.
func (x *ChromaIndex) DeleteByDocument(ctx context.Context, docID string) error {
	where := chromago.EqString("doc_id", docID)
	if err := x.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %w", docID, err)
	}
	return nil
}

// Count returns the total number of chunks in the collection.
func (x *ChromaIndex) Count(ctx context.Context) (int, error) {
	count, err := x.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// metadataToMap converts chroma document metadata to a plain map. The
// DocumentMetadata type exposes no direct accessor for all values, so it is
// round-tripped through JSON.
func metadataToMap(meta chromago.DocumentMetadata) map[string]interface{} {
	if meta == nil {
		return map[string]interface{}{}
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		log.Printf("WARN: could not marshal chunk metadata: %v", err)
		return map[string]interface{}{}
	}
	var metaMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
		log.Printf("WARN: could not unmarshal chunk metadata: %v", err)
		return map[string]interface{}{}
	}
	return metaMap
}
