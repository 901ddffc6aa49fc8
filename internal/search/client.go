package search

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"
	"github.com/typesense/typesense-go/typesense/api/pointer"
	"github.com/yourusername/songwriter-studio/internal/models"
)

// Client indexes song sections in Typesense. Documents carry the owning
// user id so every search can be filtered to the caller, matching the
// ownership scoping of the primary store.
type Client struct {
	client *typesense.Client
}

const collectionName = "song_sections"

func New(apiKey, host string) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(host),
		typesense.WithAPIKey(apiKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	sc := &Client{client: client}

	if err := sc.initSchema(); err != nil {
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	log.Println("Typesense client initialized")
	return sc, nil
}

func (c *Client) initSchema() error {
	ctx := context.Background()

	// Check if collection exists
	_, err := c.client.Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{
				Name: "id",
				Type: "string",
			},
			{
				Name:  "user_id",
				Type:  "string",
				Facet: pointer.True(),
			},
			{
				Name: "song_project_id",
				Type: "string",
			},
			{
				Name: "project_title",
				Type: "string",
			},
			{
				Name:     "section_type",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "label",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name: "lyrics",
				Type: "string",
			},
			{
				Name: "order_index",
				Type: "int32",
			},
			{
				Name: "updated_at",
				Type: "int64",
			},
		},
		DefaultSortingField: pointer.String("updated_at"),
	}

	_, err = c.client.Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("error creating collection: %w", err)
	}

	log.Println("Typesense collection created successfully")
	return nil
}

// IndexSection upserts a section document.
func (c *Client) IndexSection(hit *models.SectionHit) error {
	ctx := context.Background()

	doc := map[string]interface{}{
		"id":              hit.ID,
		"user_id":         hit.UserID,
		"song_project_id": hit.SongProjectID,
		"project_title":   hit.ProjectTitle,
		"lyrics":          hit.Lyrics,
		"order_index":     hit.OrderIndex,
		"updated_at":      hit.UpdatedAt.Unix(),
	}

	if hit.SectionType != nil {
		doc["section_type"] = *hit.SectionType
	}
	if hit.Label != nil {
		doc["label"] = *hit.Label
	}

	_, err := c.client.Collection(collectionName).Documents().Upsert(ctx, doc)
	if err != nil {
		return fmt.Errorf("error indexing section: %w", err)
	}

	return nil
}

func (c *Client) DeleteSection(id string) error {
	ctx := context.Background()
	_, err := c.client.Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("error deleting section from index: %w", err)
	}
	return nil
}

// Search runs a full-text query over the caller's sections only.
func (c *Client) Search(userID, query string) ([]models.SectionHit, error) {
	ctx := context.Background()

	searchParams := &api.SearchCollectionParams{
		Q:                 query,
		QueryBy:           "lyrics,label,section_type,project_title",
		FilterBy:          pointer.String(ownerFilter(userID)),
		Prefix:            pointer.String("true"),
		PerPage:           pointer.Int(50),
		HighlightStartTag: pointer.String(""),
		HighlightEndTag:   pointer.String(""),
	}

	result, err := c.client.Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("error searching: %w", err)
	}

	hits := []models.SectionHit{}
	if result.Hits != nil {
		for _, h := range *result.Hits {
			doc := *h.Document
			hit := models.SectionHit{
				UserID:       stringField(doc, "user_id"),
				ProjectTitle: stringField(doc, "project_title"),
			}
			hit.ID = stringField(doc, "id")
			hit.SongProjectID = stringField(doc, "song_project_id")
			hit.Lyrics = stringField(doc, "lyrics")

			if sectionType, ok := doc["section_type"].(string); ok {
				hit.SectionType = &sectionType
			}
			if label, ok := doc["label"].(string); ok {
				hit.Label = &label
			}
			if orderIndex, ok := doc["order_index"].(float64); ok {
				hit.OrderIndex = int(orderIndex)
			}
			if updatedAt, ok := doc["updated_at"].(float64); ok {
				hit.UpdatedAt = time.Unix(int64(updatedAt), 0)
			}

			hits = append(hits, hit)
		}
	}

	return hits, nil
}

// ownerFilter builds the Typesense filter_by clause restricting results
// to one owner. Backtick escaping is Typesense grammar; Go-style quoting
// is not understood by the filter parser.
func ownerFilter(userID string) string {
	return "user_id:=`" + userID + "`"
}

func stringField(doc map[string]interface{}, key string) string {
	value, _ := doc[key].(string)
	return value
}

// ReindexAll drops and rebuilds the collection from the given sections.
func (c *Client) ReindexAll(hits []models.SectionHit) error {
	ctx := context.Background()
	log.Println("Starting full reindex...")

	_, err := c.client.Collection(collectionName).Delete(ctx)
	if err != nil {
		log.Printf("Warning: could not delete existing collection: %v", err)
	}

	if err := c.initSchema(); err != nil {
		return fmt.Errorf("error recreating schema: %w", err)
	}

	for i := range hits {
		if err := c.IndexSection(&hits[i]); err != nil {
			return fmt.Errorf("error indexing section %s: %w", hits[i].ID, err)
		}
		if (i+1)%100 == 0 {
			log.Printf("Indexed %d/%d sections", i+1, len(hits))
		}
	}

	log.Printf("Reindex complete: %d sections indexed", len(hits))
	return nil
}
