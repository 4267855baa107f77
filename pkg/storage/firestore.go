package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lenedabridge/lenedabridge/pkg/log"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// FirestoreProvider implements Store using Google Cloud Firestore. Each
// series is a document in the "statistics" collection holding the metadata
// fields, with the hour buckets in an "entries" subcollection keyed by the
// RFC3339 period start for lexicographic ordering.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) seriesDoc(seriesID string) (*firestore.DocumentRef, error) {
	if seriesID == "" {
		return nil, fmt.Errorf("seriesID cannot be empty")
	}
	return f.client.Collection("statistics").Doc(seriesID), nil
}

// GetLastEntry returns the most recent stored entry for the series, or nil
// when the series has no data yet.
func (f *FirestoreProvider) GetLastEntry(ctx context.Context, seriesID string) (*LastEntry, error) {
	doc, err := f.seriesDoc(seriesID)
	if err != nil {
		return nil, err
	}

	iter := doc.Collection("entries").
		OrderBy("timestamp", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	entryDoc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last entry for %s: %w", seriesID, err)
	}

	start, err := time.Parse(time.RFC3339, entryDoc.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid entry doc id %s: %w", entryDoc.Ref.ID, err)
	}

	var sum float64
	if v, err := entryDoc.DataAt("sum"); err == nil {
		if vf, ok := v.(float64); ok {
			sum = vf
		}
	} else {
		log.Ctx(ctx).WarnContext(ctx, "entry doc missing sum", slog.String("seriesID", seriesID), slog.String("docID", entryDoc.Ref.ID))
	}

	return &LastEntry{
		Start: start,
		End:   start.Add(time.Hour),
		Sum:   sum,
	}, nil
}

// AppendEntries writes the series metadata and appends the given entries.
// Entry documents are keyed by the RFC3339 period start, so re-appending an
// hour the engine already emitted is an idempotent overwrite rather than a
// duplicate.
func (f *FirestoreProvider) AppendEntries(ctx context.Context, seriesID string, meta types.StatisticMetadata, entries []types.StatisticEntry) error {
	if len(entries) == 0 {
		return nil
	}
	doc, err := f.seriesDoc(seriesID)
	if err != nil {
		return err
	}

	_, err = doc.Set(ctx, map[string]interface{}{
		"name":   meta.Name,
		"unit":   meta.Unit,
		"source": meta.Source,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to write series metadata for %s: %w", seriesID, err)
	}

	coll := doc.Collection("entries")
	for _, e := range entries {
		docID := e.Start.UTC().Format(time.RFC3339)
		_, err := coll.Doc(docID).Set(ctx, map[string]interface{}{
			"timestamp": e.Start.UTC(),
			"state":     e.State,
			"sum":       e.Sum,
		})
		if err != nil {
			return fmt.Errorf("failed to append entry %s to %s: %w", docID, seriesID, err)
		}
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"appended statistics entries",
		slog.String("seriesID", seriesID),
		slog.Int("count", len(entries)),
	)
	return nil
}
