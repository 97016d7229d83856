package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/flavor/internal/formatter"
	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/shared"
	"golang.org/x/time/rate"
)

// NoteLister fetches a user's notes on a recipe. [services.NoteClient] implements it.
type NoteLister interface {
	ListForRecipe(ctx context.Context, recipeID, userID int) ([]models.Note, error)
}

// Deleter removes one entity. Both list controllers implement it.
type Deleter interface {
	Delete(ctx context.Context, id int) error
}

// BulkOpts configures bulk operations.
type BulkOpts struct {
	OutputDir  string  // Base output directory (default: recipe_cards_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
	UserID     int     // Owner of the notes included on cards; zero skips notes
}

func (o BulkOpts) withDefaults() BulkOpts {
	if o.OutputDir == "" {
		o.OutputDir = fmt.Sprintf("recipe_cards_%d", time.Now().Unix())
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 4
	}
	if o.NumWorkers > 10 {
		o.NumWorkers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
	return o
}

// CardExportResult is the outcome of exporting one recipe card.
type CardExportResult struct {
	RecipeID int
	Name     string
	Files    []string
	Warning  error // Notes or cover image could not be fetched; the card was still written
	Error    error
}

// BulkExportResult summarises [BulkExportCards].
type BulkExportResult struct {
	Total           int
	Succeeded       int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []CardExportResult
}

type cardJob struct {
	recipe  models.Recipe
	notes   []models.Note
	warning error
}

// BulkExportCards writes a recipe card for each recipe, concurrently, then a manifest summarising the run.
//
// Notes are fetched one recipe at a time through a rate limiter while a worker pool writes cards. A failed
// card is recorded in the result and does not stop the others.
func BulkExportCards(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	notes NoteLister,
	recipes []models.Recipe,
	opts BulkOpts,
) (*BulkExportResult, error) {
	opts = opts.withDefaults()

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Total:           len(recipes),
		OutputDirectory: opts.OutputDir,
		Results:         make([]CardExportResult, 0, len(recipes)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan cardJob, len(recipes))
	results := make(chan CardExportResult, len(recipes))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go cardWorker(ctx, &wg, jobs, results, opts.OutputDir)
	}

	go func() {
		defer close(jobs)
		for i, r := range recipes {
			job := cardJob{recipe: r}
			if notes != nil && opts.UserID != 0 {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				sendProgress(prog, fetchingNotesUpdate(i+1, len(recipes), r.Name))
				list, err := notes.ListForRecipe(ctx, r.ID, opts.UserID)
				if err != nil {
					job.warning = fmt.Errorf("failed to fetch notes: %w", err)
				}
				job.notes = list
			}

			select {
			case <-ctx.Done():
				return
			case jobs <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Succeeded++
			sendProgress(prog, cardWrittenUpdate(completed, len(recipes), res.Name, len(res.Files)))
		} else {
			result.Failed++
			sendProgress(prog, cardFailedUpdate(completed, len(recipes), res.Name, res.Error))
		}
	}
	slices.SortFunc(result.Results, func(a, b CardExportResult) int { return cmp.Compare(a.RecipeID, b.RecipeID) })

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest(result), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// cardWorker writes cards from the jobs channel until it is closed.
func cardWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan cardJob, results chan<- CardExportResult, dir string) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := CardExportResult{RecipeID: job.recipe.ID, Name: job.recipe.Name, Warning: job.warning}
		card, err := formatter.WriteRecipeCard(job.recipe, job.notes, filepath.Join(dir, fmt.Sprintf("recipe_%d", job.recipe.ID)))
		if err != nil {
			res.Error = err
		} else {
			res.Files = card.Files
			if res.Warning == nil {
				res.Warning = card.Warning
			}
		}
		results <- res
	}
}

func manifest(r *BulkExportResult) *formatter.ExportManifest {
	m := &formatter.ExportManifest{
		ExportedAt: time.Now().UTC(),
		Total:      r.Total,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Entries:    make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{RecipeID: res.RecipeID, Name: res.Name, Files: res.Files}
		if res.Warning != nil {
			entry.Warning = res.Warning.Error()
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Entries = append(m.Entries, entry)
	}
	return m
}

// DeleteResult is the outcome of deleting one entity.
type DeleteResult struct {
	ID    int
	Error error
}

// BulkDeleteResult summarises [BulkDelete].
type BulkDeleteResult struct {
	Total   int
	Deleted int
	Failed  int
	Results []DeleteResult
}

// BulkDelete deletes ids through d with a rate-limited worker pool. Failures are collected, not fatal.
func BulkDelete(ctx context.Context, prog chan<- ProgressUpdate, d Deleter, ids []int, opts BulkOpts) (*BulkDeleteResult, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nothing to delete from", shared.ErrServiceUnavailable)
	}
	opts = opts.withDefaults()

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan int, len(ids))
	results := make(chan DeleteResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				results <- DeleteResult{ID: id, Error: d.Delete(ctx, id)}
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &BulkDeleteResult{Total: len(ids), Results: make([]DeleteResult, 0, len(ids))}
	for res := range results {
		result.Results = append(result.Results, res)
		if res.Error == nil {
			result.Deleted++
		} else {
			result.Failed++
		}
		sendProgress(prog, deletedUpdate(len(result.Results), len(ids), res.ID, res.Error))
	}
	slices.SortFunc(result.Results, func(a, b DeleteResult) int { return cmp.Compare(a.ID, b.ID) })

	return result, ctx.Err()
}
