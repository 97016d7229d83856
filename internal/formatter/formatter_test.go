package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/shared"
	th "github.com/desertthunder/flavor/internal/testing"
)

func ptr[T any](v T) *T { return &v }

func sampleRecipes() []models.Recipe {
	return []models.Recipe{
		{
			ID: 1, UserID: 2, Name: "Pasta", Description: "quick | easy",
			Ingredients: []string{"pasta", "salt"}, Instructions: "boil",
			AvgRating: ptr(4.25), RatingsCount: ptr(4), CreatedAt: "2024-01-02T03:04:05Z",
		},
		{ID: 2, UserID: 2, Name: "Soup", Ingredients: []string{"water"}, Instructions: "simmer"},
	}
}

func sampleTrains() []models.Train {
	return []models.Train{
		{ID: 1, Name: "Morning", Origin: "Oslo", Destination: "Bergen", Departure: "2030-05-01T08:00:00Z", Arrival: "not a date"},
	}
}

func TestExporters(t *testing.T) {
	t.Run("RecipesToCSV", func(t *testing.T) {
		data, err := RecipesToCSV(sampleRecipes())
		if err != nil {
			t.Fatalf("RecipesToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Name,Description,Ingredients,Average Rating,Ratings,Created") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,Pasta,quick | easy,pasta; salt,4.25,4,2024-01-02T03:04:05Z") {
			t.Errorf("CSV missing first recipe, got: %s", output)
		}
		if !strings.Contains(output, "2,Soup,,water,,,") {
			t.Errorf("CSV missing unrated recipe, got: %s", output)
		}
	})

	t.Run("TrainsToCSV", func(t *testing.T) {
		data, err := TrainsToCSV(sampleTrains())
		if err != nil {
			t.Fatalf("TrainsToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), "1,Morning,Oslo,Bergen,2030-05-01T08:00:00Z,not a date") {
			t.Errorf("CSV missing train, got: %s", data)
		}
	})

	t.Run("RecipesToMarkdown", func(t *testing.T) {
		output := string(RecipesToMarkdown(sampleRecipes()))

		if !strings.Contains(output, "**Count**: 2") {
			t.Errorf("Markdown missing count")
		}
		if !strings.Contains(output, `| 1 | Pasta | quick \| easy | ★★★★☆ 4.2 (4) |`) {
			t.Errorf("Markdown missing escaped row, got: %s", output)
		}
		if !strings.Contains(output, "| 2 | Soup |  | unrated |") {
			t.Errorf("Markdown missing unrated row, got: %s", output)
		}
	})

	t.Run("TrainsToMarkdown", func(t *testing.T) {
		output := string(TrainsToMarkdown(sampleTrains()))
		if !strings.Contains(output, "| 1 | Morning | Oslo | Bergen |") || !strings.Contains(output, "not a date |") {
			t.Errorf("Markdown missing train row, got: %s", output)
		}
	})

	t.Run("Text", func(t *testing.T) {
		recipes := string(RecipesToText(sampleRecipes()))
		if !strings.Contains(recipes, "Recipes: 2") || !strings.Contains(recipes, "2. [2] Soup - unrated") {
			t.Errorf("unexpected recipe text: %s", recipes)
		}

		trains := string(TrainsToText(sampleTrains()))
		if !strings.Contains(trains, "1. [1] Morning: Oslo → Bergen") {
			t.Errorf("unexpected train text: %s", trains)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := Recipes(sampleRecipes(), JSON)
		if err != nil {
			t.Fatalf("Recipes(JSON) failed: %v", err)
		}

		var decoded []models.Recipe
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].Rating() != 4.25 {
			t.Errorf("unexpected decoded recipes %+v", decoded)
		}

		if data, err := Trains(sampleTrains(), JSON); err != nil || !bytes.Contains(data, []byte(`"origin": "Oslo"`)) {
			t.Errorf("Trains(JSON) = %s, %v", data, err)
		}
	})

	t.Run("RecipeCard", func(t *testing.T) {
		notes := []models.Note{{ID: 1, Title: "Tip", Content: "Add more salt"}}
		output := string(RecipeCard(sampleRecipes()[0], notes, "cover.png"))

		for _, want := range []string{"# Pasta", "![Cover](cover.png)", "- pasta\n- salt", "## Instructions\n\nboil", "### Tip\n\nAdd more salt"} {
			if !strings.Contains(output, want) {
				t.Errorf("card missing %q, got: %s", want, output)
			}
		}

		bare := string(RecipeCard(sampleRecipes()[1], nil, ""))
		if strings.Contains(bare, "![Cover]") || strings.Contains(bare, "## Notes") {
			t.Errorf("card should omit cover and notes, got: %s", bare)
		}
	})
}

func TestFormatHelpers(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		tests := map[string]Format{"csv": CSV, "MD": Markdown, "markdown": Markdown, "": Text, "text": Text, "json": JSON}
		for in, want := range tests {
			got, err := ParseFormat(in)
			if err != nil || got != want {
				t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
			}
		}

		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if Markdown.Extension() != "md" || CSV.Extension() != "csv" {
			t.Error("unexpected extensions")
		}
	})

	t.Run("FormatRating", func(t *testing.T) {
		tests := []struct {
			avg   *float64
			count *int
			want  string
		}{
			{nil, nil, "unrated"},
			{ptr(5.0), nil, "★★★★★ 5.0"},
			{ptr(2.5), ptr(2), "★★★☆☆ 2.5 (2)"},
			{ptr(0.2), ptr(1), "☆☆☆☆☆ 0.2 (1)"},
		}
		for _, tt := range tests {
			if got := FormatRating(tt.avg, tt.count); got != tt.want {
				t.Errorf("FormatRating() = %q, want %q", got, tt.want)
			}
		}
	})

	t.Run("FormatTime", func(t *testing.T) {
		if got := FormatTime("whenever"); got != "whenever" {
			t.Errorf("unparsable time should pass through, got %q", got)
		}
		if got := FormatTime("2030-05-01T08:00:00Z"); !strings.HasPrefix(got, "2030-05-0") {
			t.Errorf("unexpected formatted time %q", got)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, _, err := DownloadImage(server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteRecipeCard", func(t *testing.T) {
		t.Run("WithImage", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.Write([]byte("png"))
			}))
			defer server.Close()

			recipe := sampleRecipes()[0]
			recipe.ImageURL = server.URL + "/pasta.png"
			outputDir := filepath.Join(t.TempDir(), "pasta")

			result, err := WriteRecipeCard(recipe, nil, outputDir)
			if err != nil {
				t.Fatalf("WriteRecipeCard failed: %v", err)
			}
			if result.Warning != nil {
				t.Errorf("unexpected warning: %v", result.Warning)
			}
			if len(result.Files) != 2 {
				t.Errorf("expected cover and README, got %v", result.Files)
			}

			th.AssertFileExists(t, filepath.Join(outputDir, "cover.png"))
			readme := th.MustReadFile(t, filepath.Join(outputDir, "README.md"))
			if !strings.Contains(readme, "![Cover](cover.png)") {
				t.Errorf("README should reference the cover, got: %s", readme)
			}
		})

		t.Run("WithBrokenImage", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			defer server.Close()

			recipe := sampleRecipes()[1]
			recipe.ImageURL = server.URL
			result, err := WriteRecipeCard(recipe, nil, filepath.Join(t.TempDir(), "soup"))
			if err != nil {
				t.Fatalf("a broken image should not fail the card: %v", err)
			}
			if result.Warning == nil || result.CoverImage != "" {
				t.Errorf("expected warning without cover, got %+v", result)
			}
		})

		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			if _, err := WriteRecipeCard(sampleRecipes()[1], nil, ""); err != nil {
				t.Fatalf("WriteRecipeCard failed: %v", err)
			}
			th.AssertDirExists(t, filepath.Join(tempDir, "recipe_2"))
		})
	})

	t.Run("WriteFile", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteFile(&buf, "-", []byte("hello")); err != nil || buf.String() != "hello" {
			t.Errorf("expected stdout write, got %q, %v", buf.String(), err)
		}

		path := filepath.Join(t.TempDir(), "nested", "out.csv")
		if err := WriteFile(&buf, path, []byte("a,b")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if th.MustReadFile(t, path) != "a,b" {
			t.Error("file content mismatch")
		}

		if err := WriteFile(&th.FWriter{}, "", []byte("x")); err == nil {
			t.Error("expected writer error")
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export_manifest.json")
		m := &ExportManifest{Total: 2, Succeeded: 1, Failed: 1, Entries: []ManifestEntry{
			{RecipeID: 1, Name: "Pasta", Files: []string{"recipe_1/README.md"}},
			{RecipeID: 2, Name: "Soup", Error: "boom"},
		}}

		if err := WriteManifest(m, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}

		var decoded ExportManifest
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if decoded.Failed != 1 || decoded.Entries[1].Error != "boom" {
			t.Errorf("unexpected manifest %+v", decoded)
		}
	})
}
