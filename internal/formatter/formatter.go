// package formatter renders recipe and train lists as CSV, Markdown, plain text or JSON, and writes recipe cards to disk
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/shared"
)

// Format is an output format for list exports.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
	JSON     Format = "json"
)

// ParseFormat maps a flag value onto a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// FormatRating renders an average rating as stars with its value and vote count, e.g. "★★★★☆ 4.2 (5)".
func FormatRating(avg *float64, count *int) string {
	if avg == nil {
		return "unrated"
	}
	full := int(*avg + 0.5)
	full = max(0, min(5, full))
	out := strings.Repeat("★", full) + strings.Repeat("☆", 5-full) + " " + strconv.FormatFloat(*avg, 'f', 1, 64)
	if count != nil {
		out += fmt.Sprintf(" (%d)", *count)
	}
	return out
}

// FormatTime renders a backend timestamp for display. Unparsable values are returned as they came.
func FormatTime(raw string) string {
	t, ok := models.ParseTime(raw)
	if !ok {
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Recipes renders recipes in format f.
func Recipes(recipes []models.Recipe, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return RecipesToCSV(recipes)
	case Markdown:
		return RecipesToMarkdown(recipes), nil
	case JSON:
		return shared.MarshalJSON(recipes, true)
	default:
		return RecipesToText(recipes), nil
	}
}

// Trains renders trips in format f.
func Trains(trains []models.Train, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return TrainsToCSV(trains)
	case Markdown:
		return TrainsToMarkdown(trains), nil
	case JSON:
		return shared.MarshalJSON(trains, true)
	default:
		return TrainsToText(trains), nil
	}
}

// RecipesToCSV writes columns ID, Name, Description, Ingredients, Average Rating, Ratings, Created.
func RecipesToCSV(recipes []models.Recipe) ([]byte, error) {
	rows := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		avg, count := "", ""
		if r.AvgRating != nil {
			avg = strconv.FormatFloat(*r.AvgRating, 'f', 2, 64)
		}
		if r.RatingsCount != nil {
			count = strconv.Itoa(*r.RatingsCount)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.ID), r.Name, r.Description, strings.Join(r.Ingredients, "; "), avg, count, r.CreatedAt,
		})
	}
	return writeCSV([]string{"ID", "Name", "Description", "Ingredients", "Average Rating", "Ratings", "Created"}, rows)
}

// TrainsToCSV writes columns ID, Name, Origin, Destination, Departure, Arrival.
func TrainsToCSV(trains []models.Train) ([]byte, error) {
	rows := make([][]string, 0, len(trains))
	for _, t := range trains {
		rows = append(rows, []string{strconv.Itoa(t.ID), t.Name, t.Origin, t.Destination, t.Departure, t.Arrival})
	}
	return writeCSV([]string{"ID", "Name", "Origin", "Destination", "Departure", "Arrival"}, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// RecipesToMarkdown renders a Markdown table of recipes.
func RecipesToMarkdown(recipes []models.Recipe) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Recipes\n\n**Count**: %d\n\n", len(recipes))
	buf.WriteString("| ID | Name | Description | Rating |\n|---|---|---|---|\n")
	for _, r := range recipes {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", r.ID, cell(r.Name), cell(r.Description), FormatRating(r.AvgRating, r.RatingsCount))
	}
	return buf.Bytes()
}

// TrainsToMarkdown renders a Markdown table of trips.
func TrainsToMarkdown(trains []models.Train) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Trains\n\n**Count**: %d\n\n", len(trains))
	buf.WriteString("| ID | Name | From | To | Departure | Arrival |\n|---|---|---|---|---|---|\n")
	for _, t := range trains {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s |\n",
			t.ID, cell(t.Name), cell(t.Origin), cell(t.Destination), FormatTime(t.Departure), FormatTime(t.Arrival))
	}
	return buf.Bytes()
}

// cell escapes pipes and newlines so s fits in one table cell.
func cell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// RecipesToText renders one numbered line per recipe.
func RecipesToText(recipes []models.Recipe) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Recipes: %d\n\n", len(recipes))
	for i, r := range recipes {
		fmt.Fprintf(&buf, "%d. [%d] %s - %s\n", i+1, r.ID, r.Name, FormatRating(r.AvgRating, r.RatingsCount))
	}
	return buf.Bytes()
}

// TrainsToText renders one numbered line per trip.
func TrainsToText(trains []models.Train) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Trains: %d\n\n", len(trains))
	for i, t := range trains {
		fmt.Fprintf(&buf, "%d. [%d] %s: %s → %s (%s - %s)\n",
			i+1, t.ID, t.Name, t.Origin, t.Destination, FormatTime(t.Departure), FormatTime(t.Arrival))
	}
	return buf.Bytes()
}

// RecipeCard renders a single recipe with its notes as a Markdown document, with an optional cover image.
func RecipeCard(r models.Recipe, notes []models.Note, imageFilename string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", r.Name)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	if r.Description != "" {
		fmt.Fprintf(&buf, "%s\n\n", r.Description)
	}
	fmt.Fprintf(&buf, "**Rating**: %s\n\n", FormatRating(r.AvgRating, r.RatingsCount))

	buf.WriteString("## Ingredients\n\n")
	for _, ingredient := range r.Ingredients {
		fmt.Fprintf(&buf, "- %s\n", ingredient)
	}

	fmt.Fprintf(&buf, "\n## Instructions\n\n%s\n", strings.TrimSpace(r.Instructions))

	if len(notes) > 0 {
		buf.WriteString("\n## Notes\n")
		for _, n := range notes {
			fmt.Fprintf(&buf, "\n### %s\n\n%s\n", n.Title, strings.TrimSpace(n.Content))
		}
	}
	return buf.Bytes()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes with its content type.
func DownloadImage(url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(imageData)
	}
	return imageData, contentType, nil
}

// imageExtension picks a file extension for an image content type, defaulting to .jpg.
func imageExtension(contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// CardResult contains information about files created by [WriteRecipeCard]
type CardResult struct {
	Directory  string
	Files      []string
	CoverImage string
	Warning    error // Warning is set when the cover image could not be saved
}

// WriteRecipeCard writes a recipe card into its own directory.
//
// The directory defaults to recipe_{id}. When the recipe has an image URL the image is downloaded next to
// the card; a failed download is reported on [CardResult.Warning] and does not fail the card.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.{ext}
func WriteRecipeCard(r models.Recipe, notes []models.Note, outputDir string) (*CardResult, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("recipe_%d", r.ID)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &CardResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverFilename string
	if r.ImageURL != "" {
		imageData, contentType, err := DownloadImage(r.ImageURL)
		if err != nil {
			result.Warning = err
		} else {
			coverFilename = "cover" + imageExtension(contentType)
			coverPath := filepath.Join(outputDir, coverFilename)
			if err := os.WriteFile(coverPath, imageData, 0644); err != nil {
				result.Warning = fmt.Errorf("failed to save cover image: %w", err)
				coverFilename = ""
			} else {
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, RecipeCard(r, notes, coverFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteFile writes an export to path, or to w when path is empty or "-".
func WriteFile(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ExportManifest summarises a bulk card export.
type ExportManifest struct {
	ExportedAt time.Time       `json:"exported_at"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Entries    []ManifestEntry `json:"entries"`
}

// ManifestEntry is one recipe's line in an [ExportManifest].
type ManifestEntry struct {
	RecipeID int      `json:"recipe_id"`
	Name     string   `json:"name"`
	Files    []string `json:"files,omitempty"`
	Warning  string   `json:"warning,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *ExportManifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
