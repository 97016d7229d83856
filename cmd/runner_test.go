package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/services"
	"github.com/desertthunder/flavor/internal/shared"
	tu "github.com/desertthunder/flavor/internal/testing"
	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			creds := shared.NewCredentials("")
			api := services.NewAPIService(config.API.BaseURL, nil, creds)
			recipes := &tu.MockRecipes{}
			trains := &tu.MockTrains{}

			runner := NewRunner(RunnerOpts{
				Config:      config,
				Credentials: creds,
				Logger:      logger,
				Output:      output,
				API:         api,
				Recipes:     recipes,
				Trains:      trains,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.credentials != creds {
				t.Error("expected credentials to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.recipes != recipes {
				t.Error("expected recipes to be set")
			}
			if runner.trains != trains {
				t.Error("expected trains to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if !runner.interactive {
				t.Error("expected stdin input to be interactive")
			}
		})

		t.Run("with nil clients builds them over the API", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.api == nil || runner.recipes == nil || runner.trains == nil || runner.notes == nil || runner.auth == nil {
				t.Error("expected every client to be built")
			}
			if runner.credentials.Authenticated() {
				t.Error("expected an empty credential store")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("readLine", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Input: strings.NewReader("a@b.co\nsecret")})

		first, err := runner.readLine("Email: ")
		if err != nil || first != "a@b.co" {
			t.Fatalf("expected first line, got %q (%v)", first, err)
		}
		second, err := runner.readLine("Password: ")
		if err != nil || second != "secret" {
			t.Fatalf("expected unterminated last line, got %q (%v)", second, err)
		}
		if _, err := runner.readLine("More: "); err == nil {
			t.Error("expected error once input is exhausted")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

// backend is an in-memory stand-in for the recipe and train API. User 7 is logged in.
type backend struct {
	token    string
	requests atomic.Int32
	rates    atomic.Int32
	creates  atomic.Int32
	deletes  atomic.Int32
}

func testToken(t *testing.T, userID int) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": userID, "exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

var testRecipes = []models.Recipe{
	{ID: 1, UserID: 7, Name: "apple pie", Ingredients: []string{"apples"}, Instructions: "bake"},
	{ID: 2, UserID: 7, Name: "Banana bread", Ingredients: []string{"bananas"}, Instructions: "bake"},
	{ID: 3, UserID: 9, Name: "Carrot cake", Ingredients: []string{"carrots"}, Instructions: "bake"},
}

var testTrains = []models.Train{
	{ID: 1, UserID: 7, Name: "Morning", Origin: "Oslo", Destination: "Bergen", Departure: "2030-01-02T08:00:00Z", Arrival: "2030-01-02T15:00:00Z"},
	{ID: 2, UserID: 7, Name: "Evening", Origin: "Bergen", Destination: "Oslo", Departure: "2030-01-01T18:00:00Z", Arrival: "2030-01-02T01:00:00Z"},
}

func (b *backend) handler(t *testing.T) http.Handler {
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.TokenPair{AccessToken: b.token, RefreshToken: "refresh"})
	})
	mux.HandleFunc("GET /auth/currentUser", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.User{ID: 7, Email: "cook@example.com", Name: "Cook"})
	})
	mux.HandleFunc("GET /recipes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testRecipes)
	})
	mux.HandleFunc("GET /recipes/user/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testRecipes[:2])
	})
	mux.HandleFunc("GET /recipes/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		found := []models.Recipe{}
		for _, rec := range testRecipes {
			if models.ContainsFold(rec.Name, q) {
				found = append(found, rec)
			}
		}
		writeJSON(w, found)
	})
	mux.HandleFunc("POST /recipes/3/rate", func(w http.ResponseWriter, r *http.Request) {
		b.rates.Add(1)
		avg := 4.0
		writeJSON(w, models.Recipe{ID: 3, AvgRating: &avg})
	})
	mux.HandleFunc("GET /train/user/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testTrains)
	})
	mux.HandleFunc("POST /train", func(w http.ResponseWriter, r *http.Request) {
		b.creates.Add(1)
		writeJSON(w, testTrains[0])
	})
	mux.HandleFunc("DELETE /train/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.deletes.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		mux.ServeHTTP(w, r)
	})
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestRunner points a runner at a fake backend with an in-memory cache.
func newTestRunner(t *testing.T, loggedIn bool) (*Runner, *backend, *bytes.Buffer) {
	t.Helper()
	b := &backend{token: testToken(t, 7)}
	server := httptest.NewServer(b.handler(t))
	t.Cleanup(server.Close)

	config := shared.DefaultConfig()
	config.API.BaseURL = server.URL
	config.API.RateLimit = 0

	creds := shared.NewCredentials("")
	if loggedIn {
		if err := creds.Set(b.token, "refresh"); err != nil {
			t.Fatalf("failed to set credential: %v", err)
		}
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:      config,
		Credentials: creds,
		Logger:      shared.DiscardLogger(),
		Output:      output,
		Input:       strings.NewReader(""),
		DB:          openTestDB(t),
	})
	return runner, b, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "flavor", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"flavor"}, args...))
}

func TestRecipeCommands(t *testing.T) {
	t.Run("List Mine Sorted", func(t *testing.T) {
		runner, _, output := newTestRunner(t, true)

		if err := run(runner, "recipes", "list", "--mine", "--sort", "name", "--desc", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.HasPrefix(out, "ID,Name") {
			t.Errorf("expected CSV header, got %q", out)
		}
		if strings.Contains(out, "Carrot cake") {
			t.Error("expected only the user's recipes")
		}
		if strings.Index(out, "Banana bread") > strings.Index(out, "apple pie") {
			t.Errorf("expected descending case-insensitive order, got %q", out)
		}
	})

	t.Run("Offline Reads The Cache", func(t *testing.T) {
		runner, b, output := newTestRunner(t, true)

		if err := run(runner, "recipes", "list", "--mine"); err != nil {
			t.Fatalf("expected list to succeed, got %v", err)
		}
		before := b.requests.Load()
		output.Reset()

		if err := run(runner, "recipes", "offline", "--format", "csv"); err != nil {
			t.Fatalf("expected offline listing, got %v", err)
		}
		if b.requests.Load() != before {
			t.Error("expected no requests while offline")
		}
		if out := output.String(); !strings.Contains(out, "apple pie") || !strings.Contains(out, "Banana bread") {
			t.Errorf("expected cached recipes, got %q", out)
		}
	})

	t.Run("Invalid Sort Column", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, true)

		err := run(runner, "recipes", "list", "--sort", "origin")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Search Records History", func(t *testing.T) {
		runner, _, output := newTestRunner(t, true)

		if err := run(runner, "recipes", "search", "PIE"); err != nil {
			t.Fatalf("expected search to succeed, got %v", err)
		}
		if out := output.String(); !strings.Contains(out, "apple pie") || strings.Contains(out, "Banana") {
			t.Errorf("expected only the matching recipe, got %q", out)
		}

		output.Reset()
		if err := run(runner, "recipes", "history", "--json"); err != nil {
			t.Fatalf("expected history, got %v", err)
		}
		var records []models.SearchRecord
		if err := json.Unmarshal(output.Bytes(), &records); err != nil {
			t.Fatalf("expected JSON history: %v", err)
		}
		if len(records) != 1 || records[0].Query != "PIE" || records[0].Results != 1 {
			t.Errorf("expected one recorded search, got %+v", records)
		}
	})

	t.Run("Rate Own Recipe Is Refused Locally", func(t *testing.T) {
		runner, b, _ := newTestRunner(t, true)

		err := run(runner, "recipes", "rate", "1", "5")
		if !errors.Is(err, shared.ErrSelfRating) {
			t.Fatalf("expected ErrSelfRating, got %v", err)
		}
		if b.rates.Load() != 0 {
			t.Error("expected no rate request")
		}
	})

	t.Run("Rate Out Of Range", func(t *testing.T) {
		runner, b, _ := newTestRunner(t, true)

		err := run(runner, "recipes", "rate", "3", "9")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if b.rates.Load() != 0 {
			t.Error("expected no rate request")
		}
	})

	t.Run("Rate", func(t *testing.T) {
		runner, b, output := newTestRunner(t, true)

		if err := run(runner, "recipes", "rate", "3", "4"); err != nil {
			t.Fatalf("expected rating to succeed, got %v", err)
		}
		if b.rates.Load() != 1 {
			t.Errorf("expected one rate request, got %d", b.rates.Load())
		}
		if !strings.Contains(output.String(), "Rated Carrot cake 4/5") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Requires Login", func(t *testing.T) {
		runner, b, _ := newTestRunner(t, false)

		err := run(runner, "recipes", "list", "--mine")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if b.requests.Load() != 0 {
			t.Errorf("expected no requests without a credential, got %d", b.requests.Load())
		}
	})
}

func TestTrainCommands(t *testing.T) {
	t.Run("List Sorted By Departure", func(t *testing.T) {
		runner, _, output := newTestRunner(t, true)

		if err := run(runner, "trains", "list", "--sort", "departure"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := output.String()
		if strings.Index(out, "Evening") > strings.Index(out, "Morning") {
			t.Errorf("expected the earlier departure first, got %q", out)
		}
	})

	t.Run("Create In The Past Is Rejected", func(t *testing.T) {
		runner, b, _ := newTestRunner(t, true)

		err := run(runner, "trains", "create",
			"--name", "Old", "--origin", "A", "--destination", "B",
			"--departure", "2000-01-01T08:00:00Z", "--arrival", "2000-01-01T10:00:00Z",
		)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if b.creates.Load() != 0 {
			t.Error("expected no create request")
		}
	})

	t.Run("Create", func(t *testing.T) {
		runner, b, output := newTestRunner(t, true)

		err := run(runner, "trains", "create",
			"--name", "Morning", "--origin", "Oslo", "--destination", "Bergen",
			"--departure", "2030-01-02 08:00", "--arrival", "2030-01-02 15:00",
		)
		if err != nil {
			t.Fatalf("expected create to succeed, got %v", err)
		}
		if b.creates.Load() != 1 {
			t.Errorf("expected one create request, got %d", b.creates.Load())
		}
		if !strings.Contains(output.String(), "Oslo → Bergen") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Bad Time", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, true)

		err := run(runner, "trains", "create", "--name", "x", "--departure", "tomorrow")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Bulk Delete", func(t *testing.T) {
		runner, b, output := newTestRunner(t, true)

		if err := run(runner, "trains", "bulk-delete", "1", "2"); err != nil {
			t.Fatalf("expected bulk delete to succeed, got %v", err)
		}
		if b.deletes.Load() != 2 {
			t.Errorf("expected two delete requests, got %d", b.deletes.Load())
		}
		if !strings.Contains(output.String(), "Deleted: 2 / 2") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Bulk Delete Rejects Bad Ids", func(t *testing.T) {
		runner, b, _ := newTestRunner(t, true)

		err := run(runner, "trains", "bulk-delete", "1", "two")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if b.requests.Load() != 0 {
			t.Error("expected no requests")
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("Login", func(t *testing.T) {
		runner, _, output := newTestRunner(t, false)

		if err := run(runner, "auth", "login", "--email", "cook@example.com", "--password", "pw"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		if !runner.credentials.Authenticated() {
			t.Error("expected a stored credential")
		}
		if id, ok := runner.credentials.UserID(); !ok || id != 7 {
			t.Errorf("expected user 7 from the token, got %d", id)
		}
		if !strings.Contains(output.String(), "Logged in as cook@example.com") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Login Prompts For Missing Fields", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, false)
		runner.input.Reset(strings.NewReader("cook@example.com\npw\n"))

		if err := run(runner, "auth", "login"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		if !runner.credentials.Authenticated() {
			t.Error("expected a stored credential")
		}
	})

	t.Run("Login Validates Before Sending", func(t *testing.T) {
		runner, b, _ := newTestRunner(t, false)

		err := run(runner, "auth", "login", "--email", "not-an-email", "--password", "pw")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if b.requests.Load() != 0 {
			t.Error("expected no requests")
		}
	})

	t.Run("Status And Logout", func(t *testing.T) {
		runner, _, output := newTestRunner(t, true)

		if err := run(runner, "auth", "status"); err != nil {
			t.Fatalf("expected status, got %v", err)
		}
		if !strings.Contains(output.String(), "User: Cook (id 7)") {
			t.Errorf("unexpected status %q", output.String())
		}

		if err := run(runner, "auth", "logout"); err != nil {
			t.Fatalf("expected logout, got %v", err)
		}
		if runner.credentials.Authenticated() {
			t.Error("expected the credential to be cleared")
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		runner, _, output := newTestRunner(t, true)

		if err := run(runner, "api", "get", "--json", "/recipes"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var recipes []models.Recipe
		if err := json.Unmarshal(output.Bytes(), &recipes); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(recipes) != 3 {
			t.Errorf("expected 3 recipes, got %d", len(recipes))
		}
	})

	t.Run("Get Non-2xx", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, true)

		err := run(runner, "api", "get", "/missing")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Post Rejects Invalid JSON", func(t *testing.T) {
		runner, b, _ := newTestRunner(t, true)

		err := run(runner, "api", "post", "/recipes", "--data", "{nope")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if b.requests.Load() != 0 {
			t.Error("expected no requests")
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("parseTime", func(t *testing.T) {
		if _, err := parseTime("departure", "2030-01-02T08:00:00Z"); err != nil {
			t.Errorf("expected RFC 3339 to parse, got %v", err)
		}
		got, err := parseTime("departure", "2030-01-02 08:00")
		if err != nil {
			t.Fatalf("expected short form to parse, got %v", err)
		}
		if got.Hour() != 8 || got.Location() != time.Local {
			t.Errorf("expected local 08:00, got %v", got)
		}
		var verr *shared.ValidationError
		if _, err := parseTime("arrival", "soon"); !errors.As(err, &verr) || verr.Field != "arrival" {
			t.Errorf("expected arrival ValidationError, got %v", err)
		}
	})
}
