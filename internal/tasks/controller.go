package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/services"
	"github.com/desertthunder/flavor/internal/shared"
)

// State is what a [ListController] is waiting on.
type State int

const (
	Idle State = iota
	Searching
	Mutating
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Mutating:
		return "mutating"
	default:
		return "idle"
	}
}

// SearchState is the search box: the typed query, whether a search is outstanding and the last failure message.
type SearchState struct {
	Query   string
	Loading bool
	Error   string
}

// Snapshot is a consistent copy of a controller's state.
type Snapshot[T any] struct {
	Collection []T
	View       []T
	Sort       SortState
	Search     SearchState
	State      State
}

// EventKind identifies what changed in a controller.
type EventKind int

const (
	Loaded EventKind = iota
	Created
	Updated
	Deleted
	Rated
	SearchStarted
	Searched
	SearchFailed
	SearchCleared
	Sorted
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Loaded:
		return "loaded"
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	case Rated:
		return "rated"
	case SearchStarted:
		return "search_started"
	case Searched:
		return "searched"
	case SearchFailed:
		return "search_failed"
	case SearchCleared:
		return "search_cleared"
	case Sorted:
		return "sorted"
	default:
		return "failed"
	}
}

// Event reports a change to a controller's state. ID is set for single-entity changes.
type Event struct {
	Kind EventKind
	ID   int
	Err  error
}

// Cacher persists the collection between runs. Failures are logged, never surfaced.
type Cacher[T any] interface {
	Replace(ownerID int, items []T) error
	Upsert(item T) error
	Remove(id int) error
	List(ownerID int) ([]T, error)
}

// SearchHistory records searches that reached the backend.
type SearchHistory interface {
	Record(query string, results int) error
}

// Options configures a [ListController].
type Options[T any] struct {
	Name          string         // Name labels log lines, e.g. "recipes"
	SearchFailure string         // SearchFailure is the fixed message shown when a search fails
	Match         MatchPolicy[T] // Match places created and updated entities while a query is active
	Debounce      time.Duration  // Debounce defaults to [DefaultDebounce]
	Scheduler     Scheduler      // Scheduler defaults to [TimerScheduler]
	DiscardStale  bool           // DiscardStale drops search responses overtaken by a newer search
	Logger        *log.Logger
	Cache         Cacher[T]
	History       SearchHistory
	Context       context.Context // Context is used for debounced searches, which have no caller
}

// ListController owns one entity type's collection and the filtered, sorted view derived from it.
//
// All state writes happen under a single mutex so each is atomic relative to the others. Remote calls run
// outside the lock, so overlapping operations may resolve in any order and the last write wins.
// Changes are announced on [ListController.Updates] without ever blocking the writer.
type ListController[T models.Entity[T], C any, U any] struct {
	mu         sync.Mutex
	remote     services.Collection[T, C, U]
	match      MatchPolicy[T]
	debouncer  *SearchDebouncer
	collection []T
	view       []T
	sort       SortState
	search     SearchState
	searching  int
	mutating   int
	seq        uint64
	opts       Options[T]
	logger     *log.Logger
	updates    chan Event
}

// NewListController creates a controller over remote.
func NewListController[T models.Entity[T], C any, U any](remote services.Collection[T, C, U], opts Options[T]) *ListController[T, C, U] {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Match == nil {
		opts.Match = func(T, string) bool { return false }
	}
	if opts.SearchFailure == "" {
		opts.SearchFailure = "Failed to search"
	}

	c := &ListController[T, C, U]{
		remote:     remote,
		match:      opts.Match,
		collection: []T{},
		view:       []T{},
		opts:       opts,
		logger:     shared.WithLogger(opts.Logger, "list", opts.Name),
		updates:    make(chan Event, 64),
	}
	c.debouncer = NewSearchDebouncer(opts.Scheduler, opts.Debounce, c.fire)
	return c
}

// Updates delivers change events. Events are dropped when the buffer is full.
func (c *ListController[T, C, U]) Updates() <-chan Event {
	return c.updates
}

// notify sends an event through the channel without blocking.
func (c *ListController[T, C, U]) notify(ev Event) {
	select {
	case c.updates <- ev:
	default:
	}
}

// Snapshot returns a copy of the current state.
func (c *ListController[T, C, U]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot[T]{
		Collection: slices.Clone(c.collection),
		View:       slices.Clone(c.view),
		Sort:       c.sort,
		Search:     c.search,
		State:      c.stateLocked(),
	}
}

// View returns a copy of the displayed list.
func (c *ListController[T, C, U]) View() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.view)
}

// Collection returns a copy of the authoritative list.
func (c *ListController[T, C, U]) Collection() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.collection)
}

// State reports what the controller is waiting on. Mutations take precedence over searches.
func (c *ListController[T, C, U]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *ListController[T, C, U]) stateLocked() State {
	switch {
	case c.mutating > 0:
		return Mutating
	case c.searching > 0:
		return Searching
	default:
		return Idle
	}
}

// Get looks id up in the collection, then in the view.
func (c *ListController[T, C, U]) Get(id int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := indexOf(c.collection, id); i >= 0 {
		return c.collection[i], true
	}
	if i := indexOf(c.view, id); i >= 0 {
		return c.view[i], true
	}
	var zero T
	return zero, false
}

// Load fetches ownerID's entities and makes them the collection.
func (c *ListController[T, C, U]) Load(ctx context.Context, ownerID int) error {
	items, err := c.remote.ListByOwner(ctx, ownerID)
	if err != nil {
		c.logger.Error("load failed", "owner", ownerID, "error", err)
		c.notify(Event{Kind: Failed, Err: err})
		return err
	}

	c.Replace(items)
	c.cache(func(cache Cacher[T]) error { return cache.Replace(ownerID, items) })
	return nil
}

// LoadCached restores ownerID's collection from the cache, for offline use.
func (c *ListController[T, C, U]) LoadCached(ownerID int) error {
	if c.opts.Cache == nil {
		return fmt.Errorf("%w: no cache configured", shared.ErrServiceUnavailable)
	}
	items, err := c.opts.Cache.List(ownerID)
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	c.Replace(items)
	return nil
}

// Replace installs items as the collection. Without an active query the view follows it.
func (c *ListController[T, C, U]) Replace(items []T) {
	c.mu.Lock()
	c.collection = dedupe(items)
	if c.search.Query == "" {
		c.view = slices.Clone(c.collection)
	}
	n := len(c.collection)
	c.mu.Unlock()

	c.logger.Debug("collection replaced", "count", n)
	c.notify(Event{Kind: Loaded})
}

// begin and end bracket a remote mutation.
func (c *ListController[T, C, U]) begin() {
	c.mu.Lock()
	c.mutating++
	c.mu.Unlock()
}

func (c *ListController[T, C, U]) end() {
	c.mu.Lock()
	c.mutating--
	c.mu.Unlock()
}

// Create submits input and appends the result to the collection.
//
// With no active query the view mirrors the collection and receives the entity too; with one, the entity
// joins the view only when the local match policy accepts it.
func (c *ListController[T, C, U]) Create(ctx context.Context, input C) (T, error) {
	c.begin()
	item, err := c.remote.Create(ctx, input)
	c.end()
	if err != nil {
		c.logger.Error("create failed", "error", err)
		c.notify(Event{Kind: Failed, Err: err})
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.collection = upsert(c.collection, item)
	if q := c.search.Query; q == "" || c.match(item, q) {
		c.view = upsert(c.view, item)
	}
	c.mu.Unlock()

	c.logger.Info("created", "id", item.EntityID())
	c.cache(func(cache Cacher[T]) error { return cache.Upsert(item) })
	c.notify(Event{Kind: Created, ID: item.EntityID()})
	return item, nil
}

// Update applies patch to id and merges the response into the collection and view entries.
//
// While a query is active an entity that no longer matches leaves the view, never the collection.
func (c *ListController[T, C, U]) Update(ctx context.Context, id int, patch U) (T, error) {
	c.begin()
	resp, err := c.remote.Update(ctx, id, patch)
	c.end()
	if err != nil {
		c.logger.Error("update failed", "id", id, "error", err)
		c.notify(Event{Kind: Failed, ID: id, Err: err})
		var zero T
		return zero, err
	}

	c.mu.Lock()
	merged := resp
	if i := indexOf(c.collection, id); i >= 0 {
		merged = c.collection[i].Merge(resp)
		c.collection = replaceAt(c.collection, i, merged)
	}
	if i := indexOf(c.view, id); i >= 0 {
		entry := c.view[i].Merge(resp)
		if q := c.search.Query; q != "" && !c.match(entry, q) {
			c.view = slices.Delete(slices.Clone(c.view), i, i+1)
		} else {
			c.view = replaceAt(c.view, i, entry)
		}
	}
	c.mu.Unlock()

	c.logger.Info("updated", "id", id)
	c.cache(func(cache Cacher[T]) error { return cache.Upsert(merged) })
	c.notify(Event{Kind: Updated, ID: id})
	return merged, nil
}

// Delete removes id remotely and then locally. On failure local state is untouched.
func (c *ListController[T, C, U]) Delete(ctx context.Context, id int) error {
	c.begin()
	err := c.remote.Delete(ctx, id)
	c.end()
	if err != nil {
		c.logger.Error("delete failed", "id", id, "error", err)
		c.notify(Event{Kind: Failed, ID: id, Err: err})
		return err
	}

	c.mu.Lock()
	c.collection = without(c.collection, id)
	c.view = without(c.view, id)
	c.mu.Unlock()

	c.logger.Info("deleted", "id", id)
	c.cache(func(cache Cacher[T]) error { return cache.Remove(id) })
	c.notify(Event{Kind: Deleted, ID: id})
	return nil
}

// apply replaces the collection and view entries for id with fn's result. It reports whether either existed.
func (c *ListController[T, C, U]) apply(id int, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	if i := indexOf(c.collection, id); i >= 0 {
		c.collection = replaceAt(c.collection, i, fn(c.collection[i]))
		found = true
	}
	if i := indexOf(c.view, id); i >= 0 {
		c.view = replaceAt(c.view, i, fn(c.view[i]))
		found = true
	}
	return found
}

// SetSearchQuery records query and schedules a debounced search for it. Loading starts immediately.
func (c *ListController[T, C, U]) SetSearchQuery(query string) {
	c.mu.Lock()
	c.search.Query = query
	c.search.Loading = true
	c.mu.Unlock()

	c.debouncer.Submit(query)
	c.notify(Event{Kind: SearchStarted})
}

// ClearSearch cancels any pending search and resets the view to exactly the collection.
func (c *ListController[T, C, U]) ClearSearch() {
	c.debouncer.Cancel()

	c.mu.Lock()
	c.seq++
	c.search = SearchState{}
	c.view = slices.Clone(c.collection)
	c.mu.Unlock()

	c.notify(Event{Kind: SearchCleared})
}

// SearchPending reports whether a debounced search is waiting to fire.
func (c *ListController[T, C, U]) SearchPending() bool {
	return c.debouncer.Pending()
}

// Close cancels the pending search, if any.
func (c *ListController[T, C, U]) Close() {
	c.debouncer.Cancel()
}

// fire runs when a debounced query survives its quiet period.
func (c *ListController[T, C, U]) fire(query string) {
	_, _ = c.run(c.opts.Context, query)
}

// Search runs query immediately, bypassing the debouncer. It applies the outcome exactly as a debounced search would.
func (c *ListController[T, C, U]) Search(ctx context.Context, query string) ([]T, error) {
	c.debouncer.Cancel()

	c.mu.Lock()
	c.search.Query = query
	c.search.Loading = true
	c.mu.Unlock()

	return c.run(ctx, query)
}

func (c *ListController[T, C, U]) run(ctx context.Context, query string) ([]T, error) {
	c.mu.Lock()
	if query == "" {
		c.seq++
		c.search.Loading = false
		c.search.Error = ""
		c.view = slices.Clone(c.collection)
		view := slices.Clone(c.view)
		c.mu.Unlock()

		c.notify(Event{Kind: SearchCleared})
		return view, nil
	}
	c.seq++
	seq := c.seq
	c.searching++
	c.mu.Unlock()

	c.logger.Debug("searching", "query", query, "seq", seq)
	results, err := c.remote.Search(ctx, query)

	c.mu.Lock()
	c.searching--
	if c.opts.DiscardStale && seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarded stale search", "query", query, "seq", seq)
		return results, err
	}

	if err != nil {
		c.view = []T{}
		c.search.Error = c.opts.SearchFailure
	} else {
		c.view = slices.Clone(results)
		if c.view == nil {
			c.view = []T{}
		}
		c.search.Error = ""
	}
	c.search.Loading = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("search failed", "query", query, "error", err)
		c.notify(Event{Kind: SearchFailed, Err: err})
		return nil, err
	}

	if c.opts.History != nil {
		if herr := c.opts.History.Record(query, len(results)); herr != nil {
			c.logger.Warn("failed to record search", "error", herr)
		}
	}
	c.notify(Event{Kind: Searched})
	return results, nil
}

// Sort returns the active sort.
func (c *ListController[T, C, U]) Sort() SortState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// SearchState returns the search box state.
func (c *ListController[T, C, U]) SearchState() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// SetSort selects col using the toggle policy and re-sorts the view.
func (c *ListController[T, C, U]) SetSort(col models.Column) error {
	var zero T
	if !slices.Contains(zero.Columns(), col) {
		return shared.Invalid("sort", fmt.Sprintf("cannot sort by %q", col))
	}

	c.mu.Lock()
	c.sort = c.sort.Toggle(col)
	c.view = SortEntities(c.view, c.sort)
	state := c.sort
	c.mu.Unlock()

	c.logger.Debug("sorted", "sort", state.String())
	c.notify(Event{Kind: Sorted})
	return nil
}

// SetSortState installs state directly, e.g. from a command-line flag, and re-sorts the view.
func (c *ListController[T, C, U]) SetSortState(state SortState) error {
	var zero T
	if state.Active() && !slices.Contains(zero.Columns(), state.Column) {
		return shared.Invalid("sort", fmt.Sprintf("cannot sort by %q", state.Column))
	}

	c.mu.Lock()
	c.sort = state
	c.view = SortEntities(c.view, c.sort)
	c.mu.Unlock()

	c.notify(Event{Kind: Sorted})
	return nil
}

// Resort reapplies the active sort to the current view. Membership changes never trigger it on their own.
func (c *ListController[T, C, U]) Resort() {
	c.mu.Lock()
	c.view = SortEntities(c.view, c.sort)
	c.mu.Unlock()

	c.notify(Event{Kind: Sorted})
}

func (c *ListController[T, C, U]) cache(fn func(Cacher[T]) error) {
	if c.opts.Cache == nil {
		return
	}
	if err := fn(c.opts.Cache); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
}

func indexOf[T models.Entity[T]](items []T, id int) int {
	return slices.IndexFunc(items, func(item T) bool { return item.EntityID() == id })
}

// replaceAt returns a copy of items with the entry at i set to item.
func replaceAt[T any](items []T, i int, item T) []T {
	out := slices.Clone(items)
	out[i] = item
	return out
}

// upsert appends item, or replaces the entry sharing its id so ids stay unique.
func upsert[T models.Entity[T]](items []T, item T) []T {
	if i := indexOf(items, item.EntityID()); i >= 0 {
		return replaceAt(items, i, item)
	}
	return append(slices.Clone(items), item)
}

func without[T models.Entity[T]](items []T, id int) []T {
	return slices.DeleteFunc(slices.Clone(items), func(item T) bool { return item.EntityID() == id })
}

// dedupe keeps the first entity for each id, preserving order.
func dedupe[T models.Entity[T]](items []T) []T {
	seen := make(map[int]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.EntityID()]; ok {
			continue
		}
		seen[item.EntityID()] = struct{}{}
		out = append(out, item)
	}
	return out
}
