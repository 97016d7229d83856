// Package tasks holds the list logic shared by the recipe and train views, independent of any UI.
//
// # List Controllers
//
// [ListController] owns one entity type's Collection (the authoritative list, in server order) and the
// View derived from it by search and sort. [RecipeController] and [TrainController] add validation and,
// for recipes, rating. Every state write happens under one mutex; remote calls run outside it, so
// overlapping operations resolve in any order and the last local write wins.
//
// The controller moves between three states:
//
//  1. [Idle] : nothing outstanding
//  2. [Searching] : a debounced or direct search is waiting on the backend
//  3. [Mutating] : a create, update, delete or rating is waiting on the backend
//
// # Search
//
// [SearchDebouncer] coalesces keystrokes: each query cancels the pending one and only a query that
// survives [DefaultDebounce] reaches the backend. An empty query restores View = Collection without a
// remote call. A failed search empties the View and sets a fixed error message. Responses that arrive
// out of order are applied unless [Options.DiscardStale] is set.
//
// [MatchPolicy] is the local heuristic used to place created and updated entities while a query is
// active. It is independent of the backend search.
//
// # Sorting
//
// [SortEntities] is a pure, stable sort. Text compares case-insensitively through a collator; invalid
// numbers and timestamps sink to the end ascending and rise to the front descending.
//
// # Scheduling
//
// Timers go through the [Scheduler] interface. [TimerScheduler] uses the runtime; [ManualScheduler]
// advances an explicit clock so debounce behaviour can be tested deterministically.
//
// # Progress Reporting
//
// [BulkExportCards] and [BulkDelete] run worker pools and report [ProgressUpdate] values on an optional
// channel. Updates use select with default so a slow reader never blocks the work.
package tasks
