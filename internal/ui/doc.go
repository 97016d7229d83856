// Package ui implements an interactive terminal list view using bubbletea's Elm architecture.
//
// One generic [Model] serves both lists: [NewRecipeModel] and [NewTrainModel] wire it to a
// tasks controller. The model never owns list state; it renders the controller's snapshot.
//
// Views:
//  1. [BrowseView] : move through the list, sort with 1-5, delete, rate, copy
//  2. [SearchView] : typing feeds the controller's debounced search; esc returns to browsing
//  3. [ConfirmDeleteView] : confirm a delete with y/n
//  4. [RateView] : pick 1-5 stars (recipes only)
//
// Controller events arrive through a command that blocks on its Updates channel and re-arms after every
// event, delivered as the Msg union type. Ingredient lists and trip summaries are copied with atotto/clipboard.
package ui
