// Package models defines the entities exchanged with the recipe & train backend.
//
// The package contains three categories of types:
//
// 1. Entities: immutable snapshots of server records, held in list collections
//   - [Recipe] : a user's recipe with ingredients, instructions and rating aggregates
//   - [Train] : a planned train trip with origin, destination and times
//
// 2. Related records: fetched alongside entities but never listed on their own
//   - [Note] : a user's private note on a recipe
//   - [User] : the account behind a credential
//   - [RatingSummary] : a recipe's average rating and vote count
//
// 3. Inputs and patches: what a user submits to create or update an entity
//   - [RecipeInput], [RecipePatch], [TrainInput], [TrainPatch], [NoteInput]
//
// Every entity implements [Entity], which the list controllers use to identify, merge and sort records
// without knowing their concrete type. Inputs validate themselves before any network call, reporting
// problems as [shared.ValidationError].
package models
