// Package pipeline acquires and revises itineraries.
//
// # Acquisition
//
// Planner.Acquire runs a fixed sequence of stages:
//
//  1. Hero image resolution starts in the background.
//  2. The generation prompt is built and sent to the Generator under the
//     generation timeout.
//  3. Generator failures are returned as-is when already classified,
//     otherwise as service_unavailable. Enrichment does not run.
//  4. The text is fence-stripped and decoded (malformed_response on failure).
//  5. The document is validated and repaired (schema_violation on failure).
//  6. A fresh id, the requested vibe and the destination are attached.
//  7. The hero image is joined.
//  8. Day images are resolved concurrently and attached by index.
//  9. The assembled Itinerary is returned.
//
// # Modification
//
// Planner.Modify embeds the current document and an edit request in the
// prompt and runs stages 2 through 5. The hero image, id and vibe carry
// over; only days whose content changed get new images.
//
// # Cancellation
//
// A cancelled caller context makes both operations return ctx.Err()
// unwrapped. Every goroutine the planner starts is joined before it returns.
package pipeline
